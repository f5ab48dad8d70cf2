package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/catalog"
	"github.com/roach88/cauldron/internal/engine"
)

// AssertionError is returned when an assertion fails. It carries the trace
// of the run for context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []engine.Result
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, res := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s", res.Seq, res.Event.Kind, res.Event.Pos)
		for _, s := range res.Steps {
			fmt.Fprintf(&buf, " %s=%s", s.Handler, s.Outcome.Status)
			if s.Outcome.Reason != "" {
				fmt.Fprintf(&buf, "(%s)", s.Outcome.Reason)
			}
		}
		if res.Err != "" {
			fmt.Fprintf(&buf, " error=%q", res.Err)
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

func evaluateAssertion(ctx context.Context, sb *engine.Sandbox, a Assertion, trace []engine.Result) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Trace: trace}
	}
	pos := a.Station.Position()

	switch a.Type {
	case AssertBlock:
		b, err := sb.World.Block(ctx, pos)
		if err != nil {
			return err
		}
		if b != *a.Block {
			return fail(fmt.Sprintf("block %+v at %s", *a.Block, pos), fmt.Sprintf("%+v", b))
		}
		return nil

	case AssertBrewCount:
		found, err := sb.Frames.Brews(ctx)
		if err != nil {
			return err
		}
		if len(found) != a.Count {
			return fail(fmt.Sprintf("%d brews", a.Count), fmt.Sprintf("%d brews", len(found)))
		}
		return nil
	}

	rec, _, err := sb.Stations.Find(ctx, pos)
	if err != nil {
		return err
	}

	switch a.Type {
	case AssertBrewExists:
		if rec == nil {
			return fail("brew at "+pos.String(), "no brew")
		}

	case AssertNoBrew:
		if rec != nil {
			return fail("no brew at "+pos.String(), describe(rec))
		}

	case AssertIngredientCount:
		if rec == nil {
			return fail(fmt.Sprintf("%d ingredients at %s", a.Count, pos), "no brew")
		}
		if len(rec.Ingredients) != a.Count {
			return fail(fmt.Sprintf("%d ingredients at %s", a.Count, pos), describe(rec))
		}

	case AssertColor:
		want, err := catalog.ParseHex(a.Color)
		if err != nil {
			return err
		}
		if rec == nil {
			return fail("colour "+want.Hex()+" at "+pos.String(), "no brew")
		}
		if rec.Color != want {
			return fail("colour "+want.Hex()+" at "+pos.String(), "colour "+rec.Color.Hex())
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func describe(rec *brew.Record) string {
	items := make([]string, len(rec.Ingredients))
	for i, ing := range rec.Ingredients {
		items[i] = ing.Key.String()
	}
	return fmt.Sprintf("brew with %d ingredients [%s]", len(items), strings.Join(items, " "))
}
