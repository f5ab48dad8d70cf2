package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/roach88/cauldron/internal/brewing"
	"github.com/roach88/cauldron/internal/catalog"
	"github.com/roach88/cauldron/internal/engine"
	"github.com/roach88/cauldron/internal/testutil"
	"github.com/roach88/cauldron/internal/thermal"
)

type options struct {
	catalog *catalog.Catalog
	logger  zerolog.Logger
}

// Option configures a run.
type Option func(*options)

// WithCatalog runs the scenario against cat instead of the built-in table.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(o *options) { o.catalog = cat }
}

// WithLogger sets the logger the engine and handlers write to.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each run gets a fresh in-memory world. Steps are processed synchronously
// in order, each at its scenario time. Failed expectations do not stop the
// run; assertions are evaluated against the world after the last step.
//
// The error is non-nil only if the run could not be set up.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.catalog == nil {
		cat, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		o.catalog = cat
	}

	ctx := context.Background()
	journal := &engine.MemoryJournal{}
	sb := engine.NewSandbox(o.catalog, engine.WithJournal(journal), engine.WithLogger(o.logger))
	clock := testutil.NewManualClock(s.Start)

	result := NewResult()
	for i, step := range s.Steps {
		ev := step.Event(clock.Set(step.At.Duration()))
		res, err := sb.Engine.Process(ctx, ev)
		result.Trace = append(result.Trace, res)
		for _, msg := range checkExpect(step, res, err) {
			result.AddError(fmt.Sprintf("steps[%d] %s %s: %s", i, step.Kind, ev.Pos, msg))
		}
	}
	result.Entries = journal.Entries()

	for i, a := range s.Assertions {
		if err := evaluateAssertion(ctx, sb, a, result.Trace); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return result, nil
}

// checkExpect compares one processed step with its expect clause and
// returns a message per mismatch.
func checkExpect(step Step, res engine.Result, err error) []string {
	e := step.Expect
	if e == nil {
		if err != nil {
			return []string{fmt.Sprintf("unexpected error: %v", err)}
		}
		return nil
	}

	if e.Error != "" {
		switch {
		case err == nil:
			return []string{fmt.Sprintf("expected error containing %q, got none", e.Error)}
		case !strings.Contains(err.Error(), e.Error):
			return []string{fmt.Sprintf("expected error containing %q, got %q", e.Error, err.Error())}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	var msgs []string
	mismatch := func(field string, want, got any) {
		msgs = append(msgs, fmt.Sprintf("%s: expected %v, got %v", field, want, got))
	}

	if e.Steps != nil && len(res.Steps) != *e.Steps {
		mismatch("steps", *e.Steps, len(res.Steps))
	}
	if !e.checksOutcome() {
		return msgs
	}

	out, ok := pickStep(res, e.Handler)
	if !ok {
		name := string(e.Handler)
		if name == "" {
			name = "any"
		}
		return append(msgs, fmt.Sprintf("no %s step in result", name))
	}

	if e.Status != "" && out.Status != e.Status {
		mismatch("status", e.Status, out.Status)
	}
	if e.Reason != "" && out.Reason != e.Reason {
		mismatch("reason", e.Reason, out.Reason)
	}
	if e.Suppress != nil && out.Suppress != *e.Suppress {
		mismatch("suppress", *e.Suppress, out.Suppress)
	}
	if e.Temperature != nil {
		switch {
		case out.Temperature == nil:
			mismatch("temperature", *e.Temperature, "none")
		case thermal.Tenths(*out.Temperature) != thermal.Tenths(*e.Temperature):
			mismatch("temperature", *e.Temperature, *out.Temperature)
		}
	}
	if e.Remaining != nil {
		switch {
		case out.Remaining == nil:
			mismatch("remaining", *e.Remaining, "none")
		case *out.Remaining != *e.Remaining:
			mismatch("remaining", *e.Remaining, *out.Remaining)
		}
	}

	if e.Band != "" || e.Descriptions != nil || e.Perished != nil {
		q := out.Query
		if q == nil {
			return append(msgs, "expected a scoop answer, got none")
		}
		if e.Band != "" && q.Band != e.Band {
			mismatch("band", e.Band, q.Band)
		}
		if e.Descriptions != nil && !slices.Equal(q.Descriptions, e.Descriptions) {
			mismatch("descriptions", e.Descriptions, q.Descriptions)
		}
		if e.Perished != nil && !slices.Equal(q.Perished, e.Perished) {
			mismatch("perished", e.Perished, q.Perished)
		}
	}

	if e.Ingredients != nil {
		if out.Container == nil {
			return append(msgs, "expected a container, got none")
		}
		var got []string
		for _, ing := range out.Container.Ingredients {
			got = append(got, ing.Key.String())
		}
		if !slices.Equal(got, e.Ingredients) {
			mismatch("ingredients", e.Ingredients, got)
		}
	}
	return msgs
}

func (e *Expect) checksOutcome() bool {
	return e.Handler != "" || e.Status != "" || e.Reason != "" || e.Suppress != nil ||
		e.Temperature != nil || e.Remaining != nil || e.Band != "" ||
		e.Descriptions != nil || e.Perished != nil || e.Ingredients != nil
}

// pickStep returns the outcome of the first step for h, or of the last
// step when h is empty.
func pickStep(res engine.Result, h engine.Handler) (brewing.Outcome, bool) {
	if h == "" {
		if len(res.Steps) == 0 {
			return brewing.Outcome{}, false
		}
		return res.Steps[len(res.Steps)-1].Outcome, true
	}
	for _, s := range res.Steps {
		if s.Handler == h {
			return s.Outcome, true
		}
	}
	return brewing.Outcome{}, false
}
