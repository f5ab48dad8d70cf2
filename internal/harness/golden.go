package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cauldron/internal/codec"
)

// Snapshot renders the journal of a run as canonical JSON:
//
//	{"scenario":name,"trace":[{"event":...,"result":...,"seq":n},...]}
//
// Event and result are the journaled canonical documents, so a snapshot is
// byte-identical across runs and machines.
func Snapshot(name string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, res := range result.Trace {
		trace[i] = res.Document()
	}
	data, err := codec.MarshalCanonical(map[string]any{
		"scenario": name,
		"trace":    trace,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", name, err)
	}
	return data, nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario could not run or did not pass.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return err
	}
	if !result.Pass {
		return fmt.Errorf("scenario %s failed: %v", scenario.Name, result.Errors)
	}
	return nil
}

// AssertGolden compares the snapshot of an existing result against a golden
// file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
