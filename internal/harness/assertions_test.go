package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cauldron/internal/brewing"
	"github.com/roach88/cauldron/internal/engine"
)

const appleBrew = brewSetup + `
  - at: 10s
    kind: add
    pos: overworld:0,64,0
    item: APPLE
    amount: 1
`

func runAssertions(t *testing.T, assertions string) *Result {
	t.Helper()
	result, err := Run(parse(t, appleBrew+"assertions:\n"+assertions))
	require.NoError(t, err)
	return result
}

func TestAssertions_Pass(t *testing.T) {
	result := runAssertions(t, `
  - type: brew_exists
    station: overworld:0,64,0
  - type: no_brew
    station: overworld:1,64,0
  - type: ingredient_count
    station: overworld:0,64,0
    count: 1
  - type: color
    station: overworld:0,64,0
    color: "#AD5398"
  - type: block
    station: overworld:0,64,0
    block: { kind: cauldron, level: 3 }
  - type: block
    station: overworld:0,63,0
    block: { kind: campfire, lit: true }
  - type: block
    station: overworld:0,65,0
    block: { kind: air }
  - type: brew_count
    count: 1
`)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAssertions_Fail(t *testing.T) {
	tests := []struct {
		name      string
		assertion string
		want      string
	}{
		{
			name:      "brew_exists",
			assertion: "  - {type: brew_exists, station: 'overworld:1,64,0'}\n",
			want:      "Expected: brew at overworld:1,64,0",
		},
		{
			name:      "no_brew",
			assertion: "  - {type: no_brew, station: 'overworld:0,64,0'}\n",
			want:      "Actual: brew with 1 ingredients [APPLE]",
		},
		{
			name:      "ingredient_count",
			assertion: "  - {type: ingredient_count, station: 'overworld:0,64,0', count: 2}\n",
			want:      "Expected: 2 ingredients at overworld:0,64,0",
		},
		{
			name:      "ingredient_count without brew",
			assertion: "  - {type: ingredient_count, station: 'overworld:1,64,0', count: 0}\n",
			want:      "Actual: no brew",
		},
		{
			name:      "color",
			assertion: "  - {type: color, station: 'overworld:0,64,0', color: '#3c44aa'}\n",
			want:      "Actual: colour #ad5398",
		},
		{
			name:      "block",
			assertion: "  - {type: block, station: 'overworld:0,64,0', block: {kind: cauldron}}\n",
			want:      "Actual: {Kind:cauldron Level:3 Lit:false}",
		},
		{
			name:      "brew_count",
			assertion: "  - {type: brew_count, count: 2}\n",
			want:      "Actual: 1 brews",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runAssertions(t, tt.assertion)

			assert.False(t, result.Pass)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], "Assertion failed: "+strings.Fields(tt.name)[0])
			assert.Contains(t, result.Errors[0], tt.want)
		})
	}
}

func TestAssertions_BadColor(t *testing.T) {
	result := runAssertions(t, "  - {type: color, station: 'overworld:0,64,0', color: 'teal'}\n")

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `parse colour "teal"`)
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertNoBrew,
		Expected: "no brew at overworld:0,64,0",
		Actual:   "brew with 0 ingredients []",
		Trace: []engine.Result{
			{
				Seq:   1,
				Event: engine.Event{Kind: engine.KindAdd},
				Steps: []engine.Step{{
					Handler: engine.HandlerIntake,
					Outcome: brewing.Outcome{Status: brewing.Rejected, Reason: "NOT_AN_INGREDIENT"},
				}},
			},
			{Seq: 2, Event: engine.Event{Kind: engine.KindFill}, Err: "NOT_A_STATION: nope"},
		},
	}

	msg := err.Error()

	assert.Contains(t, msg, "Assertion failed: no_brew")
	assert.Contains(t, msg, "  Expected: no brew at overworld:0,64,0\n")
	assert.Contains(t, msg, "  Actual: brew with 0 ingredients []\n")
	assert.Contains(t, msg, "Full trace:")
	assert.Contains(t, msg, "[1] add :0,0,0 intake=rejected(NOT_AN_INGREDIENT)\n")
	assert.Contains(t, msg, `[2] fill :0,0,0 error="NOT_A_STATION: nope"`)
}
