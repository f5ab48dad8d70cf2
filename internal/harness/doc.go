// Package harness runs brewing scenarios against an in-memory engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: sugar_water
//	description: "Sugar dissolves and survives the boil"
//	steps:
//	  - at: 0s
//	    kind: place
//	    pos: overworld:0,63,0
//	    block: { kind: campfire, lit: true }
//	  - at: 1s
//	    kind: place
//	    pos: overworld:0,64,0
//	    block: { kind: cauldron, level: 3 }
//	    expect: { handler: heat, status: applied, temperature: 20.0 }
//	  - at: 61s
//	    kind: add
//	    pos: overworld:0,64,0
//	    item: SUGAR
//	    amount: 2
//	    expect: { status: applied, remaining: 1 }
//	assertions:
//	  - type: ingredient_count
//	    station: overworld:0,64,0
//	    count: 1
//
// Step times are offsets from the scenario start (2024-01-01T00:00:00Z
// unless start is given). They accept Go durations ("90s", "2m30s") or a
// bare number of seconds.
//
// An expect clause checks one step of the event's result: the step for
// handler, or the last step when handler is empty. Every field is optional.
// A step without expect must process without error.
//
// # Assertion Types
//
//   - brew_exists: a brew is live at station
//   - no_brew: no brew is live at station
//   - ingredient_count: the brew at station holds count ingredients
//   - color: the brew at station has colour "#rrggbb"
//   - block: the block at station equals block
//   - brew_count: count brews are live in the world
//
// # Determinism
//
// Every run uses a fresh sandbox with sequential frame handles and event
// times fixed by the scenario, so the journal of a run is identical on
// every machine. RunWithGolden compares it against testdata/golden.
package harness
