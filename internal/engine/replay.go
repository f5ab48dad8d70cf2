package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Report summarizes a replay.
type Report struct {
	Events     int
	Mismatches []*RuntimeError
}

// OK reports whether every recorded outcome was reproduced.
func (r Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay re-processes journaled events through e, in order, and compares
// each result with the recorded one.
//
// Events carry their own time, so a journal replayed into an engine over a
// fresh world reproduces its results exactly. e should not journal.
func Replay(ctx context.Context, e *Engine, entries []Entry) (Report, error) {
	var report Report
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var ev Event
		if err := json.Unmarshal(entry.Event, &ev); err != nil {
			return report, fmt.Errorf("decode journal seq %d: %w", entry.Seq, err)
		}

		// Processing errors are part of the recorded result.
		res, _ := e.Process(ctx, ev)
		got, err := res.Canonical()
		if err != nil {
			return report, fmt.Errorf("encode replayed seq %d: %w", entry.Seq, err)
		}

		report.Events++
		if !bytes.Equal(got, entry.Result) {
			report.Mismatches = append(report.Mismatches,
				NewReplayMismatchError(entry.Seq, ev, string(entry.Result), string(got)))
		}
	}
	return report, nil
}
