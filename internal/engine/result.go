package engine

import (
	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/brewing"
	"github.com/roach88/cauldron/internal/codec"
	"github.com/roach88/cauldron/internal/thermal"
)

// Handler names the brewing handler a step went to.
type Handler string

const (
	HandlerDestroyed Handler = "destroyed"
	HandlerHeat      Handler = "heat"
	HandlerLevel     Handler = "level"
	HandlerIntake    Handler = "intake"
	HandlerScoop     Handler = "scoop"
	HandlerTransfer  Handler = "transfer"
)

// Step is one handler call made while processing an event.
type Step struct {
	Handler Handler
	Station brew.Position
	Outcome brewing.Outcome
}

// Result is everything processing one event produced.
type Result struct {
	Seq   int64
	Event Event
	Steps []Step

	// Err is the processing error, if any. Steps taken before the error
	// are kept.
	Err string
}

// Value is the canonical value tree of the result. Seq is not part of it:
// a replayed event must produce the same value under any numbering.
func (r Result) Value() map[string]any {
	steps := make([]any, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = stepValue(s)
	}
	v := map[string]any{"steps": steps}
	if r.Err != "" {
		v["error"] = r.Err
	}
	return v
}

// Document is the result together with its event and sequence number, the
// shape streamed by `cauldron run` and recorded in scenario snapshots.
func (r Result) Document() map[string]any {
	return map[string]any{
		"seq":    r.Seq,
		"event":  EventValue(r.Event),
		"result": r.Value(),
	}
}

// Canonical returns the canonical JSON encoding of the result.
func (r Result) Canonical() ([]byte, error) {
	return codec.MarshalCanonical(r.Value())
}

func stepValue(s Step) map[string]any {
	o := s.Outcome
	v := map[string]any{
		"handler": string(s.Handler),
		"station": codec.PositionValue(s.Station),
		"status":  string(o.Status),
	}
	if o.Reason != "" {
		v["reason"] = string(o.Reason)
	}
	if o.Suppress {
		v["suppress"] = true
	}
	if o.Temperature != nil {
		v["temp_tenths"] = thermal.Tenths(*o.Temperature)
	}
	if o.Remaining != nil {
		v["remaining"] = *o.Remaining
	}
	if q := o.Query; q != nil {
		v["query"] = map[string]any{
			"band":         string(q.Band),
			"temp_tenths":  thermal.Tenths(q.Temperature),
			"descriptions": anySlice(q.Descriptions),
			"perished":     anySlice(q.Perished),
		}
	}
	if o.Container != nil {
		v["container"] = codec.ContainerValue(*o.Container)
	}
	return v
}

// EventValue is the canonical value tree of an event. It decodes back into
// an Event with encoding/json.
func EventValue(e Event) map[string]any {
	v := map[string]any{
		"kind": string(e.Kind),
		"at":   e.At,
		"pos":  codec.PositionValue(e.Pos),
	}
	if e.Block != nil {
		b := map[string]any{"kind": string(e.Block.Kind)}
		if e.Block.Level != 0 {
			b["level"] = e.Block.Level
		}
		if e.Block.Lit {
			b["lit"] = true
		}
		v["block"] = b
	}
	if e.Level != 0 {
		v["level"] = e.Level
	}
	if e.Item != "" {
		v["item"] = e.Item
	}
	if e.Variant != nil {
		v["variant"] = *e.Variant
	}
	if e.Amount != 0 {
		v["amount"] = e.Amount
	}
	return v
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
