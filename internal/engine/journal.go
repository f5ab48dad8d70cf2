package engine

import (
	"context"
	"sync"

	"github.com/roach88/cauldron/internal/codec"
)

// Entry is one journaled event. Event and Result hold canonical JSON.
type Entry struct {
	Seq     int64
	Kind    Kind
	Station string
	At      int64
	Event   []byte
	Result  []byte
}

// Journal is the append-only log of processed events.
type Journal interface {
	Append(ctx context.Context, e Entry) error
}

// NewEntry builds the journal entry of a result.
func NewEntry(res Result) (Entry, error) {
	ev, err := codec.MarshalCanonical(EventValue(res.Event))
	if err != nil {
		return Entry{}, err
	}
	out, err := res.Canonical()
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Seq:     res.Seq,
		Kind:    res.Event.Kind,
		Station: res.Event.Pos.String(),
		At:      res.Event.At,
		Event:   ev,
		Result:  out,
	}, nil
}

// MemoryJournal keeps entries in memory.
type MemoryJournal struct {
	mu      sync.Mutex
	entries []Entry
}

// Append implements Journal.
func (j *MemoryJournal) Append(_ context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

// Entries returns a copy of the journaled entries in append order.
func (j *MemoryJournal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}
