package world

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Handle identifies one detached frame.
type Handle string

// HandleGenerator mints handles for newly spawned frames.
type HandleGenerator interface {
	Generate() Handle
}

// UUIDv7Handles generates time-sortable UUIDv7 handles.
//
// UUIDv7 embeds a timestamp in the most significant bits, so handles sort by
// spawn time in the store and in traces.
//
// Thread-safety: UUIDv7Handles is stateless and safe for concurrent use.
type UUIDv7Handles struct{}

// Generate creates a new UUIDv7 handle.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Handles) Generate() Handle {
	return Handle(uuid.Must(uuid.NewV7()).String())
}

// SequentialHandles generates "<prefix>-1", "<prefix>-2", ... for
// deterministic traces.
//
// Thread-safety: SequentialHandles is safe for concurrent use via internal mutex.
type SequentialHandles struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialHandles creates a generator. An empty prefix means "frame".
func NewSequentialHandles(prefix string) *SequentialHandles {
	if prefix == "" {
		prefix = "frame"
	}
	return &SequentialHandles{prefix: prefix}
}

// Generate returns the next handle in sequence.
func (g *SequentialHandles) Generate() Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return Handle(fmt.Sprintf("%s-%d", g.prefix, g.n))
}
