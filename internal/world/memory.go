package world

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/cauldron/internal/brew"
)

type memFrame struct {
	anchor brew.Position
	data   []byte
}

// Memory is an in-process Blocks and Payloads backend.
//
// Thread-safety: Memory is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	blocks  map[brew.Position]Block
	frames  map[Handle]memFrame
	anchors map[brew.Position][]Handle
	order   []Handle
}

// NewMemory creates an empty world.
func NewMemory() *Memory {
	return &Memory{
		blocks:  make(map[brew.Position]Block),
		frames:  make(map[Handle]memFrame),
		anchors: make(map[brew.Position][]Handle),
	}
}

// Block implements Blocks.
func (m *Memory) Block(_ context.Context, pos brew.Position) (Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.blocks[pos]; ok {
		return b, nil
	}
	return Air, nil
}

// SetBlock implements Blocks. Setting Air clears the position.
func (m *Memory) SetBlock(_ context.Context, pos brew.Position, b Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.Kind == KindAir || b.Kind == "" {
		delete(m.blocks, pos)
		return nil
	}
	m.blocks[pos] = b
	return nil
}

// Anchored implements Payloads.
func (m *Memory) Anchored(_ context.Context, pos brew.Position) ([]Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.anchors[pos]), nil
}

// Payload implements Payloads.
func (m *Memory) Payload(_ context.Context, h Handle) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.frames[h]
	if !ok {
		return nil, ErrFrameNotFound
	}
	return slices.Clone(f.data), nil
}

// InsertPayload implements Payloads.
func (m *Memory) InsertPayload(_ context.Context, h Handle, anchor brew.Position, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.frames[h]; ok {
		return nil
	}
	m.frames[h] = memFrame{anchor: anchor, data: slices.Clone(data)}
	m.anchors[anchor] = append(m.anchors[anchor], h)
	m.order = append(m.order, h)
	return nil
}

// UpdatePayload implements Payloads.
func (m *Memory) UpdatePayload(_ context.Context, h Handle, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.frames[h]
	if !ok {
		return ErrFrameNotFound
	}
	f.data = slices.Clone(data)
	m.frames[h] = f
	return nil
}

// DeletePayload implements Payloads.
func (m *Memory) DeletePayload(_ context.Context, h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.frames[h]
	if !ok {
		return nil
	}
	delete(m.frames, h)

	remaining := slices.DeleteFunc(m.anchors[f.anchor], func(x Handle) bool { return x == h })
	if len(remaining) == 0 {
		delete(m.anchors, f.anchor)
	} else {
		m.anchors[f.anchor] = remaining
	}
	m.order = slices.DeleteFunc(m.order, func(x Handle) bool { return x == h })
	return nil
}

// Handles implements Payloads.
func (m *Memory) Handles(_ context.Context) ([]Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order), nil
}
