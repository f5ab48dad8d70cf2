package world

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/codec"
)

// ErrFrameNotFound is returned for operations on a handle that does not exist.
var ErrFrameNotFound = errors.New("frame not found")

// Payloads stores raw frame payloads keyed by handle and indexed by the
// position the frame is anchored at.
type Payloads interface {
	// Anchored returns the handles anchored at pos, oldest first.
	Anchored(ctx context.Context, pos brew.Position) ([]Handle, error)
	// Payload returns ErrFrameNotFound for unknown handles.
	Payload(ctx context.Context, h Handle) ([]byte, error)
	InsertPayload(ctx context.Context, h Handle, anchor brew.Position, data []byte) error
	// UpdatePayload returns ErrFrameNotFound for unknown handles.
	UpdatePayload(ctx context.Context, h Handle, data []byte) error
	// DeletePayload is idempotent.
	DeletePayload(ctx context.Context, h Handle) error
	// Handles returns every handle, oldest first.
	Handles(ctx context.Context) ([]Handle, error)
}

// Frames carries brew records in detached frames, encoding them with the
// canonical codec.
type Frames struct {
	payloads Payloads
	handles  HandleGenerator
}

// NewFrames creates Frames over payloads.
func NewFrames(payloads Payloads, handles HandleGenerator) *Frames {
	return &Frames{payloads: payloads, handles: handles}
}

// Near returns the frames anchored at anchor, oldest first.
func (f *Frames) Near(ctx context.Context, anchor brew.Position) ([]Handle, error) {
	return f.payloads.Anchored(ctx, anchor)
}

// ReadBrew decodes the brew carried by h. It returns nil without error when
// the frame holds something other than a brew.
func (f *Frames) ReadBrew(ctx context.Context, h Handle) (*brew.Record, error) {
	data, err := f.payloads.Payload(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", h, err)
	}
	rec, err := codec.DecodeBrew(data)
	if errors.Is(err, codec.ErrNotBrew) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", h, err)
	}
	return rec, nil
}

// WriteBrew replaces the payload of h with rec.
func (f *Frames) WriteBrew(ctx context.Context, h Handle, rec *brew.Record) error {
	data, err := codec.EncodeBrew(rec)
	if err != nil {
		return fmt.Errorf("write frame %s: %w", h, err)
	}
	if err := f.payloads.UpdatePayload(ctx, h, data); err != nil {
		return fmt.Errorf("write frame %s: %w", h, err)
	}
	return nil
}

// Spawn creates a frame at anchor carrying rec.
func (f *Frames) Spawn(ctx context.Context, anchor brew.Position, rec *brew.Record) (Handle, error) {
	data, err := codec.EncodeBrew(rec)
	if err != nil {
		return "", fmt.Errorf("spawn frame: %w", err)
	}
	h := f.handles.Generate()
	if err := f.payloads.InsertPayload(ctx, h, anchor, data); err != nil {
		return "", fmt.Errorf("spawn frame: %w", err)
	}
	return h, nil
}

// Remove deletes h. Removing a missing frame is not an error.
func (f *Frames) Remove(ctx context.Context, h Handle) error {
	if err := f.payloads.DeletePayload(ctx, h); err != nil {
		return fmt.Errorf("remove frame %s: %w", h, err)
	}
	return nil
}

// Hang places a frame with an arbitrary payload, for frames that carry
// something other than a brew.
func (f *Frames) Hang(ctx context.Context, anchor brew.Position, data []byte) (Handle, error) {
	h := f.handles.Generate()
	if err := f.payloads.InsertPayload(ctx, h, anchor, data); err != nil {
		return "", fmt.Errorf("hang frame: %w", err)
	}
	return h, nil
}

// Found is a brew located by Brews.
type Found struct {
	Handle Handle
	Record *brew.Record
}

// Brews returns every frame that carries a brew, oldest first.
func (f *Frames) Brews(ctx context.Context) ([]Found, error) {
	handles, err := f.payloads.Handles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	var out []Found
	for _, h := range handles {
		rec, err := f.ReadBrew(ctx, h)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out = append(out, Found{Handle: h, Record: rec})
		}
	}
	return out, nil
}
