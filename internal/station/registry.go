// Package station maps station positions to their live brew.
//
// A station's brew is carried by a detached frame one block above it. The
// registry is the only component that creates, finds or destroys those frames,
// and it serializes every operation on a position behind a per-position lock.
package station

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/metrics"
	"github.com/roach88/cauldron/internal/world"
)

// Frames is the detached-representation collaborator.
type Frames interface {
	// Near returns the frames anchored at anchor, oldest first.
	Near(ctx context.Context, anchor brew.Position) ([]world.Handle, error)
	// ReadBrew returns nil without error when h does not carry a brew.
	ReadBrew(ctx context.Context, h world.Handle) (*brew.Record, error)
	WriteBrew(ctx context.Context, h world.Handle, rec *brew.Record) error
	Spawn(ctx context.Context, anchor brew.Position, rec *brew.Record) (world.Handle, error)
	Remove(ctx context.Context, h world.Handle) error
}

// Registry locates, creates and destroys the brew of each station.
//
// Thread-safety: all methods are safe for concurrent use. Operations on the
// same position are serialized; operations on different positions are not.
type Registry struct {
	frames  Frames
	logger  zerolog.Logger
	metrics metrics.Recorder

	mu    sync.Mutex
	locks map[brew.Position]*positionLock
}

type positionLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for anomalies.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMetrics sets the recorder anomalies are counted in.
func WithMetrics(m metrics.Recorder) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates a Registry over frames.
func NewRegistry(frames Frames, opts ...Option) *Registry {
	r := &Registry{
		frames:  frames,
		logger:  zerolog.Nop(),
		metrics: metrics.Nop{},
		locks:   make(map[brew.Position]*positionLock),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// lock acquires the exclusive lock for pos and returns its release func.
// Locks are reference counted and dropped from the map when unused.
func (r *Registry) lock(pos brew.Position) func() {
	r.mu.Lock()
	l, ok := r.locks[pos]
	if !ok {
		l = &positionLock{}
		r.locks[pos] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, pos)
		}
		r.mu.Unlock()
	}
}

type located struct {
	handle world.Handle
	record *brew.Record
}

// locate reads every brew anchored above pos. Caller holds the lock.
func (r *Registry) locate(ctx context.Context, pos brew.Position) ([]located, error) {
	handles, err := r.frames.Near(ctx, pos.Up())
	if err != nil {
		return nil, fmt.Errorf("locate brew at %s: %w", pos, err)
	}

	var found []located
	for _, h := range handles {
		rec, err := r.frames.ReadBrew(ctx, h)
		if err != nil {
			return nil, fmt.Errorf("locate brew at %s: %w", pos, err)
		}
		if rec != nil {
			found = append(found, located{handle: h, record: rec})
		}
	}
	return found, nil
}

// pick returns the first of found, reporting duplicates as an anomaly.
func (r *Registry) pick(pos brew.Position, found []located) *located {
	if len(found) == 0 {
		return nil
	}
	if len(found) > 1 {
		dup := brew.NewDuplicateBrewError(pos.String(), len(found))
		r.logger.Error().
			Err(dup).
			Str("station", pos.String()).
			Str("handle", string(found[0].handle)).
			Int("found", len(found)).
			Msg("Duplicate brew detected, using first")
		r.metrics.Anomaly(string(brew.CodeDuplicateBrew))
	}
	return &found[0]
}

// first locates the brews at pos and picks one. Caller holds the lock.
func (r *Registry) first(ctx context.Context, pos brew.Position) (*located, error) {
	found, err := r.locate(ctx, pos)
	if err != nil {
		return nil, err
	}
	return r.pick(pos, found), nil
}

// Find returns the live brew at pos, or nil if there is none.
func (r *Registry) Find(ctx context.Context, pos brew.Position) (*brew.Record, world.Handle, error) {
	unlock := r.lock(pos)
	defer unlock()

	l, err := r.first(ctx, pos)
	if err != nil || l == nil {
		return nil, "", err
	}
	return l.record, l.handle, nil
}

// Create starts a brew at pos. If one already exists it is returned
// unchanged and created is false.
func (r *Registry) Create(ctx context.Context, pos brew.Position, now time.Time) (rec *brew.Record, created bool, err error) {
	unlock := r.lock(pos)
	defer unlock()

	l, err := r.first(ctx, pos)
	if err != nil {
		return nil, false, err
	}
	if l != nil {
		return l.record, false, nil
	}

	rec = brew.New(pos, now)
	h, err := r.frames.Spawn(ctx, pos.Up(), rec)
	if err != nil {
		return nil, false, fmt.Errorf("create brew at %s: %w", pos, err)
	}
	r.logger.Debug().
		Str("station", pos.String()).
		Str("handle", string(h)).
		Msg("Brew created")
	return rec, true, nil
}

// Destroy removes every brew at pos. It reports whether anything was removed.
func (r *Registry) Destroy(ctx context.Context, pos brew.Position) (bool, error) {
	unlock := r.lock(pos)
	defer unlock()

	found, err := r.locate(ctx, pos)
	if err != nil {
		return false, err
	}
	if err := r.remove(ctx, pos, found); err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func (r *Registry) remove(ctx context.Context, pos brew.Position, found []located) error {
	for _, l := range found {
		if err := r.frames.Remove(ctx, l.handle); err != nil {
			return fmt.Errorf("destroy brew at %s: %w", pos, err)
		}
		r.logger.Debug().
			Str("station", pos.String()).
			Str("handle", string(l.handle)).
			Msg("Brew destroyed")
	}
	return nil
}

// Update applies fn to a copy of the brew at pos and persists the result.
// Nothing is written if fn returns an error. With no brew at pos, Update
// returns a NO_ACTIVE_BREW error without calling fn.
func (r *Registry) Update(ctx context.Context, pos brew.Position, fn func(*brew.Record) error) (*brew.Record, error) {
	unlock := r.lock(pos)
	defer unlock()

	l, err := r.first(ctx, pos)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, brew.NewNoActiveBrewError(pos.String())
	}

	rec := l.record.Clone()
	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := r.frames.WriteBrew(ctx, l.handle, rec); err != nil {
		return nil, fmt.Errorf("update brew at %s: %w", pos, err)
	}
	return rec, nil
}

// Take hands the brew at pos to fn and, if fn succeeds, removes the frame it
// was read from. Nothing is removed if fn returns an error, so fn is where
// the world side of a take belongs. Duplicates stay where they are. Take
// returns nil without calling fn if there is no brew.
func (r *Registry) Take(ctx context.Context, pos brew.Position, fn func(*brew.Record) error) (*brew.Record, error) {
	unlock := r.lock(pos)
	defer unlock()

	l, err := r.first(ctx, pos)
	if err != nil || l == nil {
		return nil, err
	}
	if err := fn(l.record.Clone()); err != nil {
		return nil, err
	}
	if err := r.remove(ctx, pos, []located{*l}); err != nil {
		return nil, err
	}
	return l.record, nil
}
