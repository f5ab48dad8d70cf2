// Package brewing reacts to world notifications around a station.
//
// Every handler runs one read-compute-persist cycle against the station
// registry and returns an Outcome. Validation failures are outcomes, not
// errors: they mutate nothing. Go errors are reserved for collaborator I/O.
package brewing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/catalog"
	"github.com/roach88/cauldron/internal/metrics"
	"github.com/roach88/cauldron/internal/world"
)

// World answers questions about the blocks around a station.
type World interface {
	HasValidHeatSource(ctx context.Context, station brew.Position) (bool, error)
	IsStationReady(ctx context.Context, station brew.Position) (bool, error)
	EmptyStation(ctx context.Context, station brew.Position) error
}

// Stations owns the position to brew mapping.
type Stations interface {
	Find(ctx context.Context, pos brew.Position) (*brew.Record, world.Handle, error)
	Create(ctx context.Context, pos brew.Position, now time.Time) (*brew.Record, bool, error)
	Destroy(ctx context.Context, pos brew.Position) (bool, error)
	Update(ctx context.Context, pos brew.Position, fn func(*brew.Record) error) (*brew.Record, error)
	Take(ctx context.Context, pos brew.Position, fn func(*brew.Record) error) (*brew.Record, error)
}

// Stack is the item stack an ingredient is taken from, or the empty
// containers a brew is transferred into.
type Stack interface {
	Key() catalog.Key
	Amount() int
	SetAmount(n int)
}

// Handlers implements the station notification handlers.
type Handlers struct {
	world    World
	stations Stations
	catalog  *catalog.Catalog
	logger   zerolog.Logger
	metrics  metrics.Recorder
}

// Option configures Handlers.
type Option func(*Handlers)

// WithLogger sets the handler logger.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Handlers) { h.logger = l }
}

// WithMetrics sets the recorder anomalies are counted in.
func WithMetrics(m metrics.Recorder) Option {
	return func(h *Handlers) { h.metrics = m }
}

// New creates Handlers.
func New(w World, stations Stations, cat *catalog.Catalog, opts ...Option) *Handlers {
	h := &Handlers{
		world:    w,
		stations: stations,
		catalog:  cat,
		logger:   zerolog.Nop(),
		metrics:  metrics.Nop{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// StationDestroyed handles the station container being broken: its brew,
// if any, goes with it.
func (h *Handlers) StationDestroyed(ctx context.Context, pos brew.Position) (Outcome, error) {
	removed, err := h.stations.Destroy(ctx, pos)
	if err != nil {
		return Outcome{}, err
	}
	if !removed {
		return ignored(brew.CodeNoActiveBrew), nil
	}
	h.logger.Info().Str("station", pos.String()).Msg("Brew destroyed with station")
	return applied(), nil
}

// LevelChanged handles a change of the station's fill level before it takes
// effect. A live brew pins the level: the change is refused and suppressed.
// Filling to the maximum above a working heat source starts a brew.
func (h *Handlers) LevelChanged(ctx context.Context, pos brew.Position, newLevel int, now time.Time) (Outcome, error) {
	rec, _, err := h.stations.Find(ctx, pos)
	if err != nil {
		return Outcome{}, err
	}
	if rec != nil {
		out := rejected(brew.CodeStationOccupied)
		out.Suppress = true
		return out, nil
	}

	if newLevel < world.MaxLevel {
		return ignored(""), nil
	}

	heated, err := h.world.HasValidHeatSource(ctx, pos)
	if err != nil {
		return Outcome{}, err
	}
	if !heated {
		return ignored(""), nil
	}

	rec, created, err := h.stations.Create(ctx, pos, now)
	if err != nil {
		return Outcome{}, err
	}
	if !created {
		return ignored(""), nil
	}
	h.logger.Info().Str("station", pos.String()).Msg("Brew started by filling")
	return applied().withTemperature(rec.Temperature(now)), nil
}
