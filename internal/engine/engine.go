package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/brewing"
	"github.com/roach88/cauldron/internal/metrics"
	"github.com/roach88/cauldron/internal/world"
)

// Handlers is the set of station notifications the engine routes to.
// Implemented by *brewing.Handlers.
type Handlers interface {
	StationDestroyed(ctx context.Context, pos brew.Position) (brewing.Outcome, error)
	HeatChanged(ctx context.Context, pos brew.Position, now time.Time) (brewing.Outcome, error)
	LevelChanged(ctx context.Context, pos brew.Position, newLevel int, now time.Time) (brewing.Outcome, error)
	AddIngredient(ctx context.Context, pos brew.Position, stack brewing.Stack, now time.Time) (brewing.Outcome, error)
	Scoop(ctx context.Context, pos brew.Position, now time.Time) (brewing.Outcome, error)
	Transfer(ctx context.Context, pos brew.Position, bucket brewing.Stack, now time.Time) (brewing.Outcome, error)
}

// Engine is the single-writer event loop.
//
// Thread-safety model:
//   - Enqueue(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Process(): for synchronous callers that do not use Run; never
//     concurrently with Run
type Engine struct {
	blocks   world.Blocks
	handlers Handlers
	journal  Journal
	clock    *Clock
	inbox    *inbox
	logger   zerolog.Logger
	metrics  metrics.Recorder
	onResult func(Result)
}

// Option configures an Engine.
type Option func(*Engine)

// WithJournal journals every processed event to j.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithClock sets the sequence clock. Use NewClock(last) to resume numbering
// after an existing journal.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the recorder handler outcomes are observed in.
func WithMetrics(m metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithResultHandler calls fn with every result Run produces.
func WithResultHandler(fn func(Result)) Option {
	return func(e *Engine) { e.onResult = fn }
}

// New creates an Engine that applies world changes to blocks and notifies
// handlers.
func New(blocks world.Blocks, handlers Handlers, opts ...Option) *Engine {
	e := &Engine{
		blocks:   blocks,
		handlers: handlers,
		clock:    NewClock(0),
		inbox:    newInbox(),
		logger:   zerolog.Nop(),
		metrics:  metrics.Nop{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enqueue submits an event for processing by the Run loop.
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(ev Event) bool {
	return e.inbox.push(ev)
}

// Seq returns the sequence number of the last processed event.
func (e *Engine) Seq() int64 {
	return e.clock.Last()
}

// Run processes pushed events until ctx is cancelled or Stop is called and
// the inbox has drained.
//
// A failing event is logged with its context and processing continues.
// Retrying would make the journal depend on timing.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info().Msg("Engine starting")

	for {
		ev, ok := e.inbox.pop()
		if ok {
			res, err := e.Process(ctx, ev)
			if err != nil {
				e.logEventError(res, err)
			}
			if e.onResult != nil {
				e.onResult(res)
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info().Msg("Engine stopping: context cancelled")
			e.inbox.close()
			return ctx.Err()

		case _, open := <-e.inbox.ready():
			// ready is closed by Stop. Drain what is left before returning.
			if !open && e.inbox.pending() == 0 {
				e.logger.Info().Msg("Engine stopping: inbox closed")
				return nil
			}
		}
	}
}

// Stop refuses further events. Run returns once the pending ones are
// processed.
func (e *Engine) Stop() {
	e.inbox.close()
}

// Process handles one event to completion and journals it.
//
// The returned Result is complete even when err is non-nil: it carries the
// steps taken before the failure and the error text.
func (e *Engine) Process(ctx context.Context, ev Event) (Result, error) {
	res := Result{Seq: e.clock.Next(), Event: ev}
	start := time.Now()

	err := ev.Validate()
	if err == nil {
		err = e.route(ctx, ev, &res)
	}
	if err != nil {
		res.Err = err.Error()
		e.metrics.Observe(string(ev.Kind), "error", "", time.Since(start))
	}

	if jerr := e.record(ctx, res); jerr != nil {
		err = errors.Join(err, jerr)
	}

	e.logger.Debug().
		Int64("seq", res.Seq).
		Str("kind", string(ev.Kind)).
		Str("station", ev.Pos.String()).
		Int("steps", len(res.Steps)).
		Dur("elapsed", time.Since(start)).
		Msg("Event processed")

	return res, err
}

func (e *Engine) record(ctx context.Context, res Result) error {
	if e.journal == nil {
		return nil
	}
	entry, err := NewEntry(res)
	if err != nil {
		return fmt.Errorf("journal seq %d: %w", res.Seq, err)
	}
	if err := e.journal.Append(ctx, entry); err != nil {
		return fmt.Errorf("journal seq %d: %w", res.Seq, err)
	}
	return nil
}

func (e *Engine) route(ctx context.Context, ev Event, res *Result) error {
	now := ev.Time()
	pos := ev.Pos

	switch ev.Kind {
	case KindPlace:
		return e.changeBlock(ctx, ev, *ev.Block, res)

	case KindBreak:
		return e.changeBlock(ctx, ev, world.Air, res)

	case KindFill:
		return e.fill(ctx, ev, res)

	case KindAdd:
		stack := &eventStack{key: ev.Key(), amount: ev.Amount}
		_, err := e.step(res, HandlerIntake, pos, func() (brewing.Outcome, error) {
			return e.handlers.AddIngredient(ctx, pos, stack, now)
		})
		return err

	case KindScoop:
		_, err := e.step(res, HandlerScoop, pos, func() (brewing.Outcome, error) {
			return e.handlers.Scoop(ctx, pos, now)
		})
		return err

	case KindTransfer:
		// Hosts that do not track the empty containers omit the amount.
		var bucket brewing.Stack
		if ev.Amount > 0 {
			bucket = &eventStack{key: ev.Key(), amount: ev.Amount}
		}
		_, err := e.step(res, HandlerTransfer, pos, func() (brewing.Outcome, error) {
			return e.handlers.Transfer(ctx, pos, bucket, now)
		})
		return err

	default:
		return NewInvalidEventError(ev, fmt.Sprintf("unknown kind %q", ev.Kind))
	}
}

// changeBlock applies a block change and notifies the stations it can
// affect: the station it removes, a station it creates, and any station
// whose heat source it might be.
func (e *Engine) changeBlock(ctx context.Context, ev Event, b world.Block, res *Result) error {
	pos := ev.Pos
	now := ev.Time()

	prev, err := e.blocks.Block(ctx, pos)
	if err != nil {
		return fmt.Errorf("read block %s: %w", pos, err)
	}
	if err := e.blocks.SetBlock(ctx, pos, b); err != nil {
		return fmt.Errorf("set block %s: %w", pos, err)
	}

	if prev.Kind == world.KindCauldron && b.Kind != world.KindCauldron {
		if _, err := e.step(res, HandlerDestroyed, pos, func() (brewing.Outcome, error) {
			return e.handlers.StationDestroyed(ctx, pos)
		}); err != nil {
			return err
		}
	}

	var stations []brew.Position
	if b.Kind == world.KindCauldron && prev.Kind != world.KindCauldron {
		stations = append(stations, pos)
	}
	stations = append(stations, pos.Up(), pos.Up().Up())

	for _, station := range stations {
		blk, err := e.blocks.Block(ctx, station)
		if err != nil {
			return fmt.Errorf("read block %s: %w", station, err)
		}
		if blk.Kind != world.KindCauldron {
			continue
		}
		if _, err := e.step(res, HandlerHeat, station, func() (brewing.Outcome, error) {
			return e.handlers.HeatChanged(ctx, station, now)
		}); err != nil {
			return err
		}
	}
	return nil
}

// fill notifies the station before its level changes and applies the new
// level unless the handler suppressed it.
func (e *Engine) fill(ctx context.Context, ev Event, res *Result) error {
	pos := ev.Pos

	b, err := e.blocks.Block(ctx, pos)
	if err != nil {
		return fmt.Errorf("read block %s: %w", pos, err)
	}
	if b.Kind != world.KindCauldron {
		return NewNotAStationError(ev, string(b.Kind))
	}

	out, err := e.step(res, HandlerLevel, pos, func() (brewing.Outcome, error) {
		return e.handlers.LevelChanged(ctx, pos, ev.Level, ev.Time())
	})
	if err != nil {
		return err
	}
	if out.Suppress {
		return nil
	}

	b.Level = ev.Level
	if err := e.blocks.SetBlock(ctx, pos, b); err != nil {
		return fmt.Errorf("set block %s: %w", pos, err)
	}
	return nil
}

// step calls one handler, records its outcome in res and observes it.
func (e *Engine) step(res *Result, h Handler, station brew.Position, fn func() (brewing.Outcome, error)) (brewing.Outcome, error) {
	start := time.Now()
	out, err := fn()
	if err != nil {
		return out, fmt.Errorf("%s at %s: %w", h, station, err)
	}
	e.metrics.Observe(string(h), string(out.Status), string(out.Reason), time.Since(start))
	res.Steps = append(res.Steps, Step{Handler: h, Station: station, Outcome: out})
	return out, nil
}

func (e *Engine) logEventError(res Result, err error) {
	ev := res.Event
	e.logger.Error().
		Err(err).
		Int64("seq", res.Seq).
		Str("kind", string(ev.Kind)).
		Str("station", ev.Pos.String()).
		Int64("at", ev.At).
		Int("steps", len(res.Steps)).
		Msg("Event processing failed")
}
