package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/brewing"
	"github.com/roach88/cauldron/internal/catalog"
	"github.com/roach88/cauldron/internal/station"
	"github.com/roach88/cauldron/internal/world"
)

var (
	station0 = brew.Position{World: "overworld", X: 4, Y: 64, Z: 4}
	base     = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
)

func ms(seconds int) int64 { return base + int64(seconds)*1000 }

type fixture struct {
	ctx      context.Context
	mem      *world.Memory
	registry *station.Registry
	journal  *MemoryJournal
	engine   *Engine
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	mem := world.NewMemory()
	registry := station.NewRegistry(world.NewFrames(mem, world.NewSequentialHandles("")))
	handlers := brewing.New(world.NewRules(mem), registry, cat)
	journal := &MemoryJournal{}

	return &fixture{
		ctx:      context.Background(),
		mem:      mem,
		registry: registry,
		journal:  journal,
		engine:   New(mem, handlers, append([]Option{WithJournal(journal)}, opts...)...),
	}
}

func (f *fixture) process(t *testing.T, ev Event) Result {
	t.Helper()
	res, err := f.engine.Process(f.ctx, ev)
	require.NoError(t, err)
	return res
}

func place(at int64, pos brew.Position, b world.Block) Event {
	return Event{Kind: KindPlace, At: at, Pos: pos, Block: &b}
}

func fullCauldron() world.Block {
	return world.Block{Kind: world.KindCauldron, Level: world.MaxLevel}
}

func litCampfire() world.Block {
	return world.Block{Kind: world.KindCampfire, Lit: true}
}

// lifecycle is a complete brew from placement to bottling.
func lifecycle() []Event {
	return []Event{
		place(ms(0), station0, fullCauldron()),
		place(ms(1), station0.Down(), litCampfire()),
		{Kind: KindAdd, At: ms(60), Pos: station0, Item: "APPLE", Amount: 3},
		{Kind: KindAdd, At: ms(61), Pos: station0, Item: "DIAMOND", Amount: 1},
		{Kind: KindFill, At: ms(62), Pos: station0, Level: 0},
		{Kind: KindScoop, At: ms(1201), Pos: station0},
		{Kind: KindTransfer, At: ms(1202), Pos: station0},
		{Kind: KindBreak, At: ms(1300), Pos: station0},
	}
}

func TestProcess_Lifecycle(t *testing.T) {
	f := newFixture(t)
	events := lifecycle()

	// Cauldron placed without heat: notified, nothing to start.
	res := f.process(t, events[0])
	require.Len(t, res.Steps, 1)
	assert.Equal(t, HandlerHeat, res.Steps[0].Handler)
	assert.Equal(t, brewing.Ignored, res.Steps[0].Outcome.Status)

	// Campfire lit below: the station above starts brewing.
	res = f.process(t, events[1])
	require.Len(t, res.Steps, 1)
	assert.Equal(t, station0, res.Steps[0].Station)
	assert.Equal(t, brewing.Applied, res.Steps[0].Outcome.Status)

	res = f.process(t, events[2])
	require.Len(t, res.Steps, 1)
	out := res.Steps[0].Outcome
	assert.Equal(t, brewing.Applied, out.Status)
	assert.Equal(t, 2, *out.Remaining)

	res = f.process(t, events[3])
	assert.Equal(t, brewing.Rejected, res.Steps[0].Outcome.Status)
	assert.Equal(t, brew.CodeNotAnIngredient, res.Steps[0].Outcome.Reason)

	// Emptying under a live brew is suppressed: the level stays.
	res = f.process(t, events[4])
	assert.True(t, res.Steps[0].Outcome.Suppress)
	b, err := f.mem.Block(f.ctx, station0)
	require.NoError(t, err)
	assert.Equal(t, world.MaxLevel, b.Level)

	res = f.process(t, events[5])
	require.NotNil(t, res.Steps[0].Outcome.Query)
	assert.Equal(t, []string{"fruit"}, res.Steps[0].Outcome.Query.Descriptions)

	res = f.process(t, events[6])
	require.NotNil(t, res.Steps[0].Outcome.Container)
	assert.Len(t, res.Steps[0].Outcome.Container.Ingredients, 1)
	b, err = f.mem.Block(f.ctx, station0)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Level)

	// Breaking the empty cauldron destroys nothing.
	res = f.process(t, events[7])
	require.Len(t, res.Steps, 1)
	assert.Equal(t, HandlerDestroyed, res.Steps[0].Handler)
	assert.Equal(t, brewing.Ignored, res.Steps[0].Outcome.Status)

	entries := f.journal.Entries()
	require.Len(t, entries, len(events))
	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.Seq)
	}
	assert.Equal(t, f.engine.Seq(), int64(len(events)))
}

func TestProcess_BreakingHeatedStationDestroysBrew(t *testing.T) {
	f := newFixture(t)
	f.process(t, place(ms(0), station0.Down(), litCampfire()))
	res := f.process(t, place(ms(1), station0, fullCauldron()))
	require.Equal(t, brewing.Applied, res.Steps[0].Outcome.Status)

	res = f.process(t, Event{Kind: KindBreak, At: ms(10), Pos: station0})

	require.Len(t, res.Steps, 1)
	assert.Equal(t, HandlerDestroyed, res.Steps[0].Handler)
	assert.Equal(t, brewing.Applied, res.Steps[0].Outcome.Status)
	rec, _, err := f.registry.Find(f.ctx, station0)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestProcess_NetherrackTwoBelow(t *testing.T) {
	f := newFixture(t)
	f.process(t, place(ms(0), station0, fullCauldron()))
	f.process(t, place(ms(1), station0.Down(), world.Block{Kind: world.KindFire}))

	res := f.process(t, place(ms(2), station0.Down().Down(), world.Block{Kind: world.KindNetherrack}))

	require.Len(t, res.Steps, 1)
	assert.Equal(t, station0, res.Steps[0].Station)
	assert.Equal(t, brewing.Applied, res.Steps[0].Outcome.Status)
}

func TestProcess_FillCreatesBrew(t *testing.T) {
	f := newFixture(t)
	f.process(t, place(ms(0), station0.Down(), litCampfire()))
	f.process(t, place(ms(1), station0, world.Block{Kind: world.KindCauldron, Level: 2}))

	res := f.process(t, Event{Kind: KindFill, At: ms(2), Pos: station0, Level: 3})

	assert.Equal(t, brewing.Applied, res.Steps[0].Outcome.Status)
	b, err := f.mem.Block(f.ctx, station0)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Level)
}

func TestProcess_FillWithoutCauldron(t *testing.T) {
	f := newFixture(t)

	res, err := f.engine.Process(f.ctx, Event{Kind: KindFill, At: ms(0), Pos: station0, Level: 3})

	require.Error(t, err)
	assert.True(t, IsNotAStation(err))
	assert.Contains(t, res.Err, "NOT_A_STATION")
	require.Len(t, f.journal.Entries(), 1, "failed events are journaled")
}

func TestProcess_InvalidEvents(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
	}{
		{"unknown kind", Event{Kind: "stir"}},
		{"place without block", Event{Kind: KindPlace}},
		{"place unknown block", place(0, station0, world.Block{Kind: "lava"})},
		{"fill out of range", Event{Kind: KindFill, Level: 4}},
		{"add without item", Event{Kind: KindAdd, Amount: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.engine.Process(f.ctx, tt.ev)
			assert.True(t, IsInvalidEvent(err), "got %v", err)
		})
	}
}

func TestRun_ProcessesQueueInOrder(t *testing.T) {
	var mu sync.Mutex
	var got []int64
	f := newFixture(t, WithResultHandler(func(r Result) {
		mu.Lock()
		got = append(got, r.Seq)
		mu.Unlock()
	}))

	for _, ev := range lifecycle() {
		require.True(t, f.engine.Enqueue(ev))
	}
	f.engine.Stop()

	err := f.engine.Run(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8}, got)
	assert.False(t, f.engine.Enqueue(Event{Kind: KindScoop}))
}

func TestRun_ContextCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.engine.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run did not stop on cancel")
	}
}

type mockHandlers struct {
	mock.Mock
}

func (m *mockHandlers) outcome(args mock.Arguments) (brewing.Outcome, error) {
	return args.Get(0).(brewing.Outcome), args.Error(1)
}

func (m *mockHandlers) StationDestroyed(ctx context.Context, pos brew.Position) (brewing.Outcome, error) {
	return m.outcome(m.Called(pos))
}

func (m *mockHandlers) HeatChanged(ctx context.Context, pos brew.Position, now time.Time) (brewing.Outcome, error) {
	return m.outcome(m.Called(pos, now))
}

func (m *mockHandlers) LevelChanged(ctx context.Context, pos brew.Position, level int, now time.Time) (brewing.Outcome, error) {
	return m.outcome(m.Called(pos, level, now))
}

func (m *mockHandlers) AddIngredient(ctx context.Context, pos brew.Position, stack brewing.Stack, now time.Time) (brewing.Outcome, error) {
	return m.outcome(m.Called(pos, stack.Key(), stack.Amount(), now))
}

func (m *mockHandlers) Scoop(ctx context.Context, pos brew.Position, now time.Time) (brewing.Outcome, error) {
	return m.outcome(m.Called(pos, now))
}

func (m *mockHandlers) Transfer(ctx context.Context, pos brew.Position, bucket brewing.Stack, now time.Time) (brewing.Outcome, error) {
	buckets := -1
	if bucket != nil {
		buckets = bucket.Amount()
	}
	return m.outcome(m.Called(pos, buckets, now))
}

func TestProcess_RoutesTransferBucket(t *testing.T) {
	tests := []struct {
		name   string
		amount int
		want   int // -1: no bucket stack passed
	}{
		{"untracked", 0, -1},
		{"tracked", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &mockHandlers{}
			now := time.UnixMilli(ms(9)).UTC()
			h.On("Transfer", station0, tt.want, now).Return(brewing.Outcome{Status: brewing.Applied}, nil)

			eng := New(world.NewMemory(), h)
			_, err := eng.Process(context.Background(), Event{
				Kind: KindTransfer, At: ms(9), Pos: station0, Item: "BUCKET", Amount: tt.amount,
			})

			require.NoError(t, err)
			h.AssertExpectations(t)
		})
	}
}

func TestProcess_RoutesAddWithVariantAndTime(t *testing.T) {
	h := &mockHandlers{}
	tag := 0
	now := time.UnixMilli(ms(5)).UTC()
	key := catalog.Key{Identifier: "POISONOUS_POTATO", Variant: catalog.Tagged(0)}
	h.On("AddIngredient", station0, key, 7, now).Return(brewing.Outcome{Status: brewing.Rejected, Reason: brew.CodeNotAnIngredient}, nil)

	eng := New(world.NewMemory(), h)
	res, err := eng.Process(context.Background(), Event{
		Kind: KindAdd, At: ms(5), Pos: station0, Item: "POISONOUS_POTATO", Variant: &tag, Amount: 7,
	})

	require.NoError(t, err)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, brew.CodeNotAnIngredient, res.Steps[0].Outcome.Reason)
	h.AssertExpectations(t)
}

func TestRun_LogsAndContinues(t *testing.T) {
	h := &mockHandlers{}
	broken := errors.New("disk gone")
	h.On("Scoop", station0, mock.Anything).Return(brewing.Outcome{}, broken).Once()
	h.On("Scoop", station0, mock.Anything).Return(brewing.Outcome{Status: brewing.Ignored, Reason: brew.CodeNoActiveBrew}, nil)

	var results []Result
	eng := New(world.NewMemory(), h, WithResultHandler(func(r Result) { results = append(results, r) }))
	eng.Enqueue(Event{Kind: KindScoop, At: ms(0), Pos: station0})
	eng.Enqueue(Event{Kind: KindScoop, At: ms(1), Pos: station0})
	eng.Stop()

	require.NoError(t, eng.Run(context.Background()))

	require.Len(t, results, 2)
	assert.Contains(t, results[0].Err, "disk gone")
	assert.Empty(t, results[0].Steps)
	assert.Empty(t, results[1].Err)
	assert.Len(t, results[1].Steps, 1)
}

type observation struct {
	kind, status, reason string
}

type recorder struct {
	observed []observation
}

func (r *recorder) Observe(kind, status, reason string, _ time.Duration) {
	r.observed = append(r.observed, observation{kind, status, reason})
}

func (r *recorder) Anomaly(string) {}

func TestProcess_ObservesEveryStep(t *testing.T) {
	rec := &recorder{}
	f := newFixture(t, WithMetrics(rec))

	f.process(t, place(ms(0), station0.Down(), litCampfire()))
	f.process(t, place(ms(1), station0, fullCauldron()))
	f.process(t, Event{Kind: KindAdd, At: ms(2), Pos: station0, Item: "STICK", Amount: 1})
	_, _ = f.engine.Process(f.ctx, Event{Kind: KindFill, At: ms(3), Pos: station0.Up(), Level: 1})

	assert.Equal(t, []observation{
		{"heat", "applied", ""},
		{"intake", "rejected", "NOT_AN_INGREDIENT"},
		{"fill", "error", ""},
	}, rec.observed)
}

func TestKind_Valid(t *testing.T) {
	for _, k := range []Kind{KindPlace, KindBreak, KindFill, KindAdd, KindScoop, KindTransfer} {
		assert.True(t, k.Valid(), k)
	}
	assert.False(t, Kind("explode").Valid())
	assert.False(t, Kind("").Valid())
}
