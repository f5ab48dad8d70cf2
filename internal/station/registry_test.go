package station

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
	"github.com/roach88/cauldron/internal/catalog"
	"github.com/roach88/cauldron/internal/world"
)

var (
	epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pos   = brew.Position{World: "overworld", X: 3, Y: 70, Z: 3}
	egg   = catalog.Key{Identifier: "EGG"}
)

type anomalyCounter struct {
	mu    sync.Mutex
	codes []string
}

func (a *anomalyCounter) Observe(string, string, string, time.Duration) {}

func (a *anomalyCounter) Anomaly(code string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.codes = append(a.codes, code)
}

func setupRegistry(t *testing.T, opts ...Option) (*Registry, *world.Frames) {
	t.Helper()
	frames := world.NewFrames(world.NewMemory(), world.NewSequentialHandles(""))
	return NewRegistry(frames, opts...), frames
}

func TestFind_None(t *testing.T) {
	r, _ := setupRegistry(t)

	rec, h, err := r.Find(context.Background(), pos)

	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, h)
}

func TestCreate_ThenFind(t *testing.T) {
	ctx := context.Background()
	r, _ := setupRegistry(t)

	rec, created, err := r.Create(ctx, pos, epoch)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, brew.New(pos, epoch), rec)

	found, h, err := r.Find(ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, rec, found)
	assert.Equal(t, world.Handle("frame-1"), h)
}

func TestCreate_Idempotent(t *testing.T) {
	ctx := context.Background()
	r, frames := setupRegistry(t)

	first, created, err := r.Create(ctx, pos, epoch)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := r.Create(ctx, pos, epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)

	near, err := frames.Near(ctx, pos.Up())
	require.NoError(t, err)
	assert.Len(t, near, 1)
}

func TestFind_IgnoresForeignFrames(t *testing.T) {
	ctx := context.Background()
	r, frames := setupRegistry(t)
	_, err := frames.Hang(ctx, pos.Up(), []byte(`{"map":1}`))
	require.NoError(t, err)

	rec, _, err := r.Find(ctx, pos)
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, created, err := r.Create(ctx, pos, epoch)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestFind_DuplicateFirstWins(t *testing.T) {
	ctx := context.Background()
	counter := &anomalyCounter{}
	r, frames := setupRegistry(t, WithMetrics(counter))

	older := brew.New(pos, epoch)
	newer := brew.New(pos, epoch.Add(time.Minute))
	h1, err := frames.Spawn(ctx, pos.Up(), older)
	require.NoError(t, err)
	_, err = frames.Spawn(ctx, pos.Up(), newer)
	require.NoError(t, err)

	rec, h, err := r.Find(ctx, pos)

	require.NoError(t, err)
	assert.Equal(t, h1, h)
	assert.Equal(t, older, rec)
	assert.Equal(t, []string{string(brew.CodeDuplicateBrew)}, counter.codes)

	// The duplicate is left untouched.
	near, err := frames.Near(ctx, pos.Up())
	require.NoError(t, err)
	assert.Len(t, near, 2)
}

func TestCreate_CorruptBrewIsNotReplaced(t *testing.T) {
	ctx := context.Background()
	r, frames := setupRegistry(t)
	_, err := frames.Hang(ctx, pos.Up(), []byte(`{"brew":{"created_at":"yesterday"}}`))
	require.NoError(t, err)

	_, created, err := r.Create(ctx, pos, epoch)
	require.Error(t, err)
	assert.False(t, created)

	near, err := frames.Near(ctx, pos.Up())
	require.NoError(t, err)
	assert.Len(t, near, 1)
}

func TestDestroy(t *testing.T) {
	ctx := context.Background()
	r, _ := setupRegistry(t)
	_, _, err := r.Create(ctx, pos, epoch)
	require.NoError(t, err)

	removed, err := r.Destroy(ctx, pos)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = r.Destroy(ctx, pos)
	require.NoError(t, err)
	assert.False(t, removed)

	rec, _, err := r.Find(ctx, pos)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestDestroy_RemovesDuplicatesKeepsForeign(t *testing.T) {
	ctx := context.Background()
	r, frames := setupRegistry(t)
	_, err := frames.Spawn(ctx, pos.Up(), brew.New(pos, epoch))
	require.NoError(t, err)
	_, err = frames.Spawn(ctx, pos.Up(), brew.New(pos, epoch))
	require.NoError(t, err)
	foreign, err := frames.Hang(ctx, pos.Up(), []byte(`{"map":1}`))
	require.NoError(t, err)

	removed, err := r.Destroy(ctx, pos)
	require.NoError(t, err)
	assert.True(t, removed)

	near, err := frames.Near(ctx, pos.Up())
	require.NoError(t, err)
	assert.Equal(t, []world.Handle{foreign}, near)
}

func TestUpdate_Persists(t *testing.T) {
	ctx := context.Background()
	r, _ := setupRegistry(t)
	_, _, err := r.Create(ctx, pos, epoch)
	require.NoError(t, err)

	updated, err := r.Update(ctx, pos, func(rec *brew.Record) error {
		_, err := rec.Append(egg, epoch.Add(time.Second))
		return err
	})
	require.NoError(t, err)
	assert.Len(t, updated.Ingredients, 1)

	rec, _, err := r.Find(ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, updated, rec)
}

func TestUpdate_ErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	r, _ := setupRegistry(t)
	_, _, err := r.Create(ctx, pos, epoch)
	require.NoError(t, err)
	boom := errors.New("boom")

	_, err = r.Update(ctx, pos, func(rec *brew.Record) error {
		_, _ = rec.Append(egg, epoch)
		return boom
	})
	require.ErrorIs(t, err, boom)

	rec, _, err := r.Find(ctx, pos)
	require.NoError(t, err)
	assert.Empty(t, rec.Ingredients)
}

func TestUpdate_NoBrew(t *testing.T) {
	r, _ := setupRegistry(t)
	called := false

	_, err := r.Update(context.Background(), pos, func(*brew.Record) error {
		called = true
		return nil
	})

	assert.True(t, brew.IsNoActiveBrew(err))
	assert.False(t, called)
}

func TestTake(t *testing.T) {
	ctx := context.Background()
	r, _ := setupRegistry(t)
	created, _, err := r.Create(ctx, pos, epoch)
	require.NoError(t, err)

	var seen *brew.Record
	taken, err := r.Take(ctx, pos, func(rec *brew.Record) error {
		seen = rec
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, created, taken)
	assert.Equal(t, created, seen)

	called := false
	again, err := r.Take(ctx, pos, func(*brew.Record) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.False(t, called)
}

func TestTake_FailureKeepsBrew(t *testing.T) {
	ctx := context.Background()
	r, _ := setupRegistry(t)
	created, _, err := r.Create(ctx, pos, epoch)
	require.NoError(t, err)
	broken := errors.New("chunk unloaded")

	taken, err := r.Take(ctx, pos, func(*brew.Record) error { return broken })

	assert.ErrorIs(t, err, broken)
	assert.Nil(t, taken)
	rec, _, err := r.Find(ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, created, rec)
}

func TestTake_LeavesDuplicates(t *testing.T) {
	ctx := context.Background()
	counter := &anomalyCounter{}
	r, frames := setupRegistry(t, WithMetrics(counter))
	first, err := frames.Spawn(ctx, pos.Up(), brew.New(pos, epoch))
	require.NoError(t, err)
	second, err := frames.Spawn(ctx, pos.Up(), brew.New(pos, epoch.Add(time.Minute)))
	require.NoError(t, err)

	taken, err := r.Take(ctx, pos, func(*brew.Record) error { return nil })
	require.NoError(t, err)
	require.NotNil(t, taken)
	assert.Equal(t, epoch, taken.CreatedAt)

	near, err := frames.Near(ctx, pos.Up())
	require.NoError(t, err)
	assert.NotContains(t, near, first)
	assert.Equal(t, []world.Handle{second}, near)
	assert.Equal(t, []string{string(brew.CodeDuplicateBrew)}, counter.codes)
}

func TestConcurrentCreate_SingleBrew(t *testing.T) {
	ctx := context.Background()
	r, frames := setupRegistry(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := r.Create(ctx, pos, epoch)
			assert.NoError(t, err)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	near, err := frames.Near(ctx, pos.Up())
	require.NoError(t, err)
	assert.Len(t, near, 1)
	assert.Empty(t, r.locks, "position locks are released")
}

// mockFrames lets tests inject collaborator failures.
type mockFrames struct {
	mock.Mock
}

func (m *mockFrames) Near(ctx context.Context, anchor brew.Position) ([]world.Handle, error) {
	args := m.Called(ctx, anchor)
	hs, _ := args.Get(0).([]world.Handle)
	return hs, args.Error(1)
}

func (m *mockFrames) ReadBrew(ctx context.Context, h world.Handle) (*brew.Record, error) {
	args := m.Called(ctx, h)
	rec, _ := args.Get(0).(*brew.Record)
	return rec, args.Error(1)
}

func (m *mockFrames) WriteBrew(ctx context.Context, h world.Handle, rec *brew.Record) error {
	return m.Called(ctx, h, rec).Error(0)
}

func (m *mockFrames) Spawn(ctx context.Context, anchor brew.Position, rec *brew.Record) (world.Handle, error) {
	args := m.Called(ctx, anchor, rec)
	return args.Get(0).(world.Handle), args.Error(1)
}

func (m *mockFrames) Remove(ctx context.Context, h world.Handle) error {
	return m.Called(ctx, h).Error(0)
}

func TestUpdate_WriteFailureWrapped(t *testing.T) {
	ctx := context.Background()
	frames := &mockFrames{}
	diskFull := errors.New("disk full")
	frames.On("Near", ctx, pos.Up()).Return([]world.Handle{"h1"}, nil)
	frames.On("ReadBrew", ctx, world.Handle("h1")).Return(brew.New(pos, epoch), nil)
	frames.On("WriteBrew", ctx, world.Handle("h1"), mock.Anything).Return(diskFull)

	r := NewRegistry(frames)
	_, err := r.Update(ctx, pos, func(rec *brew.Record) error { return nil })

	assert.ErrorIs(t, err, diskFull)
	frames.AssertExpectations(t)
}

func TestFind_NearFailureWrapped(t *testing.T) {
	ctx := context.Background()
	frames := &mockFrames{}
	offline := errors.New("offline")
	frames.On("Near", ctx, pos.Up()).Return(nil, offline)

	r := NewRegistry(frames)
	_, _, err := r.Find(ctx, pos)

	assert.ErrorIs(t, err, offline)
	frames.AssertNotCalled(t, "ReadBrew", mock.Anything, mock.Anything)
}
