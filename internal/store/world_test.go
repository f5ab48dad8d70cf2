package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/world"
)

var origin = brew.Position{World: "overworld", X: 1, Y: 64, Z: -2}

func TestBlocks_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	b, err := s.Block(ctx, origin)
	require.NoError(t, err)
	assert.Equal(t, world.Air, b, "unset positions are air")

	cauldron := world.Block{Kind: world.KindCauldron, Level: 2}
	require.NoError(t, s.SetBlock(ctx, origin, cauldron))
	b, err = s.Block(ctx, origin)
	require.NoError(t, err)
	assert.Equal(t, cauldron, b)

	campfire := world.Block{Kind: world.KindCampfire, Lit: true}
	require.NoError(t, s.SetBlock(ctx, origin, campfire))
	b, err = s.Block(ctx, origin)
	require.NoError(t, err)
	assert.Equal(t, campfire, b)

	require.NoError(t, s.SetBlock(ctx, origin, world.Air))
	b, err = s.Block(ctx, origin)
	require.NoError(t, err)
	assert.Equal(t, world.Air, b)

	other := origin
	other.World = "nether"
	b, err = s.Block(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, world.Air, b, "worlds are separate")
}

func TestPayloads(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	anchor := origin.Up()

	require.NoError(t, s.InsertPayload(ctx, "b", anchor, []byte(`{"n":1}`)))
	require.NoError(t, s.InsertPayload(ctx, "a", anchor, []byte(`{"n":2}`)))
	require.NoError(t, s.InsertPayload(ctx, "c", origin, []byte(`{}`)))
	require.NoError(t, s.InsertPayload(ctx, "b", anchor, []byte(`ignored`)))

	handles, err := s.Anchored(ctx, anchor)
	require.NoError(t, err)
	assert.Equal(t, []world.Handle{"b", "a"}, handles, "creation order, not handle order")

	data, err := s.Payload(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, `{"n":1}`, string(data))

	require.NoError(t, s.UpdatePayload(ctx, "b", []byte(`{"n":3}`)))
	data, err = s.Payload(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, `{"n":3}`, string(data))

	assert.ErrorIs(t, s.UpdatePayload(ctx, "zzz", nil), world.ErrFrameNotFound)
	_, err = s.Payload(ctx, "zzz")
	assert.ErrorIs(t, err, world.ErrFrameNotFound)

	require.NoError(t, s.DeletePayload(ctx, "b"))
	require.NoError(t, s.DeletePayload(ctx, "b"))
	all, err := s.Handles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []world.Handle{"a", "c"}, all)
}

func TestFrames_OverStore(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	frames := world.NewFrames(s, world.NewSequentialHandles("frame"))

	rec := brew.New(origin, epoch)
	h, err := frames.Spawn(ctx, origin.Up(), rec)
	require.NoError(t, err)

	got, err := frames.ReadBrew(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}
