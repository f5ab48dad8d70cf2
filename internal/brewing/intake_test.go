package brewing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/catalog"
	"github.com/roach88/cauldron/internal/thermal"
	"github.com/roach88/cauldron/internal/world"
)

func TestAddIngredient_Appends(t *testing.T) {
	f := started(t)
	apples := item("APPLE", 5)

	out, err := f.h.AddIngredient(f.ctx, pos, apples, at(60))

	require.NoError(t, err)
	assert.Equal(t, Applied, out.Status)
	require.NotNil(t, out.Remaining)
	assert.Equal(t, 4, *out.Remaining)
	assert.Equal(t, 4, apples.amount)
	assert.Equal(t, 90.2, *out.Temperature)

	rec := f.record(t)
	require.Len(t, rec.Ingredients, 1)
	assert.Equal(t, catalog.Key{Identifier: "APPLE"}, rec.Ingredients[0].Key)
	assert.Equal(t, at(60), rec.Ingredients[0].AddedAt)
	assert.Equal(t, 90.2, rec.Ingredients[0].Temperature)
	assert.Equal(t, catalog.RGB{R: 173, G: 83, B: 152}, rec.Color)
}

func TestAddIngredient_UncolouredKeepsColour(t *testing.T) {
	f := started(t)

	_, err := f.h.AddIngredient(f.ctx, pos, item("EGG", 1), at(1))
	require.NoError(t, err)

	assert.Equal(t, catalog.Water, f.record(t).Color)
}

func TestAddIngredient_NotAnIngredient(t *testing.T) {
	tests := []struct {
		name string
		key  catalog.Key
	}{
		{"unknown", catalog.Key{Identifier: "DIAMOND"}},
		{"base of variant item", catalog.Key{Identifier: "POISONOUS_POTATO"}},
		{"variant zero", catalog.Key{Identifier: "POISONOUS_POTATO", Variant: catalog.Tagged(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := started(t)
			s := &stack{key: tt.key, amount: 3}

			out, err := f.h.AddIngredient(f.ctx, pos, s, at(1))

			require.NoError(t, err)
			assert.Equal(t, Rejected, out.Status)
			assert.Equal(t, brew.CodeNotAnIngredient, out.Reason)
			assert.Equal(t, 3, s.amount)
			assert.Empty(t, f.record(t).Ingredients)
		})
	}
}

func TestAddIngredient_Variant(t *testing.T) {
	f := started(t)
	coffee := &stack{key: catalog.Key{Identifier: "POISONOUS_POTATO", Variant: catalog.Tagged(28)}, amount: 1}

	out, err := f.h.AddIngredient(f.ctx, pos, coffee, at(1))

	require.NoError(t, err)
	assert.Equal(t, Applied, out.Status)
	assert.Equal(t, 0, coffee.amount)
}

func TestAddIngredient_CapacityInvariant(t *testing.T) {
	f := started(t)
	sugar := item("SUGAR", 64)
	for i := 0; i < brew.MaxIngredients; i++ {
		out, err := f.h.AddIngredient(f.ctx, pos, sugar, at(i))
		require.NoError(t, err)
		require.Equal(t, Applied, out.Status, "ingredient %d", i+1)
	}
	before := f.record(t)

	out, err := f.h.AddIngredient(f.ctx, pos, sugar, at(100))

	require.NoError(t, err)
	assert.Equal(t, Rejected, out.Status)
	assert.Equal(t, brew.CodeCapacityExceeded, out.Reason)
	assert.Equal(t, 64-brew.MaxIngredients, sugar.amount)
	assert.Equal(t, before, f.record(t))
}

func TestAddIngredient_NoBrew(t *testing.T) {
	f := setup(t)
	apples := item("APPLE", 2)

	out, err := f.h.AddIngredient(f.ctx, pos, apples, epoch)

	require.NoError(t, err)
	assert.Equal(t, Ignored, out.Status)
	assert.Equal(t, brew.CodeNoActiveBrew, out.Reason)
	assert.Equal(t, 2, apples.amount)
}

func TestAddIngredient_EmptyStack(t *testing.T) {
	f := started(t)

	out, err := f.h.AddIngredient(f.ctx, pos, item("APPLE", 0), epoch)

	require.NoError(t, err)
	assert.Equal(t, Ignored, out.Status)
	assert.Empty(t, f.record(t).Ingredients)
}

func TestScoop(t *testing.T) {
	f := started(t)
	for _, id := range []string{"BEEF", "APPLE", "PORKCHOP", "NETHER_WART", "APPLE"} {
		_, err := f.h.AddIngredient(f.ctx, pos, item(id, 1), at(1))
		require.NoError(t, err)
	}
	before := f.record(t)

	out, err := f.h.Scoop(f.ctx, pos, at(1200))

	require.NoError(t, err)
	assert.Equal(t, Applied, out.Status)
	require.NotNil(t, out.Query)
	assert.Equal(t, thermal.BandBoiling, out.Query.Band)
	assert.Equal(t, []string{"meat", "fruit", "yeast"}, out.Query.Descriptions)
	assert.Equal(t, []string{"yeast"}, out.Query.Perished)
	assert.Equal(t, before, f.record(t), "scoop has no side effects")
}

func TestScoop_Bands(t *testing.T) {
	tests := []struct {
		seconds int
		want    thermal.Band
	}{
		{0, thermal.BandLukewarm},
		{5, thermal.BandWarm},
		{10, thermal.BandHot},
		{30, thermal.BandHot},
		{120, thermal.BandBoiling},
	}

	for _, tt := range tests {
		f := started(t)
		out, err := f.h.Scoop(f.ctx, pos, at(tt.seconds))
		require.NoError(t, err)
		assert.Equal(t, tt.want, out.Query.Band, "t=%d temp=%v", tt.seconds, out.Query.Temperature)
	}
}

func TestScoop_NoIngredients(t *testing.T) {
	f := started(t)

	out, err := f.h.Scoop(f.ctx, pos, at(1))

	require.NoError(t, err)
	assert.Empty(t, out.Query.Descriptions)
	assert.Empty(t, out.Query.Perished)
}

func TestScoop_NoBrew(t *testing.T) {
	f := setup(t)

	out, err := f.h.Scoop(f.ctx, pos, epoch)

	require.NoError(t, err)
	assert.Equal(t, Ignored, out.Status)
	assert.Equal(t, brew.CodeNoActiveBrew, out.Reason)
	assert.Nil(t, out.Query)
}

func TestTransfer_RoundTrip(t *testing.T) {
	f := started(t)
	for _, id := range []string{"APPLE", "EGG"} {
		_, err := f.h.AddIngredient(f.ctx, pos, item(id, 1), at(10))
		require.NoError(t, err)
	}
	rec := f.record(t)

	out, err := f.h.Transfer(f.ctx, pos, nil, at(60))

	require.NoError(t, err)
	assert.Equal(t, Applied, out.Status)
	require.NotNil(t, out.Container)
	assert.Equal(t, rec.Ingredients, out.Container.Ingredients)
	assert.Equal(t, epoch, out.Container.BrewCreatedAt)
	assert.Equal(t, at(60), out.Container.TransferredAt)
	assert.Equal(t, 90.2, out.Container.Temperature)
	assert.Equal(t, rec.Color, out.Container.Color)
	assert.False(t, out.Container.Plain())

	assert.Nil(t, f.record(t))
	b, err := f.mem.Block(f.ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Level)
}

func TestTransfer_EmptyIsPlainWater(t *testing.T) {
	f := started(t)

	out, err := f.h.Transfer(f.ctx, pos, nil, at(60))

	require.NoError(t, err)
	assert.Equal(t, Applied, out.Status)
	assert.True(t, out.Container.Plain())
	assert.Nil(t, f.record(t))

	b, err := f.mem.Block(f.ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, world.Block{Kind: world.KindCauldron, Level: 0}, b)
}

func TestTransfer_TakesOneBucket(t *testing.T) {
	f := started(t)
	buckets := item("BUCKET", 3)

	out, err := f.h.Transfer(f.ctx, pos, buckets, at(60))

	require.NoError(t, err)
	assert.Equal(t, Applied, out.Status)
	require.NotNil(t, out.Remaining)
	assert.Equal(t, 2, *out.Remaining)
	assert.Equal(t, 2, buckets.amount)
}

func TestTransfer_NoBucketsLeft(t *testing.T) {
	f := started(t)

	out, err := f.h.Transfer(f.ctx, pos, item("BUCKET", 0), at(60))

	require.NoError(t, err)
	assert.Equal(t, Ignored, out.Status)
	assert.Nil(t, out.Container)
	assert.NotNil(t, f.record(t))
}

func TestTransfer_LeavesDuplicates(t *testing.T) {
	f := started(t)
	frames := world.NewFrames(f.mem, world.NewSequentialHandles("extra"))
	_, err := frames.Spawn(f.ctx, pos.Up(), brew.New(pos, at(1)))
	require.NoError(t, err)

	out, err := f.h.Transfer(f.ctx, pos, nil, at(60))

	require.NoError(t, err)
	assert.Equal(t, Applied, out.Status)
	assert.Equal(t, epoch, out.Container.BrewCreatedAt)

	near, err := frames.Near(f.ctx, pos.Up())
	require.NoError(t, err)
	assert.Equal(t, []world.Handle{"extra-1"}, near)
}

func TestTransfer_NoBrew(t *testing.T) {
	f := setup(t)

	out, err := f.h.Transfer(f.ctx, pos, nil, epoch)

	require.NoError(t, err)
	assert.Equal(t, Ignored, out.Status)
	assert.Nil(t, out.Container)
}
