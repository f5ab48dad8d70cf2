package world

import (
	"context"
	"fmt"

	"github.com/roach88/cauldron/internal/brew"
)

// Rules answers the station questions the brewing handlers ask, on top of
// any Blocks backend.
type Rules struct {
	blocks Blocks
}

// NewRules creates Rules over blocks.
func NewRules(blocks Blocks) *Rules {
	return &Rules{blocks: blocks}
}

// HasValidHeatSource reports whether the station has a working heat source
// directly below it: a lit campfire, or fire burning on netherrack.
func (r *Rules) HasValidHeatSource(ctx context.Context, station brew.Position) (bool, error) {
	below, err := r.blocks.Block(ctx, station.Down())
	if err != nil {
		return false, fmt.Errorf("heat source: %w", err)
	}

	switch below.Kind {
	case KindCampfire:
		return below.Lit, nil
	case KindFire:
		base, err := r.blocks.Block(ctx, station.Down().Down())
		if err != nil {
			return false, fmt.Errorf("heat source: %w", err)
		}
		return base.Kind == KindNetherrack, nil
	default:
		return false, nil
	}
}

// IsStationReady reports whether the station is a full cauldron.
func (r *Rules) IsStationReady(ctx context.Context, station brew.Position) (bool, error) {
	b, err := r.blocks.Block(ctx, station)
	if err != nil {
		return false, fmt.Errorf("station ready: %w", err)
	}
	return b.Kind == KindCauldron && b.Level >= MaxLevel, nil
}

// EmptyStation sets the station's fill level to zero. Non-cauldrons are
// left alone.
func (r *Rules) EmptyStation(ctx context.Context, station brew.Position) error {
	b, err := r.blocks.Block(ctx, station)
	if err != nil {
		return fmt.Errorf("empty station: %w", err)
	}
	if b.Kind != KindCauldron || b.Level == 0 {
		return nil
	}
	b.Level = 0
	if err := r.blocks.SetBlock(ctx, station, b); err != nil {
		return fmt.Errorf("empty station: %w", err)
	}
	return nil
}
