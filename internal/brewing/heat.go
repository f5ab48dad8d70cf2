package brewing

import (
	"context"
	"errors"
	"time"

	"github.com/roach88/cauldron/internal/brew"
)

var errHeatUnchanged = errors.New("heat unchanged")

// HeatChanged handles a possible change of the heat source beneath pos.
//
// The temperature curve is re-baselined only on real transitions, so the
// derived temperature is continuous across them. With no brew, a ready and
// heated station starts one.
func (h *Handlers) HeatChanged(ctx context.Context, pos brew.Position, now time.Time) (Outcome, error) {
	heated, err := h.world.HasValidHeatSource(ctx, pos)
	if err != nil {
		return Outcome{}, err
	}

	rec, err := h.stations.Update(ctx, pos, func(rec *brew.Record) error {
		changed, err := rec.SetHeat(heated, now)
		if err != nil {
			return err
		}
		if !changed {
			return errHeatUnchanged
		}
		return nil
	})

	switch {
	case err == nil:
		h.logger.Debug().
			Str("station", pos.String()).
			Bool("heated", heated).
			Float64("temperature", rec.Heat.Temperature).
			Msg("Heat source changed")
		return applied().withTemperature(rec.Heat.Temperature), nil

	case errors.Is(err, errHeatUnchanged):
		return ignored(""), nil

	case brew.IsStaleHeatSnapshot(err):
		h.logger.Error().
			Err(err).
			Str("station", pos.String()).
			Msg("Stale heat transition refused")
		h.metrics.Anomaly(string(brew.CodeStaleHeatSnapshot))
		return rejected(brew.CodeStaleHeatSnapshot), nil

	case brew.IsNoActiveBrew(err):
		return h.startIfReady(ctx, pos, heated, now)

	default:
		return Outcome{}, err
	}
}

func (h *Handlers) startIfReady(ctx context.Context, pos brew.Position, heated bool, now time.Time) (Outcome, error) {
	if !heated {
		return ignored(brew.CodeNoActiveBrew), nil
	}
	ready, err := h.world.IsStationReady(ctx, pos)
	if err != nil {
		return Outcome{}, err
	}
	if !ready {
		return ignored(brew.CodeNoActiveBrew), nil
	}

	rec, created, err := h.stations.Create(ctx, pos, now)
	if err != nil {
		return Outcome{}, err
	}
	if !created {
		return ignored(""), nil
	}
	h.logger.Info().Str("station", pos.String()).Msg("Brew started by heat")
	return applied().withTemperature(rec.Temperature(now)), nil
}
