package brewing

import (
	"context"
	"time"

	"github.com/roach88/cauldron/internal/brew"
)

// Transfer moves the brew at pos into a portable container. The brew is
// destroyed and the station emptied. A brew with no ingredients transfers as
// plain water (a container with no ingredients).
//
// The station is emptied before the brew's frame is removed; if emptying
// fails the brew is left in place. When bucket is non-nil one empty
// container is taken from it, after the transfer has been persisted. An
// empty bucket stack is Ignored.
func (h *Handlers) Transfer(ctx context.Context, pos brew.Position, bucket Stack, now time.Time) (Outcome, error) {
	if bucket != nil && bucket.Amount() <= 0 {
		return ignored(""), nil
	}

	var c brew.Container
	rec, err := h.stations.Take(ctx, pos, func(rec *brew.Record) error {
		c = rec.Transfer(now)
		return h.world.EmptyStation(ctx, pos)
	})
	if err != nil {
		return Outcome{}, err
	}
	if rec == nil {
		return ignored(brew.CodeNoActiveBrew), nil
	}

	h.logger.Info().
		Str("station", pos.String()).
		Int("ingredients", len(c.Ingredients)).
		Float64("temperature", c.Temperature).
		Bool("plain", c.Plain()).
		Msg("Brew transferred")

	out := applied().withTemperature(c.Temperature)
	out.Container = &c
	if bucket != nil {
		remaining := bucket.Amount() - 1
		bucket.SetAmount(remaining)
		out.Remaining = &remaining
	}
	return out, nil
}
