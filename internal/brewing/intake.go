package brewing

import (
	"context"
	"time"

	"github.com/roach88/cauldron/internal/brew"
)

// AddIngredient takes one item from stack into the brew at pos.
//
// Checks run in order: a brew must exist (else Ignored), the item must be an
// ingredient (else Rejected), and the brew must have room (else Rejected).
// The stack is decremented only after the brew has been persisted.
func (h *Handlers) AddIngredient(ctx context.Context, pos brew.Position, stack Stack, now time.Time) (Outcome, error) {
	if stack.Amount() <= 0 {
		return ignored(""), nil
	}
	key := stack.Key()

	var added brew.Ingredient
	rec, err := h.stations.Update(ctx, pos, func(rec *brew.Record) error {
		props, ok := h.catalog.Ingredient(key)
		if !ok {
			return brew.NewNotAnIngredientError(key.String())
		}
		ing, err := rec.Append(key, now)
		if err != nil {
			return err
		}
		if props.Colored() {
			rec.Recolor(h.catalog)
		}
		added = ing
		return nil
	})

	switch {
	case err == nil:
	case brew.IsNoActiveBrew(err):
		return ignored(brew.CodeNoActiveBrew), nil
	case brew.IsNotAnIngredient(err):
		return rejected(brew.CodeNotAnIngredient), nil
	case brew.IsCapacityExceeded(err):
		h.logger.Debug().Str("station", pos.String()).Msg("Container full")
		return rejected(brew.CodeCapacityExceeded), nil
	default:
		return Outcome{}, err
	}

	remaining := stack.Amount() - 1
	stack.SetAmount(remaining)

	h.logger.Debug().
		Str("station", pos.String()).
		Str("item", key.String()).
		Int("count", len(rec.Ingredients)).
		Float64("temperature", added.Temperature).
		Msg("Ingredient added")

	out := applied().withTemperature(added.Temperature)
	out.Remaining = &remaining
	return out, nil
}
