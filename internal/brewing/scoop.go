package brewing

import (
	"context"
	"time"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/thermal"
)

// Scoop describes the brew at pos without changing it.
func (h *Handlers) Scoop(ctx context.Context, pos brew.Position, now time.Time) (Outcome, error) {
	rec, _, err := h.stations.Find(ctx, pos)
	if err != nil {
		return Outcome{}, err
	}
	if rec == nil {
		return ignored(brew.CodeNoActiveBrew), nil
	}

	temp := rec.Temperature(now)
	q := &Query{
		Band:        thermal.BandOf(temp),
		Temperature: temp,
	}

	seen := make(map[string]bool)
	seenPerished := make(map[string]bool)
	for _, ing := range rec.Ingredients {
		props, ok := h.catalog.Ingredient(ing.Key)
		if !ok {
			// The catalog may have changed since the ingredient went in.
			continue
		}
		if !seen[props.Description] {
			seen[props.Description] = true
			q.Descriptions = append(q.Descriptions, props.Description)
		}
		if !props.Withstands(temp) && !seenPerished[props.Description] {
			seenPerished[props.Description] = true
			q.Perished = append(q.Perished, props.Description)
		}
	}

	out := applied().withTemperature(temp)
	out.Query = q
	return out, nil
}
