// Package brew defines the live state of one station's mixture and the
// portable snapshot it becomes when transferred out.
package brew

import (
	"time"

	"github.com/roach88/cauldron/internal/catalog"
	"github.com/roach88/cauldron/internal/thermal"
)

// MaxIngredients is the capacity of a brew.
const MaxIngredients = 18

// Ingredient is one addition to a brew. Immutable once appended.
type Ingredient struct {
	Key         catalog.Key
	AddedAt     time.Time
	Temperature float64 // brew temperature when added
}

// Record is the live simulation state of one station's brew.
//
// Temperature is never stored continuously; it is derived from Heat on every
// read. Heat.Since never moves backwards.
type Record struct {
	Station     Position
	CreatedAt   time.Time
	Heat        thermal.Snapshot
	Ingredients []Ingredient
	Color       catalog.RGB
}

// New returns a freshly created, heated brew with no ingredients.
func New(station Position, now time.Time) *Record {
	return &Record{
		Station:   station,
		CreatedAt: now,
		Heat:      thermal.Start(now),
		Color:     catalog.Water,
	}
}

// Temperature derives the brew temperature at now.
func (r *Record) Temperature(now time.Time) float64 {
	return r.Heat.At(now)
}

// Full reports whether the brew is at capacity.
func (r *Record) Full() bool {
	return len(r.Ingredients) >= MaxIngredients
}

// Append adds key at now. The record is unchanged on error.
func (r *Record) Append(key catalog.Key, now time.Time) (Ingredient, error) {
	if r.Full() {
		return Ingredient{}, NewCapacityError(r.Station.String(), len(r.Ingredients))
	}
	ing := Ingredient{
		Key:         key,
		AddedAt:     now,
		Temperature: r.Temperature(now),
	}
	r.Ingredients = append(r.Ingredients, ing)
	return ing, nil
}

// Recolor recomputes Color from the water base and every coloured
// ingredient. The result depends only on the multiset of colours.
func (r *Record) Recolor(c *catalog.Catalog) {
	var colors []catalog.RGB
	for _, ing := range r.Ingredients {
		p, ok := c.Ingredient(ing.Key)
		if !ok || !p.Colored() {
			continue
		}
		if rgb, ok := p.Color.RGB(); ok {
			colors = append(colors, rgb)
		}
	}
	r.Color = catalog.Mix(catalog.Water, colors...)
}

// SetHeat folds a heat-source transition into the snapshot.
//
// changed is false when active matches the current state. A transition dated
// before the stored snapshot is refused with STALE_HEAT_SNAPSHOT and the
// record is unchanged.
func (r *Record) SetHeat(active bool, now time.Time) (changed bool, err error) {
	if r.Heat.Active == active {
		return false, nil
	}
	if r.Heat.Stale(now) {
		return false, NewStaleHeatError(r.Station.String(), r.Heat.Since.UnixMilli(), now.UnixMilli())
	}
	r.Heat = r.Heat.Rebaseline(active, now)
	return true, nil
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := *r
	c.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	return &c
}

// Container is a brew transferred into a portable container. It carries no
// reference to the station it came from.
type Container struct {
	Ingredients   []Ingredient
	BrewCreatedAt time.Time
	TransferredAt time.Time
	Temperature   float64
	Color         catalog.RGB
}

// Plain reports whether the container holds only water.
func (c Container) Plain() bool {
	return len(c.Ingredients) == 0
}

// Transfer snapshots the brew at now. Ingredients are copied verbatim.
func (r *Record) Transfer(now time.Time) Container {
	return Container{
		Ingredients:   append([]Ingredient(nil), r.Ingredients...),
		BrewCreatedAt: r.CreatedAt,
		TransferredAt: now,
		Temperature:   r.Temperature(now),
		Color:         r.Color,
	}
}
