package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/catalog"
	"github.com/roach88/cauldron/internal/thermal"
)

// ErrNotBrew is returned when a payload does not hold the requested kind.
var ErrNotBrew = errors.New("payload does not hold a brew")

type wireIngredient struct {
	Item       string `json:"item"`
	Variant    *int   `json:"variant,omitempty"`
	AddedAt    int64  `json:"added_at"`
	TempTenths int64  `json:"temp_tenths"`
}

type wireHeat struct {
	Active     bool  `json:"active"`
	Since      int64 `json:"since"`
	TempTenths int64 `json:"temp_tenths"`
}

type wireBrew struct {
	Station     brew.Position    `json:"station"`
	CreatedAt   int64            `json:"created_at"`
	Heat        wireHeat         `json:"heat"`
	Ingredients []wireIngredient `json:"ingredients"`
	Color       string           `json:"color"`
}

type wireContainer struct {
	Ingredients   []wireIngredient `json:"ingredients"`
	BrewCreatedAt int64            `json:"brew_created_at"`
	TransferredAt int64            `json:"transferred_at"`
	TempTenths    int64            `json:"temp_tenths"`
	Color         string           `json:"color"`
}

type envelope struct {
	Brew      *wireBrew      `json:"brew,omitempty"`
	Container *wireContainer `json:"container,omitempty"`
}

// EncodeBrew encodes a brew record.
func EncodeBrew(r *brew.Record) ([]byte, error) {
	return MarshalCanonical(map[string]any{
		"brew": map[string]any{
			"station":    PositionValue(r.Station),
			"created_at": r.CreatedAt.UnixMilli(),
			"heat": map[string]any{
				"active":      r.Heat.Active,
				"since":       r.Heat.Since.UnixMilli(),
				"temp_tenths": thermal.Tenths(r.Heat.Temperature),
			},
			"ingredients": ingredientValues(r.Ingredients),
			"color":       r.Color.Hex(),
		},
	})
}

// DecodeBrew decodes a brew record. Payloads holding anything else return
// ErrNotBrew.
func DecodeBrew(data []byte) (*brew.Record, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	if env.Brew == nil {
		return nil, ErrNotBrew
	}

	w := env.Brew
	color, err := catalog.ParseHex(w.Color)
	if err != nil {
		return nil, fmt.Errorf("decode brew: %w", err)
	}
	return &brew.Record{
		Station:   w.Station,
		CreatedAt: fromMillis(w.CreatedAt),
		Heat: thermal.Snapshot{
			Active:      w.Heat.Active,
			Since:       fromMillis(w.Heat.Since),
			Temperature: thermal.FromTenths(w.Heat.TempTenths),
		},
		Ingredients: ingredientsFromWire(w.Ingredients),
		Color:       color,
	}, nil
}

// EncodeContainer encodes a transferred brew.
func EncodeContainer(c brew.Container) ([]byte, error) {
	return MarshalCanonical(map[string]any{"container": ContainerValue(c)})
}

// ContainerValue is the canonical value tree of a container, for embedding
// in larger documents.
func ContainerValue(c brew.Container) map[string]any {
	return map[string]any{
		"ingredients":     ingredientValues(c.Ingredients),
		"brew_created_at": c.BrewCreatedAt.UnixMilli(),
		"transferred_at":  c.TransferredAt.UnixMilli(),
		"temp_tenths":     thermal.Tenths(c.Temperature),
		"color":           c.Color.Hex(),
	}
}

// DecodeContainer decodes a transferred brew.
func DecodeContainer(data []byte) (brew.Container, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return brew.Container{}, err
	}
	if env.Container == nil {
		return brew.Container{}, ErrNotBrew
	}

	w := env.Container
	color, err := catalog.ParseHex(w.Color)
	if err != nil {
		return brew.Container{}, fmt.Errorf("decode container: %w", err)
	}
	return brew.Container{
		Ingredients:   ingredientsFromWire(w.Ingredients),
		BrewCreatedAt: fromMillis(w.BrewCreatedAt),
		TransferredAt: fromMillis(w.TransferredAt),
		Temperature:   thermal.FromTenths(w.TempTenths),
		Color:         color,
	}, nil
}

// decodeEnvelope returns ErrNotBrew only for well-formed payloads that carry
// neither a brew nor a container. A payload that claims to be one but does
// not decode is corrupt and reported as such.
func decodeEnvelope(data []byte) (envelope, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return envelope{}, ErrNotBrew
		}
		return envelope{}, fmt.Errorf("decode payload: %w", err)
	}
	_, isBrew := top["brew"]
	_, isContainer := top["container"]
	if !isBrew && !isContainer {
		return envelope{}, ErrNotBrew
	}

	var env envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return envelope{}, fmt.Errorf("decode payload: %w", err)
	}
	return env, nil
}

// PositionValue is the canonical value tree of a position.
func PositionValue(p brew.Position) map[string]any {
	return map[string]any{
		"world": p.World,
		"x":     p.X,
		"y":     p.Y,
		"z":     p.Z,
	}
}

func ingredientValues(ings []brew.Ingredient) []any {
	out := make([]any, len(ings))
	for i, ing := range ings {
		v := map[string]any{
			"item":        ing.Key.Identifier,
			"added_at":    ing.AddedAt.UnixMilli(),
			"temp_tenths": thermal.Tenths(ing.Temperature),
		}
		// Tag 0 is a real tag and must survive the round trip.
		if ing.Key.Variant.Set {
			v["variant"] = ing.Key.Variant.Tag
		}
		out[i] = v
	}
	return out
}

func ingredientsFromWire(ws []wireIngredient) []brew.Ingredient {
	if len(ws) == 0 {
		return nil
	}
	out := make([]brew.Ingredient, len(ws))
	for i, w := range ws {
		key := catalog.Key{Identifier: w.Item}
		if w.Variant != nil {
			key.Variant = catalog.Tagged(*w.Variant)
		}
		out[i] = brew.Ingredient{
			Key:         key,
			AddedAt:     fromMillis(w.AddedAt),
			Temperature: thermal.FromTenths(w.TempTenths),
		}
	}
	return out
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
