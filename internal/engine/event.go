package engine

import (
	"fmt"
	"time"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/catalog"
	"github.com/roach88/cauldron/internal/world"
)

// Kind distinguishes world events.
type Kind string

const (
	// KindPlace sets the block at Pos to Block.
	KindPlace Kind = "place"
	// KindBreak sets the block at Pos to air.
	KindBreak Kind = "break"
	// KindFill changes the fill level of the cauldron at Pos.
	KindFill Kind = "fill"
	// KindAdd drops one item from a stack of Amount into the cauldron at Pos.
	KindAdd Kind = "add"
	// KindScoop asks what the cauldron at Pos holds.
	KindScoop Kind = "scoop"
	// KindTransfer bottles the brew at Pos.
	KindTransfer Kind = "transfer"
)

// Valid reports whether k is a known event kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPlace, KindBreak, KindFill, KindAdd, KindScoop, KindTransfer:
		return true
	}
	return false
}

// Event is one world event. JSON and YAML field names match the journal and
// scenario formats.
type Event struct {
	Kind Kind          `json:"kind" yaml:"kind"`
	At   int64         `json:"at" yaml:"at"` // unix milliseconds
	Pos  brew.Position `json:"pos" yaml:"pos"`

	Block   *world.Block `json:"block,omitempty" yaml:"block,omitempty"`
	Level   int          `json:"level,omitempty" yaml:"level,omitempty"`
	Item    string       `json:"item,omitempty" yaml:"item,omitempty"`
	Variant *int         `json:"variant,omitempty" yaml:"variant,omitempty"`
	Amount  int          `json:"amount,omitempty" yaml:"amount,omitempty"`
}

// Time returns At as a UTC time.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.At).UTC()
}

// Key returns the catalog key of the item an add event carries.
func (e Event) Key() catalog.Key {
	k := catalog.Key{Identifier: e.Item}
	if e.Variant != nil {
		k.Variant = catalog.Tagged(*e.Variant)
	}
	return k
}

// Validate checks that the event carries what its kind needs.
func (e Event) Validate() error {
	switch e.Kind {
	case KindPlace:
		if e.Block == nil {
			return NewInvalidEventError(e, "place needs a block")
		}
		if _, err := world.ParseKind(string(e.Block.Kind)); err != nil {
			return NewInvalidEventError(e, err.Error())
		}
		if e.Block.Level < 0 || e.Block.Level > world.MaxLevel {
			return NewInvalidEventError(e, fmt.Sprintf("level %d out of range", e.Block.Level))
		}
	case KindFill:
		if e.Level < 0 || e.Level > world.MaxLevel {
			return NewInvalidEventError(e, fmt.Sprintf("level %d out of range", e.Level))
		}
	case KindAdd:
		if e.Item == "" {
			return NewInvalidEventError(e, "add needs an item")
		}
		if e.Amount < 0 {
			return NewInvalidEventError(e, "negative amount")
		}
	case KindTransfer:
		if e.Amount < 0 {
			return NewInvalidEventError(e, "negative amount")
		}
	case KindBreak, KindScoop:
	default:
		return NewInvalidEventError(e, fmt.Sprintf("unknown kind %q", e.Kind))
	}
	return nil
}

// eventStack is the item stack an add or transfer event describes.
type eventStack struct {
	key    catalog.Key
	amount int
}

func (s *eventStack) Key() catalog.Key { return s.key }
func (s *eventStack) Amount() int      { return s.amount }
func (s *eventStack) SetAmount(n int)  { s.amount = n }
