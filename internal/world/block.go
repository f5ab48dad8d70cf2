// Package world models the part of the host world a station depends on:
// the blocks around it and the detached frames that carry brew payloads.
//
// Two backends are provided. Memory keeps everything in process and is
// what tests and replay use. The store package persists the same data in
// SQLite. Both satisfy Blocks and Payloads, and the Rules and Frames types
// layer station semantics on top of either.
package world

import (
	"context"
	"fmt"

	"github.com/roach88/cauldron/internal/brew"
)

// Kind is a block type.
type Kind string

const (
	KindAir        Kind = "air"
	KindCauldron   Kind = "cauldron"
	KindCampfire   Kind = "campfire"
	KindFire       Kind = "fire"
	KindNetherrack Kind = "netherrack"
	KindStone      Kind = "stone"
)

var kinds = map[Kind]bool{
	KindAir:        true,
	KindCauldron:   true,
	KindCampfire:   true,
	KindFire:       true,
	KindNetherrack: true,
	KindStone:      true,
}

// ParseKind validates a block kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !kinds[k] {
		return "", fmt.Errorf("unknown block kind %q", s)
	}
	return k, nil
}

// MaxLevel is the fill level of a full cauldron.
const MaxLevel = 3

// Block is the state of one block.
//
// Level is meaningful for cauldrons (0..MaxLevel). Lit is meaningful for
// campfires.
type Block struct {
	Kind  Kind `json:"kind"`
	Level int  `json:"level,omitempty"`
	Lit   bool `json:"lit,omitempty"`
}

// Air is the zero block.
var Air = Block{Kind: KindAir}

// Blocks reads and writes block state. Unset positions read as Air.
type Blocks interface {
	Block(ctx context.Context, pos brew.Position) (Block, error)
	SetBlock(ctx context.Context, pos brew.Position, b Block) error
}
