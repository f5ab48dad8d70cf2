package engine

import (
	"github.com/roach88/cauldron/internal/brewing"
	"github.com/roach88/cauldron/internal/catalog"
	"github.com/roach88/cauldron/internal/station"
	"github.com/roach88/cauldron/internal/world"
)

// Sandbox is an engine over a fresh in-memory world, with deterministic
// frame handles. Replay and scenario runs use it.
type Sandbox struct {
	World    *world.Memory
	Frames   *world.Frames
	Stations *station.Registry
	Engine   *Engine
}

// NewSandbox builds a Sandbox. opts configure the engine.
func NewSandbox(cat *catalog.Catalog, opts ...Option) *Sandbox {
	mem := world.NewMemory()
	frames := world.NewFrames(mem, world.NewSequentialHandles("frame"))
	stations := station.NewRegistry(frames)
	handlers := brewing.New(world.NewRules(mem), stations, cat)
	return &Sandbox{
		World:    mem,
		Frames:   frames,
		Stations: stations,
		Engine:   New(mem, handlers, opts...),
	}
}
