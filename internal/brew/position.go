package brew

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a block position in a world.
type Position struct {
	World string `json:"world" yaml:"world"`
	X     int    `json:"x" yaml:"x"`
	Y     int    `json:"y" yaml:"y"`
	Z     int    `json:"z" yaml:"z"`
}

// Up returns the position one block above.
func (p Position) Up() Position {
	p.Y++
	return p
}

// Down returns the position one block below.
func (p Position) Down() Position {
	p.Y--
	return p
}

// String formats the position as "world:x,y,z".
func (p Position) String() string {
	return fmt.Sprintf("%s:%d,%d,%d", p.World, p.X, p.Y, p.Z)
}

// ParsePosition parses the "world:x,y,z" form produced by String.
func ParsePosition(s string) (Position, error) {
	world, coords, ok := strings.Cut(s, ":")
	if !ok || world == "" {
		return Position{}, fmt.Errorf("position %q: expected world:x,y,z", s)
	}
	parts := strings.Split(coords, ",")
	if len(parts) != 3 {
		return Position{}, fmt.Errorf("position %q: expected three coordinates", s)
	}

	var xyz [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Position{}, fmt.Errorf("position %q: %w", s, err)
		}
		xyz[i] = n
	}
	return Position{World: world, X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
