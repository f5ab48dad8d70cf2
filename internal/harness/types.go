package harness

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/brewing"
	"github.com/roach88/cauldron/internal/engine"
	"github.com/roach88/cauldron/internal/thermal"
	"github.com/roach88/cauldron/internal/world"
)

// Scenario is a scripted sequence of world events with expectations.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Start       time.Time   `yaml:"start,omitempty"`
	Steps       []Step      `yaml:"steps"`
	Assertions  []Assertion `yaml:"assertions"`
}

// Step is one world event, timed relative to the scenario start.
type Step struct {
	At      Offset       `yaml:"at"`
	Kind    engine.Kind  `yaml:"kind"`
	Pos     Position     `yaml:"pos"`
	Block   *world.Block `yaml:"block,omitempty"`
	Level   int          `yaml:"level,omitempty"`
	Item    string       `yaml:"item,omitempty"`
	Variant *int         `yaml:"variant,omitempty"`
	Amount  int          `yaml:"amount,omitempty"`
	Expect  *Expect      `yaml:"expect,omitempty"`
}

// Event builds the engine event for the step, happening at at.
func (s Step) Event(at time.Time) engine.Event {
	return engine.Event{
		Kind:    s.Kind,
		At:      at.UnixMilli(),
		Pos:     s.Pos.Position(),
		Block:   s.Block,
		Level:   s.Level,
		Item:    s.Item,
		Variant: s.Variant,
		Amount:  s.Amount,
	}
}

// Expect describes the expected outcome of one step.
type Expect struct {
	Handler      engine.Handler `yaml:"handler,omitempty"`
	Steps        *int           `yaml:"steps,omitempty"` // number of handler calls
	Status       brewing.Status `yaml:"status,omitempty"`
	Reason       brew.Code      `yaml:"reason,omitempty"`
	Suppress     *bool          `yaml:"suppress,omitempty"`
	Temperature  *float64       `yaml:"temperature,omitempty"`
	Band         thermal.Band   `yaml:"band,omitempty"`
	Descriptions []string       `yaml:"descriptions,omitempty"`
	Perished     []string       `yaml:"perished,omitempty"`
	Remaining    *int           `yaml:"remaining,omitempty"`
	Ingredients  []string       `yaml:"ingredients,omitempty"` // container contents, by item
	Error        string         `yaml:"error,omitempty"`       // substring of the processing error
}

// Assertion types.
const (
	AssertBrewExists      = "brew_exists"
	AssertNoBrew          = "no_brew"
	AssertIngredientCount = "ingredient_count"
	AssertColor           = "color"
	AssertBlock           = "block"
	AssertBrewCount       = "brew_count"
)

// Assertion checks the world after the last step.
type Assertion struct {
	Type    string       `yaml:"type"`
	Station Position     `yaml:"station,omitempty"`
	Count   int          `yaml:"count,omitempty"`
	Color   string       `yaml:"color,omitempty"`
	Block   *world.Block `yaml:"block,omitempty"`
}

// Offset is a step time relative to the scenario start.
type Offset time.Duration

// Duration returns the offset as a time.Duration.
func (o Offset) Duration() time.Duration {
	return time.Duration(o)
}

// UnmarshalYAML accepts a Go duration string or a number of seconds.
func (o *Offset) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: offset must be a scalar", node.Line)
	}
	if secs, err := strconv.ParseFloat(node.Value, 64); err == nil {
		*o = Offset(time.Duration(secs * float64(time.Second)))
		return nil
	}
	d, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: offset %q: %w", node.Line, node.Value, err)
	}
	*o = Offset(d)
	return nil
}

// Position is a block position written as "world:x,y,z".
type Position brew.Position

// Position returns p as a brew.Position.
func (p Position) Position() brew.Position {
	return brew.Position(p)
}

// IsZero reports whether p is unset.
func (p Position) IsZero() bool {
	return p == Position{}
}

// UnmarshalYAML parses the "world:x,y,z" form.
func (p *Position) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: position must be a string", node.Line)
	}
	pos, err := brew.ParsePosition(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*p = Position(pos)
	return nil
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool

	// Trace holds the result of every step, in order.
	Trace []engine.Result

	// Entries is the journal the run produced.
	Entries []engine.Entry

	// Errors lists every failed expectation and assertion.
	Errors []string
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
