package brewing

import (
	"github.com/roach88/cauldron/internal/brew"
	"github.com/roach88/cauldron/internal/thermal"
)

// Status is the result class of a handled notification.
type Status string

const (
	// Applied means state changed (or, for queries, an answer was produced).
	Applied Status = "applied"
	// Rejected means the request was refused and nothing changed.
	Rejected Status = "rejected"
	// Ignored means the notification did not concern any brew.
	Ignored Status = "ignored"
)

// Outcome is what a handler tells its caller.
type Outcome struct {
	Status Status
	Reason brew.Code

	// Suppress asks the caller to cancel the world's default behaviour for
	// the notification (a level change under a live brew, for example).
	Suppress bool

	// Temperature is the derived brew temperature at the time of handling,
	// when a brew was involved.
	Temperature *float64

	// Query is set by Scoop.
	Query *Query

	// Container is set by a successful Transfer.
	Container *brew.Container

	// Remaining is the source stack size after a successful AddIngredient.
	Remaining *int
}

// Query is the answer to a scoop.
type Query struct {
	Band         thermal.Band
	Temperature  float64
	Descriptions []string // distinct, first-seen order
	Perished     []string // descriptions of ingredients the heat has destroyed
}

func applied() Outcome { return Outcome{Status: Applied} }

func ignored(reason brew.Code) Outcome { return Outcome{Status: Ignored, Reason: reason} }

func rejected(reason brew.Code) Outcome { return Outcome{Status: Rejected, Reason: reason} }

func (o Outcome) withTemperature(t float64) Outcome {
	o.Temperature = &t
	return o
}
