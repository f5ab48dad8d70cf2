package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an error detected while processing an event, as opposed
// to one returned by a collaborator.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Seq is the sequence number of the event, when one was assigned.
	Seq int64

	// Kind is the event kind.
	Kind Kind

	// Station is the event position.
	Station string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidEvent indicates an event that is missing data its kind needs.
	ErrCodeInvalidEvent RuntimeErrorCode = "INVALID_EVENT"

	// ErrCodeNotAStation indicates a fill event at a position that holds no cauldron.
	ErrCodeNotAStation RuntimeErrorCode = "NOT_A_STATION"

	// ErrCodeReplayMismatch indicates a journal entry whose outcome was not reproduced.
	ErrCodeReplayMismatch RuntimeErrorCode = "REPLAY_MISMATCH"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Seq != 0 {
		return fmt.Sprintf("%s: %s (seq=%d, kind=%s, station=%s)", e.Code, e.Message, e.Seq, e.Kind, e.Station)
	}
	return fmt.Sprintf("%s: %s (kind=%s, station=%s)", e.Code, e.Message, e.Kind, e.Station)
}

// IsInvalidEvent returns true if the error is an invalid event error.
// Uses errors.As to handle wrapped errors.
func IsInvalidEvent(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidEvent
	}
	return false
}

// IsNotAStation returns true if the error is a not-a-station error.
func IsNotAStation(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeNotAStation
	}
	return false
}

// IsReplayMismatch returns true if the error is a replay mismatch.
func IsReplayMismatch(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeReplayMismatch
	}
	return false
}

// NewInvalidEventError creates a RuntimeError for a malformed event.
func NewInvalidEventError(ev Event, msg string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidEvent,
		Message: msg,
		Kind:    ev.Kind,
		Station: ev.Pos.String(),
	}
}

// NewNotAStationError creates a RuntimeError for an event addressed to a
// position without a cauldron.
func NewNotAStationError(ev Event, found string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNotAStation,
		Message: fmt.Sprintf("expected a cauldron, found %s", found),
		Kind:    ev.Kind,
		Station: ev.Pos.String(),
	}
}

// NewReplayMismatchError creates a RuntimeError for a journal entry whose
// recorded outcome differs from the replayed one.
func NewReplayMismatchError(seq int64, ev Event, recorded, replayed string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeReplayMismatch,
		Message: fmt.Sprintf("recorded %s, replayed %s", recorded, replayed),
		Seq:     seq,
		Kind:    ev.Kind,
		Station: ev.Pos.String(),
	}
}
