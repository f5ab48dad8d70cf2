package brew

import (
	"errors"
	"fmt"
	"strconv"
)

// Error represents a rejected or anomalous brew operation.
//
// Brew errors include:
//   - Validation: NOT_AN_INGREDIENT, CAPACITY_EXCEEDED, NO_ACTIVE_BREW, STATION_OCCUPIED
//   - Anomalies: DUPLICATE_BREW_DETECTED, STALE_HEAT_SNAPSHOT
//
// Validation errors become Rejected or Ignored outcomes and never mutate
// state. Anomalies are logged and counted; processing continues.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Station identifies the affected station, if any.
	Station string

	// Details contains additional context.
	Details map[string]string
}

// Code categorizes brew errors.
type Code string

const (
	// CodeNotAnIngredient indicates the item has no catalog entry or no description.
	CodeNotAnIngredient Code = "NOT_AN_INGREDIENT"

	// CodeCapacityExceeded indicates the brew already holds MaxIngredients.
	CodeCapacityExceeded Code = "CAPACITY_EXCEEDED"

	// CodeNoActiveBrew indicates there is no brew at the station.
	CodeNoActiveBrew Code = "NO_ACTIVE_BREW"

	// CodeDuplicateBrew indicates more than one brew was found for one station.
	CodeDuplicateBrew Code = "DUPLICATE_BREW_DETECTED"

	// CodeStaleHeatSnapshot indicates a heat transition older than the stored snapshot.
	CodeStaleHeatSnapshot Code = "STALE_HEAT_SNAPSHOT"

	// CodeStationOccupied indicates a level change under a live brew.
	CodeStationOccupied Code = "STATION_OCCUPIED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Station != "" {
		return fmt.Sprintf("%s: %s (station=%s)", e.Code, e.Message, e.Station)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code, so errors.Is(err, &Error{Code: c})
// works as a code test.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotAnIngredient returns true if the error is a NOT_AN_INGREDIENT error.
func IsNotAnIngredient(err error) bool { return CodeOf(err) == CodeNotAnIngredient }

// IsCapacityExceeded returns true if the error is a CAPACITY_EXCEEDED error.
func IsCapacityExceeded(err error) bool { return CodeOf(err) == CodeCapacityExceeded }

// IsNoActiveBrew returns true if the error is a NO_ACTIVE_BREW error.
func IsNoActiveBrew(err error) bool { return CodeOf(err) == CodeNoActiveBrew }

// IsDuplicateBrew returns true if the error is a DUPLICATE_BREW_DETECTED error.
func IsDuplicateBrew(err error) bool { return CodeOf(err) == CodeDuplicateBrew }

// IsStaleHeatSnapshot returns true if the error is a STALE_HEAT_SNAPSHOT error.
func IsStaleHeatSnapshot(err error) bool { return CodeOf(err) == CodeStaleHeatSnapshot }

// IsStationOccupied returns true if the error is a STATION_OCCUPIED error.
func IsStationOccupied(err error) bool { return CodeOf(err) == CodeStationOccupied }

// NewNotAnIngredientError creates an Error for an item the catalog rejects.
func NewNotAnIngredientError(item string) *Error {
	return &Error{
		Code:    CodeNotAnIngredient,
		Message: fmt.Sprintf("%s is not an ingredient", item),
		Details: map[string]string{"item": item},
	}
}

// NewCapacityError creates an Error for a full brew.
func NewCapacityError(station string, count int) *Error {
	return &Error{
		Code:    CodeCapacityExceeded,
		Message: "container full",
		Station: station,
		Details: map[string]string{
			"count": strconv.Itoa(count),
			"max":   strconv.Itoa(MaxIngredients),
		},
	}
}

// NewNoActiveBrewError creates an Error for a station without a brew.
func NewNoActiveBrewError(station string) *Error {
	return &Error{
		Code:    CodeNoActiveBrew,
		Message: "no active brew",
		Station: station,
	}
}

// NewDuplicateBrewError creates an Error for a station carrying more than one brew.
func NewDuplicateBrewError(station string, found int) *Error {
	return &Error{
		Code:    CodeDuplicateBrew,
		Message: fmt.Sprintf("%d brews found, using the first", found),
		Station: station,
		Details: map[string]string{"found": strconv.Itoa(found)},
	}
}

// NewStaleHeatError creates an Error for a heat transition older than the snapshot.
func NewStaleHeatError(station string, since, now int64) *Error {
	return &Error{
		Code:    CodeStaleHeatSnapshot,
		Message: "heat transition precedes stored snapshot",
		Station: station,
		Details: map[string]string{
			"since_ms": strconv.FormatInt(since, 10),
			"now_ms":   strconv.FormatInt(now, 10),
		},
	}
}

// NewStationOccupiedError creates an Error for a level change under a live brew.
func NewStationOccupiedError(station string) *Error {
	return &Error{
		Code:    CodeStationOccupied,
		Message: "station holds a brew",
		Station: station,
	}
}
