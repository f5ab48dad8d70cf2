package catalog

import (
	"fmt"
	"math"
	"sort"
)

// Validation error codes (E200-E209)
const (
	ErrEmptyEntry      = "E200" // identifier has neither properties nor variants
	ErrUnknownDye      = "E201" // colour is not one of the sixteen dyes
	ErrBadTempMax      = "E202" // tempMax is not a positive finite number
	ErrMixedEntry      = "E203" // identifier has both base properties and variants
	ErrVariantNoEffect = "E204" // variant has neither description nor colour
)

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a catalog against the table rules.
// Returns all errors found (does not fail-fast), sorted by field.
func Validate(c *Catalog) []ValidationError {
	var errs []ValidationError

	for id, e := range c.entries {
		hasBase := e.base != (Properties{})

		if !hasBase && len(e.variants) == 0 {
			errs = append(errs, ValidationError{
				Field:   id,
				Message: "entry has no properties and no variants",
				Code:    ErrEmptyEntry,
			})
		}

		// A tagged lookup never consults the identifier level, so properties
		// there would be unreachable for tagged items.
		if hasBase && len(e.variants) > 0 {
			errs = append(errs, ValidationError{
				Field:   id,
				Message: "entry has both identifier-level properties and variants",
				Code:    ErrMixedEntry,
			})
		}

		if hasBase {
			errs = append(errs, validateProperties(id, e.base)...)
		}

		for tag, p := range e.variants {
			field := fmt.Sprintf("%s.variants.%d", id, tag)
			if p.Description == "" && p.Color == "" {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: "variant has neither description nor colour",
					Code:    ErrVariantNoEffect,
				})
			}
			errs = append(errs, validateProperties(field, p)...)
		}
	}

	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Field != errs[j].Field {
			return errs[i].Field < errs[j].Field
		}
		return errs[i].Code < errs[j].Code
	})
	return errs
}

func validateProperties(field string, p Properties) []ValidationError {
	var errs []ValidationError

	if p.Color != "" && !p.Color.Valid() {
		errs = append(errs, ValidationError{
			Field:   field + ".color",
			Message: fmt.Sprintf("unknown dye %q", p.Color),
			Code:    ErrUnknownDye,
		})
	}

	if p.MaxTemperature != nil {
		m := *p.MaxTemperature
		if m <= 0 || math.IsInf(m, 0) || math.IsNaN(m) {
			errs = append(errs, ValidationError{
				Field:   field + ".tempMax",
				Message: fmt.Sprintf("tempMax must be a positive finite number, got %v", m),
				Code:    ErrBadTempMax,
			})
		}
	}

	return errs
}
