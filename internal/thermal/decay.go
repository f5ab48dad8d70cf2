// Package thermal implements the station temperature model.
//
// Temperature is never integrated tick by tick. A station stores only the
// last point at which its heat source changed (a Snapshot) and the current
// temperature is derived on demand from Newton's law of cooling:
//
//	T(t) = target + (initial - target) * e^(rate * t)
//
// Because the curve is closed-form, evaluating it after one second or one
// week costs the same and yields the same answer a per-tick loop would
// converge to.
package thermal

import "math"

const (
	// Hot is the temperature contents approach while a heat source is active.
	Hot = 100.0

	// Ambient is the temperature contents approach without a heat source.
	Ambient = 20.0

	// WaterRate is the decay constant of the water curve, per second.
	WaterRate = -0.035
)

// Decay evaluates the exponential approach from initial toward target after
// elapsedSeconds, rounded to one decimal place.
//
// rate must be negative for the curve to converge. Negative elapsed time is
// treated as zero so a clock that stepped backwards never extrapolates away
// from the target. For large elapsed values e^(rate*t) underflows to zero and
// the result is exactly target.
func Decay(initial, target, elapsedSeconds, rate float64) float64 {
	if elapsedSeconds < 0 || math.IsNaN(elapsedSeconds) {
		elapsedSeconds = 0
	}
	return Round(target + (initial-target)*math.Exp(rate*elapsedSeconds))
}

// WaterTemperature is Decay with the water rate constant.
func WaterTemperature(initial, target, elapsedSeconds float64) float64 {
	return Decay(initial, target, elapsedSeconds, WaterRate)
}

// Round rounds to one decimal place, halves rounding up (toward +Inf).
func Round(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// Tenths converts a one-decimal temperature to an integer count of tenths.
// Used wherever temperatures cross a float-free boundary (canonical JSON).
func Tenths(v float64) int64 {
	return int64(math.Floor(v*10 + 0.5))
}

// FromTenths is the inverse of Tenths.
func FromTenths(n int64) float64 {
	return float64(n) / 10
}
