package thermal

import "time"

// Snapshot records the last heat-source transition of a station.
//
// Temperature is the derived temperature at Since, not a live reading.
// The live reading is always At(now).
type Snapshot struct {
	Active      bool
	Since       time.Time
	Temperature float64
}

// Start returns the snapshot of a freshly created brew: heated, at ambient.
func Start(now time.Time) Snapshot {
	return Snapshot{Active: true, Since: now, Temperature: Ambient}
}

// Target is the temperature the contents are currently approaching.
func (s Snapshot) Target() float64 {
	if s.Active {
		return Hot
	}
	return Ambient
}

// At derives the temperature at now.
func (s Snapshot) At(now time.Time) float64 {
	return WaterTemperature(s.Temperature, s.Target(), now.Sub(s.Since).Seconds())
}

// Rebaseline returns the snapshot for a transition to active at now.
//
// The new baseline temperature is the derived temperature at now, which keeps
// the curve continuous across the transition. Rebaseline is pure; callers
// decide whether now is acceptable (see Stale).
func (s Snapshot) Rebaseline(active bool, now time.Time) Snapshot {
	return Snapshot{
		Active:      active,
		Since:       now,
		Temperature: s.At(now),
	}
}

// Stale reports whether now precedes the snapshot's Since. Accepting such a
// transition would move Since backwards.
func (s Snapshot) Stale(now time.Time) bool {
	return now.Before(s.Since)
}

// Band is a coarse, language-free description of a temperature.
type Band string

const (
	BandLukewarm Band = "lukewarm"
	BandWarm     Band = "warm"
	BandHot      Band = "hot"
	BandBoiling  Band = "boiling"
)

// BandOf classifies a temperature.
//
//	t < 25        lukewarm
//	25 <= t < 41  warm
//	41 <= t < 96  hot
//	t >= 96       boiling
func BandOf(t float64) Band {
	switch {
	case t < 25:
		return BandLukewarm
	case t < 41:
		return BandWarm
	case t < 96:
		return BandHot
	default:
		return BandBoiling
	}
}
