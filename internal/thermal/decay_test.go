package thermal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecay_MatchesClosedForm(t *testing.T) {
	exact := 100 + (20-100)*math.Exp(-0.035*60)
	want := math.Floor(exact*10+0.5) / 10

	got := Decay(20.0, 100.0, 60, -0.035)

	assert.Equal(t, want, got)
	assert.Equal(t, 90.2, got)
}

func TestDecay_Idempotent(t *testing.T) {
	first := Decay(20.0, 100.0, 60, -0.035)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Decay(20.0, 100.0, 60, -0.035))
	}
}

func TestDecay_ZeroElapsedReturnsInitial(t *testing.T) {
	assert.Equal(t, 20.0, Decay(20.0, 100.0, 0, WaterRate))
	assert.Equal(t, 73.4, Decay(73.4, 20.0, 0, WaterRate))
}

func TestDecay_NegativeElapsedClampsToZero(t *testing.T) {
	assert.Equal(t, 50.0, Decay(50.0, 100.0, -3600, WaterRate))
}

func TestDecay_LargeElapsedConvergesToTarget(t *testing.T) {
	tests := []struct {
		name    string
		elapsed float64
	}{
		{"one day", 86400},
		{"one year", 365 * 86400},
		{"max float", math.MaxFloat64},
		{"infinity", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Hot, Decay(20.0, Hot, tt.elapsed, WaterRate))
			assert.Equal(t, Ambient, Decay(95.0, Ambient, tt.elapsed, WaterRate))
		})
	}
}

func TestDecay_NaNElapsedTreatedAsZero(t *testing.T) {
	assert.Equal(t, 42.0, Decay(42.0, Hot, math.NaN(), WaterRate))
}

func TestRound_HalfUp(t *testing.T) {
	assert.Equal(t, 0.1, Round(0.05))
	assert.Equal(t, 32.0, Round(31.96))
	assert.Equal(t, 32.0, Round(32.04))
	assert.Equal(t, -2.0, Round(-2.04))
}

func TestTenths_RoundTrip(t *testing.T) {
	for _, v := range []float64{0, 20.0, 90.2, 99.9, 100.0, 31.7} {
		assert.Equal(t, v, FromTenths(Tenths(v)), "value %v", v)
	}
	assert.Equal(t, int64(902), Tenths(90.2))
}
