package acvi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawCohort(temperature ...float64) []ComponentSet {
	sets := make([]ComponentSet, len(temperature))
	for i, v := range temperature {
		sets[i] = ComponentSet{
			TemperatureVolatility:   v,
			PrecipitationVolatility: v,
			MoistureStress:          v,
			ExtremeEvents:           v,
		}
	}
	return sets
}

func TestNewCohortScaleEmptyCohort(t *testing.T) {
	_, err := NewCohortScale(nil)
	require.Error(t, err)
}

func TestNormalizeThreePointCohort(t *testing.T) {
	// Raw values [10,50,90]: p5=14, p95=86 under linear interpolation, so
	// the three locations normalize to exactly 0, 50 and 100.
	scale, err := NewCohortScale(rawCohort(10, 50, 90))
	require.NoError(t, err)

	anchors := scale.Scales[TemperatureVolatility]
	assert.InDelta(t, 14.0, anchors.P5, 1e-12)
	assert.InDelta(t, 86.0, anchors.P95, 1e-12)
	assert.False(t, anchors.Degenerate)

	want := []float64{0, 50, 100}
	for i, raw := range rawCohort(10, 50, 90) {
		normalized := scale.Normalize(raw)
		for _, c := range Components() {
			assert.InDelta(t, want[i], normalized.Value(c), 1e-9)
		}
	}
}

func TestNormalizeDegenerateComponent(t *testing.T) {
	scale, err := NewCohortScale(rawCohort(0, 0, 0))
	require.NoError(t, err)

	for _, c := range Components() {
		assert.True(t, scale.Scales[c].Degenerate)
	}
	normalized := scale.Normalize(ComponentSet{})
	for _, c := range Components() {
		assert.Equal(t, 50.0, normalized.Value(c))
	}
}

func TestNormalizeBounds(t *testing.T) {
	scale, err := NewCohortScale(rawCohort(3, 7, 12, 25, 40, 80, 150))
	require.NoError(t, err)

	// Values far outside the anchors clip to the scale bounds.
	low := scale.Normalize(ComponentSet{TemperatureVolatility: -1000})
	high := scale.Normalize(ComponentSet{TemperatureVolatility: 1e6})
	assert.Equal(t, 0.0, low.TemperatureVolatility)
	assert.Equal(t, 100.0, high.TemperatureVolatility)

	for _, raw := range rawCohort(3, 7, 12, 25, 40, 80, 150) {
		normalized := scale.Normalize(raw)
		for _, c := range Components() {
			assert.GreaterOrEqual(t, normalized.Value(c), 0.0)
			assert.LessOrEqual(t, normalized.Value(c), 100.0)
		}
	}
}
