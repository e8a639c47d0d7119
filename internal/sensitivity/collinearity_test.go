package sensitivity

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acvicli/internal/acvi"
)

func TestMulticollinearityIndependentComponents(t *testing.T) {
	analyzer := NewAnalyzer(acvi.DefaultWeights(), 42, nil)
	cohort := spreadCohort(t)

	result := analyzer.Multicollinearity(context.Background(), cohort)
	require.Empty(t, result.Errors)

	components := acvi.Components()
	for _, ci := range components {
		assert.Equal(t, 1.0, result.Correlations[ci][ci])
		for _, cj := range components {
			assert.InDelta(t, result.Correlations[ci][cj], result.Correlations[cj][ci], 1e-12)
			assert.LessOrEqual(t, math.Abs(result.Correlations[ci][cj]), 1.0+1e-12)
		}
	}

	require.Len(t, result.VIF, 4)
	for c, vif := range result.VIF {
		assert.GreaterOrEqual(t, vif, 1.0-1e-9, "vif for %s", c)
	}
	assert.NotEmpty(t, result.Assessment)
}

func TestMulticollinearityFlagsCorrelatedPair(t *testing.T) {
	// Temperature and precipitation volatility move in lockstep across the
	// cohort while the other components stay independent.
	ids := []string{"UA_A", "US_B", "AU_C", "BR_D", "CN_E", "DE_F", "FR_G", "IN_H"}
	raw := make([]acvi.ComponentSet, len(ids))
	for i := range ids {
		v := float64(i+1) * 10
		raw[i] = acvi.ComponentSet{
			TemperatureVolatility:   v,
			PrecipitationVolatility: v*2 + 1,
			MoistureStress:          float64((i*53)%97) + 0.5,
			ExtremeEvents:           float64((i*29)%89) + 0.25,
		}
	}
	cohort := testCohort(t, ids, raw)

	analyzer := NewAnalyzer(acvi.DefaultWeights(), 42, nil)
	result := analyzer.Multicollinearity(context.Background(), cohort)

	assert.InDelta(t, 1.0,
		result.Correlations[acvi.TemperatureVolatility][acvi.PrecipitationVolatility], 1e-9)
	assert.GreaterOrEqual(t, result.MaxAbsR, 0.99)

	found := false
	for _, pair := range result.HighPairs {
		if (pair.First == acvi.TemperatureVolatility && pair.Second == acvi.PrecipitationVolatility) ||
			(pair.First == acvi.PrecipitationVolatility && pair.Second == acvi.TemperatureVolatility) {
			found = true
			assert.Greater(t, math.Abs(pair.R), 0.7)
		}
	}
	assert.True(t, found, "collinear pair should be reported")
	assert.Equal(t, AssessmentModerate, result.Assessment)
}
