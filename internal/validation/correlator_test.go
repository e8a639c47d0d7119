package validation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acvicli/internal/acvi"
)

func scoredCohort(ids []string, composites []float64) *acvi.CohortResult {
	scores := make([]acvi.LocationScore, len(ids))
	for i, id := range ids {
		scores[i] = acvi.LocationScore{
			LocationID: id,
			Composite:  composites[i],
			Raw: acvi.ComponentSet{
				TemperatureVolatility:   composites[i] * 0.8,
				PrecipitationVolatility: composites[i] * 1.2,
				MoistureStress:          composites[i] * 0.5,
				ExtremeEvents:           composites[i] * 0.3,
			},
		}
	}
	return &acvi.CohortResult{
		RunID:       "validation-test",
		GeneratedAt: time.Now().UTC(),
		Weights:     acvi.DefaultWeights(),
		Scores:      scores,
	}
}

func TestCountryOf(t *testing.T) {
	c := NewCorrelator(nil)
	assert.Equal(t, "UA", c.CountryOf("UA_Center_Kirovohrad"))
	assert.Equal(t, "US", c.CountryOf("US_Midwest_Iowa"))
	assert.Equal(t, "NoUnderscore", c.CountryOf("NoUnderscore"))

	c.Overrides = map[string]string{"UA_Center_Kirovohrad": "XX"}
	assert.Equal(t, "XX", c.CountryOf("UA_Center_Kirovohrad"))
}

func TestAggregate(t *testing.T) {
	c := NewCorrelator(nil)
	cohort := scoredCohort(
		[]string{"UA_A", "UA_B", "US_C"},
		[]float64{40, 60, 80},
	)

	aggregates := c.Aggregate(cohort)
	require.Len(t, aggregates, 2)

	// Sorted by country code: UA before US.
	assert.Equal(t, "UA", aggregates[0].Country)
	assert.Equal(t, 2, aggregates[0].Locations)
	assert.InDelta(t, 50.0, aggregates[0].Composite, 1e-12)
	assert.InDelta(t, 40.0, aggregates[0].Raw.TemperatureVolatility, 1e-12)

	assert.Equal(t, "US", aggregates[1].Country)
	assert.Equal(t, 1, aggregates[1].Locations)
	assert.InDelta(t, 80.0, aggregates[1].Composite, 1e-12)
}

func TestValidatePerfectCorrelation(t *testing.T) {
	c := NewCorrelator(nil)
	cohort := scoredCohort(
		[]string{"UA_A", "US_B", "AU_C", "BR_D", "CN_E"},
		[]float64{10, 25, 40, 55, 70},
	)
	// Yield volatility rises linearly with the composite score.
	records := []YieldRecord{
		{Country: "UA", Crop: "wheat", MeanYield: 4, CVYield: 5, DetrendedCV: 3},
		{Country: "US", Crop: "wheat", MeanYield: 5, CVYield: 8, DetrendedCV: 6},
		{Country: "AU", Crop: "wheat", MeanYield: 3, CVYield: 11, DetrendedCV: 9},
		{Country: "BR", Crop: "wheat", MeanYield: 4, CVYield: 14, DetrendedCV: 12},
		{Country: "CN", Crop: "wheat", MeanYield: 6, CVYield: 17, DetrendedCV: 15},
	}

	report := c.Validate(context.Background(), cohort, records)
	assert.Equal(t, "validation-test", report.CohortRunID)
	require.Len(t, report.Crops, 1)

	crop := report.Crops[0]
	assert.Equal(t, "wheat", crop.Crop)
	assert.False(t, crop.Skipped)
	assert.Equal(t, 5, crop.Samples)

	for _, metric := range []string{MetricCVYield, MetricDetrendedCV} {
		corr, ok := crop.Composite[metric]
		require.True(t, ok, "metric %s", metric)
		assert.InDelta(t, 1.0, corr.R, 1e-9)
		assert.True(t, corr.Significant)
		assert.Equal(t, 5, corr.Samples)
	}

	// Raw components are linear in the composite here, so they correlate
	// perfectly too.
	for _, comp := range acvi.Components() {
		corr, ok := crop.Components[comp][MetricCVYield]
		require.True(t, ok, "component %s", comp)
		assert.InDelta(t, 1.0, corr.R, 1e-9)
	}
}

func TestValidateSkipsThinJoin(t *testing.T) {
	c := NewCorrelator(nil)
	cohort := scoredCohort([]string{"UA_A", "US_B"}, []float64{30, 60})
	records := []YieldRecord{
		{Country: "UA", Crop: "maize", CVYield: 5, DetrendedCV: 3},
		{Country: "US", Crop: "maize", CVYield: 8, DetrendedCV: 6},
		{Country: "FR", Crop: "maize", CVYield: 11, DetrendedCV: 9},
	}

	report := c.Validate(context.Background(), cohort, records)
	require.Len(t, report.Crops, 1)
	assert.True(t, report.Crops[0].Skipped)
	assert.Equal(t, "insufficient data", report.Crops[0].SkipReason)
	assert.Equal(t, 2, report.Crops[0].Samples)
}

func TestValidateSplitsCrops(t *testing.T) {
	c := NewCorrelator(nil)
	cohort := scoredCohort(
		[]string{"UA_A", "US_B", "AU_C"},
		[]float64{20, 40, 60},
	)
	records := []YieldRecord{
		{Country: "UA", Crop: "wheat", CVYield: 5, DetrendedCV: 3},
		{Country: "US", Crop: "wheat", CVYield: 8, DetrendedCV: 6},
		{Country: "AU", Crop: "wheat", CVYield: 11, DetrendedCV: 9},
		{Country: "UA", Crop: "maize", CVYield: 7, DetrendedCV: 4},
	}

	report := c.Validate(context.Background(), cohort, records)
	require.Len(t, report.Crops, 2)

	// Crops are sorted: maize before wheat.
	assert.Equal(t, "maize", report.Crops[0].Crop)
	assert.True(t, report.Crops[0].Skipped)
	assert.Equal(t, "wheat", report.Crops[1].Crop)
	assert.False(t, report.Crops[1].Skipped)
}
