package acvi

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acvicli/internal/climate"
)

// syntheticLocation builds three years of daily data with a seasonal
// temperature cycle; scale differentiates the interannual variability
// between locations.
func syntheticLocation(t *testing.T, id string, scale float64) climate.Location {
	t.Helper()

	const days = 3 * 365
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, days)
	temps := make([]float64, days)
	precip := make([]float64, days)
	moisture := make([]float64, days)

	for i := 0; i < days; i++ {
		dates[i] = start.AddDate(0, 0, i)
		yearPhase := 2 * math.Pi * float64(i%365) / 365
		yearIdx := float64(i / 365)

		temps[i] = 15 + 10*math.Sin(yearPhase) + scale*yearIdx
		precip[i] = 2 + math.Abs(math.Sin(yearPhase*3))*scale + yearIdx*scale*0.5
		moisture[i] = 0.5 + 0.1*math.Sin(yearPhase) - 0.02*yearIdx*scale
	}

	ts, err := climate.NewTimeSeries(dates, map[climate.Parameter][]float64{
		climate.ParamT2M:      temps,
		climate.ParamPrecip:   precip,
		climate.ParamRootZone: moisture,
	})
	require.NoError(t, err)
	return climate.Location{ID: id, Series: ts}
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	extractor, err := climate.NewFeatureExtractor(climate.GrowingSeason{StartMonth: 4, EndMonth: 10}, climate.WheatThresholds(), nil)
	require.NoError(t, err)
	engine, err := NewEngine(extractor, NewSubIndexCalculator(climate.WheatThresholds(), nil), DefaultWeights(), 2, nil)
	require.NoError(t, err)
	return engine
}

func TestNewEngineValidation(t *testing.T) {
	extractor, err := climate.NewFeatureExtractor(climate.GrowingSeason{StartMonth: 4, EndMonth: 10}, climate.WheatThresholds(), nil)
	require.NoError(t, err)

	_, err = NewEngine(nil, NewSubIndexCalculator(climate.WheatThresholds(), nil), DefaultWeights(), 1, nil)
	require.Error(t, err)

	_, err = NewEngine(extractor, NewSubIndexCalculator(climate.WheatThresholds(), nil), Weights{}, 1, nil)
	require.Error(t, err)
}

func TestEngineRun(t *testing.T) {
	engine := testEngine(t)

	badSeries, err := climate.NewTimeSeries(
		[]time.Time{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		map[climate.Parameter][]float64{climate.ParamT2M: {20}},
	)
	require.NoError(t, err)

	locations := []climate.Location{
		syntheticLocation(t, "UA_A", 0.5),
		{ID: "XX_Bad", Series: badSeries},
		syntheticLocation(t, "US_B", 2.0),
		syntheticLocation(t, "AU_C", 4.0),
	}

	result, err := engine.Run(context.Background(), locations)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Scores, 3)
	require.Len(t, result.Excluded, 1)
	assert.Equal(t, "XX_Bad", result.Excluded[0].LocationID)
	assert.NotEmpty(t, result.Excluded[0].Reason)

	seen := make(map[string]bool)
	for i, s := range result.Scores {
		seen[s.LocationID] = true
		assert.Equal(t, i+1, s.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, result.Scores[i-1].Composite, s.Composite)
		}
		for _, c := range Components() {
			assert.GreaterOrEqual(t, s.Normalized.Value(c), 0.0)
			assert.LessOrEqual(t, s.Normalized.Value(c), 100.0)
		}
	}
	assert.Len(t, seen, 3)
	require.NotNil(t, result.Scale)
	assert.Equal(t, 3, result.Scale.Size)
}

func TestEngineRunDeterministic(t *testing.T) {
	engine := testEngine(t)
	locations := []climate.Location{
		syntheticLocation(t, "UA_A", 0.5),
		syntheticLocation(t, "US_B", 2.0),
		syntheticLocation(t, "AU_C", 4.0),
		syntheticLocation(t, "BR_D", 1.2),
	}

	first, err := engine.Run(context.Background(), locations)
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), locations)
	require.NoError(t, err)

	require.Equal(t, first.Ranking(), second.Ranking())
	for i := range first.Scores {
		assert.InDelta(t, first.Scores[i].Composite, second.Scores[i].Composite, 1e-12)
	}
}

func TestEngineRunIdenticalCohortIsDegenerate(t *testing.T) {
	engine := testEngine(t)
	locations := []climate.Location{
		syntheticLocation(t, "UA_A", 1.0),
		syntheticLocation(t, "PL_B", 1.0),
	}

	result, err := engine.Run(context.Background(), locations)
	require.NoError(t, err)
	require.Len(t, result.Scores, 2)

	// Identical raw values per component make every anchor degenerate, so
	// both locations normalize to 50 everywhere and tie at composite 50.
	for _, s := range result.Scores {
		for _, c := range Components() {
			assert.Equal(t, 50.0, s.Normalized.Value(c))
		}
		assert.InDelta(t, 50.0, s.Composite, 1e-12)
	}
	// The tie keeps cohort input order.
	assert.Equal(t, []string{"UA_A", "PL_B"}, result.Ranking())
}

func TestEngineRunExclusionsKeepInputOrder(t *testing.T) {
	engine := testEngine(t)

	badLocation := func(id string) climate.Location {
		series, err := climate.NewTimeSeries(
			[]time.Time{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
			map[climate.Parameter][]float64{climate.ParamT2M: {20}},
		)
		require.NoError(t, err)
		return climate.Location{ID: id, Series: series}
	}

	locations := []climate.Location{
		badLocation("XX_First"),
		syntheticLocation(t, "UA_A", 0.5),
		badLocation("XX_Second"),
		syntheticLocation(t, "US_B", 2.0),
		badLocation("XX_Third"),
	}

	for run := 0; run < 5; run++ {
		result, err := engine.Run(context.Background(), locations)
		require.NoError(t, err)
		require.Len(t, result.Excluded, 3)

		ids := make([]string, len(result.Excluded))
		for i, ex := range result.Excluded {
			ids[i] = ex.LocationID
		}
		assert.Equal(t, []string{"XX_First", "XX_Second", "XX_Third"}, ids)
	}
}

func TestEngineRunAllExcluded(t *testing.T) {
	engine := testEngine(t)

	badSeries, err := climate.NewTimeSeries(
		[]time.Time{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		map[climate.Parameter][]float64{climate.ParamT2M: {20}},
	)
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), []climate.Location{{ID: "XX_Bad", Series: badSeries}})
	require.Error(t, err)

	_, err = engine.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestRescore(t *testing.T) {
	engine := testEngine(t)
	locations := []climate.Location{
		syntheticLocation(t, "UA_A", 0.5),
		syntheticLocation(t, "US_B", 2.0),
		syntheticLocation(t, "AU_C", 4.0),
	}
	baseline, err := engine.Run(context.Background(), locations)
	require.NoError(t, err)

	extremeOnly := Weights{ExtremeEvents: 1}
	rescored, err := Rescore(baseline, extremeOnly)
	require.NoError(t, err)

	require.Len(t, rescored.Scores, len(baseline.Scores))
	for _, s := range rescored.Scores {
		assert.InDelta(t, s.Normalized.ExtremeEvents, s.Composite, 1e-12)
	}
	// The original result is untouched.
	assert.Equal(t, DefaultWeights(), baseline.Weights)

	_, err = Rescore(baseline, Weights{})
	require.Error(t, err)
}
