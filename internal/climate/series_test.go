package climate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyDates(start time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

func TestNewTimeSeries(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		ts, err := NewTimeSeries(dailyDates(start, 3), map[Parameter][]float64{
			ParamT2M: {1, 2, 3},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, ts.Len())
		assert.True(t, ts.Has(ParamT2M))
	})

	t.Run("rejects unordered dates", func(t *testing.T) {
		dates := dailyDates(start, 3)
		dates[2] = dates[1]
		_, err := NewTimeSeries(dates, map[Parameter][]float64{ParamT2M: {1, 2, 3}})
		require.Error(t, err)
	})

	t.Run("rejects column length mismatch", func(t *testing.T) {
		_, err := NewTimeSeries(dailyDates(start, 3), map[Parameter][]float64{ParamT2M: {1, 2}})
		require.Error(t, err)
	})

	t.Run("rejects omitted dates", func(t *testing.T) {
		// One record per calendar day: a dropped day must be a NaN row,
		// not a hole the derived dry-spell run would bridge.
		dates := dailyDates(start, 3)
		dates[2] = dates[2].AddDate(0, 0, 5)
		_, err := NewTimeSeries(dates, map[Parameter][]float64{ParamT2M: {1, 2, 3}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "date gap")
	})

	t.Run("rejects year-boundary gap", func(t *testing.T) {
		dates := []time.Time{
			time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC),
		}
		_, err := NewTimeSeries(dates, map[Parameter][]float64{ParamT2M: {1, 2}})
		require.Error(t, err)
	})
}

func TestMissingFraction(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ts, err := NewTimeSeries(dailyDates(start, 4), map[Parameter][]float64{
		ParamT2M: {1, math.NaN(), 3, math.NaN()},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, ts.MissingFraction(ParamT2M), 1e-12)
	assert.Equal(t, 1.0, ts.MissingFraction(ParamPrecip))
}

func TestGrowingSeasonContains(t *testing.T) {
	tests := []struct {
		name   string
		season GrowingSeason
		month  int
		want   bool
	}{
		{name: "inside plain range", season: GrowingSeason{4, 10}, month: 7, want: true},
		{name: "outside plain range", season: GrowingSeason{4, 10}, month: 1, want: false},
		{name: "wrap includes december", season: GrowingSeason{10, 3}, month: 12, want: true},
		{name: "wrap includes february", season: GrowingSeason{10, 3}, month: 2, want: true},
		{name: "wrap excludes summer", season: GrowingSeason{10, 3}, month: 6, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.season.Contains(tt.month))
		})
	}
}

func TestFilterSeason(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ts, err := NewTimeSeries(dailyDates(start, 366), map[Parameter][]float64{
		ParamT2M: make([]float64, 366),
	})
	require.NoError(t, err)

	filtered := ts.FilterSeason(GrowingSeason{StartMonth: 6, EndMonth: 6})
	assert.Equal(t, 30, filtered.Len())
	for _, d := range filtered.Dates() {
		assert.Equal(t, time.June, d.Month())
	}
}

func TestYearlyAggregates(t *testing.T) {
	// Two full years with constant values per year.
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 366 + 365
	values := make([]float64, n)
	for i := range values {
		if start.AddDate(0, 0, i).Year() == 2020 {
			values[i] = 2
		} else {
			values[i] = 4
		}
	}
	ts, err := NewTimeSeries(dailyDates(start, n), map[Parameter][]float64{ParamPrecip: values})
	require.NoError(t, err)

	means := ts.YearlyMeans(ParamPrecip)
	require.Len(t, means, 2)
	assert.InDelta(t, 2.0, means[0], 1e-12)
	assert.InDelta(t, 4.0, means[1], 1e-12)

	sums := ts.YearlySums(ParamPrecip)
	require.Len(t, sums, 2)
	assert.InDelta(t, 732.0, sums[0], 1e-9)
	assert.InDelta(t, 1460.0, sums[1], 1e-9)

	assert.Nil(t, ts.YearlyMeans(ParamSolar))
}
