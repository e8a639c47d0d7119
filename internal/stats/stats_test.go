package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
		isNaN  bool
	}{
		{name: "simple", values: []float64{1, 2, 3}, want: 2},
		{name: "skips NaN", values: []float64{1, math.NaN(), 3}, want: 2},
		{name: "skips Inf", values: []float64{2, math.Inf(1), 4}, want: 3},
		{name: "all missing", values: []float64{math.NaN(), math.NaN()}, isNaN: true},
		{name: "empty", values: nil, isNaN: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mean(tt.values)
			if tt.isNaN {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestStdDev(t *testing.T) {
	// Sample standard deviation of {2,4,4,4,5,5,7,9} is ~2.138.
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.13809, StdDev(values), 1e-4)

	// Population version of the same sample is exactly 2.
	assert.InDelta(t, 2.0, PopStdDev(values), 1e-12)

	assert.Zero(t, StdDev([]float64{5}))
	assert.Zero(t, StdDev(nil))
}

func TestCV(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "zero variance", values: []float64{5, 5, 5}, want: 0},
		{name: "zero mean", values: []float64{-1, 0, 1}, want: 0},
		{name: "empty", values: nil, want: 0},
		{name: "negative mean uses absolute value", values: []float64{-4, -6}, want: StdDev([]float64{-4, -6}) / 5 * 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CV(tt.values), 1e-12)
		})
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{10, 50, 90}

	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{name: "minimum", p: 0, want: 10},
		{name: "p5 interpolates", p: 0.05, want: 14},
		{name: "median", p: 0.5, want: 50},
		{name: "p95 interpolates", p: 0.95, want: 86},
		{name: "maximum", p: 1, want: 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(values, tt.p), 1e-12)
		})
	}

	t.Run("ignores NaN", func(t *testing.T) {
		assert.InDelta(t, 50.0, Percentile([]float64{90, math.NaN(), 10, 50}, 0.5), 1e-12)
	})
	t.Run("empty is NaN", func(t *testing.T) {
		assert.True(t, math.IsNaN(Percentile(nil, 0.5)))
	})
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.0, Clip(-3, 0, 100))
	assert.Equal(t, 100.0, Clip(120, 0, 100))
	assert.Equal(t, 42.0, Clip(42, 0, 100))
}

func TestRMSE(t *testing.T) {
	assert.InDelta(t, 0.0, RMSE([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 2.0, RMSE([]float64{0, 0}, []float64{2, -2}), 1e-12)
	assert.True(t, math.IsNaN(RMSE(nil, nil)))
	assert.True(t, math.IsNaN(RMSE([]float64{1}, []float64{1, 2})))
}

func TestRanks(t *testing.T) {
	t.Run("distinct values", func(t *testing.T) {
		assert.Equal(t, []float64{2, 0, 1}, Ranks([]float64{30, 10, 20}))
	})
	t.Run("ties get averaged ranks", func(t *testing.T) {
		assert.Equal(t, []float64{0.5, 0.5, 2}, Ranks([]float64{10, 10, 20}))
	})
}

func TestSpearman(t *testing.T) {
	t.Run("monotonic is 1", func(t *testing.T) {
		x := []float64{1, 2, 3, 4, 5}
		y := []float64{2, 8, 18, 32, 50}
		assert.InDelta(t, 1.0, Spearman(x, y), 1e-12)
	})
	t.Run("reversed is -1", func(t *testing.T) {
		x := []float64{1, 2, 3, 4}
		y := []float64{9, 7, 5, 3}
		assert.InDelta(t, -1.0, Spearman(x, y), 1e-12)
	})
}

func TestPearson(t *testing.T) {
	t.Run("perfect linear", func(t *testing.T) {
		require.InDelta(t, 1.0, Pearson([]float64{1, 2, 3}, []float64{10, 20, 30}), 1e-12)
	})
	t.Run("zero variance is 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Pearson([]float64{5, 5, 5}, []float64{1, 2, 3}))
	})
}
