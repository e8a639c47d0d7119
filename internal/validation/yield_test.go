package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeYieldVolatility(t *testing.T) {
	// A perfectly linear trend has raw volatility but none once detrended.
	vol, err := ComputeYieldVolatility([]float64{2, 4, 6, 8, 10})
	require.NoError(t, err)

	assert.InDelta(t, 6.0, vol.MeanYield, 1e-12)
	assert.InDelta(t, 2.8284271, vol.StdYield, 1e-6)
	assert.InDelta(t, 47.140452, vol.CVYield, 1e-5)
	assert.InDelta(t, 0.0, vol.DetrendedCV, 1e-9)
	assert.Equal(t, 2.0, vol.MinYield)
	assert.Equal(t, 10.0, vol.MaxYield)
}

func TestComputeYieldVolatilityEdgeCases(t *testing.T) {
	_, err := ComputeYieldVolatility([]float64{1, 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient data")

	// Non-positive mean yields define both CVs as 0.
	vol, err := ComputeYieldVolatility([]float64{-1, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, vol.CVYield)
	assert.Equal(t, 0.0, vol.DetrendedCV)
}

func TestReadYieldCSV(t *testing.T) {
	input := strings.Join([]string{
		"country,crop,mean_yield,cv_yield,detrended_cv",
		"UA,Wheat,4.2,12.5,8.1",
		"US,maize,10.8,9.3,6.4",
	}, "\n")

	records, err := ReadYieldCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "UA", records[0].Country)
	assert.Equal(t, "wheat", records[0].Crop, "crop names are lowercased")
	assert.Equal(t, 4.2, records[0].MeanYield)
	assert.Equal(t, 12.5, records[0].CVYield)
	assert.Equal(t, 8.1, records[0].DetrendedCV)
	assert.Equal(t, "maize", records[1].Crop)
}

func TestReadYieldCSVReordersColumns(t *testing.T) {
	input := strings.Join([]string{
		"cv_yield,country,detrended_cv,crop,mean_yield",
		"12.5,UA,8.1,wheat,4.2",
	}, "\n")

	records, err := ReadYieldCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "UA", records[0].Country)
	assert.Equal(t, 12.5, records[0].CVYield)
}

func TestReadYieldCSVRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing column", input: "country,crop,mean_yield\nUA,wheat,4.2\n"},
		{name: "unparseable number", input: "country,crop,mean_yield,cv_yield,detrended_cv\nUA,wheat,high,1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadYieldCSV(strings.NewReader(tt.input))
			require.Error(t, err)
		})
	}
}
