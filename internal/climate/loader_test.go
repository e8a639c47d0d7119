package climate

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSeriesCSV(t *testing.T) {
	input := strings.Join([]string{
		"Date,T2M,PRECTOTCORR,GWETROOT",
		"2020-01-01,12.5,0.0,0.61",
		"2020-01-02,-999,3.2,0.60",
		"2020-01-03,13.1,,0.59",
	}, "\n")

	ts, err := ReadSeriesCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, ts.Len())

	temps, ok := ts.Column(ParamT2M)
	require.True(t, ok)
	assert.Equal(t, 12.5, temps[0])
	assert.True(t, math.IsNaN(temps[1]), "sentinel should become NaN")

	precip, ok := ts.Column(ParamPrecip)
	require.True(t, ok)
	assert.True(t, math.IsNaN(precip[2]), "empty cell should become NaN")
}

func TestReadSeriesCSVRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing parameter columns", input: "Date\n2020-01-01\n"},
		{name: "bad date", input: "Date,T2M\nnot-a-date,1.0\n"},
		{name: "unordered dates", input: "Date,T2M\n2020-01-02,1.0\n2020-01-01,2.0\n"},
		{name: "omitted dates", input: "Date,T2M\n2020-01-01,1.0\n2020-01-05,2.0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSeriesCSV(strings.NewReader(tt.input))
			require.Error(t, err)
		})
	}
}
