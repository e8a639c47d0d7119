package climate

import (
	"math"

	"acvicli/internal/stats"
)

// ParameterStats summarizes one parameter column for reporting.
type ParameterStats struct {
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	Std         float64 `json:"std"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Q25         float64 `json:"q25"`
	Q75         float64 `json:"q75"`
	CV          float64 `json:"cv"`
	MissingPct  float64 `json:"missing_pct"`
	OutlierDays int     `json:"outlier_days"`
}

// Describe computes descriptive statistics per carried parameter.
// Outliers are counted with the 1.5×IQR rule over the finite values.
func Describe(ts *TimeSeries) map[Parameter]ParameterStats {
	report := make(map[Parameter]ParameterStats)

	for _, param := range ts.Parameters() {
		col, _ := ts.Column(param)

		finite := make([]float64, 0, len(col))
		for _, v := range col {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				finite = append(finite, v)
			}
		}
		if len(finite) == 0 {
			report[param] = ParameterStats{MissingPct: 100}
			continue
		}

		q25 := stats.Percentile(finite, 0.25)
		q75 := stats.Percentile(finite, 0.75)
		iqr := q75 - q25
		lower := q25 - 1.5*iqr
		upper := q75 + 1.5*iqr
		outliers := 0
		minV, maxV := finite[0], finite[0]
		for _, v := range finite {
			if v < lower || v > upper {
				outliers++
			}
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}

		report[param] = ParameterStats{
			Mean:        stats.Mean(finite),
			Median:      stats.Percentile(finite, 0.5),
			Std:         stats.StdDev(finite),
			Min:         minV,
			Max:         maxV,
			Q25:         q25,
			Q75:         q75,
			CV:          stats.CV(finite),
			MissingPct:  ts.MissingFraction(param) * 100,
			OutlierDays: outliers,
		}
	}

	return report
}
