package climate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"acvicli/internal/stats"
)

// Parameter identifies one column of a daily climate series. Base
// parameter names follow the NASA POWER agroclimatology vocabulary.
type Parameter string

const (
	ParamT2M      Parameter = "T2M"
	ParamT2MRange Parameter = "T2M_RANGE"
	ParamT2MMin   Parameter = "T2M_MIN"
	ParamT2MMax   Parameter = "T2M_MAX"
	ParamPrecip   Parameter = "PRECTOTCORR"
	ParamRootZone Parameter = "GWETROOT"
	ParamEvapo    Parameter = "EVPTRNS"
	ParamHumidity Parameter = "RH2M"
	ParamWindMax  Parameter = "WS10M_MAX"
	ParamSolar    Parameter = "ALLSKY_SFC_SW_DWN"

	// Derived columns appended by the feature extractor.
	ParamGDD            Parameter = "GDD"
	ParamVPD            Parameter = "VPD"
	ParamDryDays        Parameter = "DRY_DAYS"
	ParamDrySpellLength Parameter = "DRY_SPELL_LENGTH"
	ParamHeatDays       Parameter = "HEAT_DAYS"
	ParamFrostDays      Parameter = "FROST_DAYS"
)

// BaseParameters returns the raw parameters requested from the data
// acquisition collaborator, in canonical order.
func BaseParameters() []Parameter {
	return []Parameter{
		ParamT2M, ParamT2MRange, ParamT2MMin, ParamT2MMax,
		ParamPrecip, ParamRootZone, ParamEvapo, ParamHumidity,
		ParamWindMax, ParamSolar,
	}
}

// RequiredParameters returns the parameters a location must carry with
// acceptable completeness to survive data quality validation.
func RequiredParameters() []Parameter {
	return []Parameter{ParamT2M, ParamPrecip, ParamRootZone}
}

// TimeSeries is a date-ordered daily table of climate parameters for one
// location. Gaps are represented as NaN values on existing dates, never
// as omitted dates. Columns all share the length of Dates.
type TimeSeries struct {
	dates   []time.Time
	columns map[Parameter][]float64
}

// NewTimeSeries builds a series from a date index and parameter columns.
// Dates must run one record per calendar day with no omissions — missing
// measurements are NaN values on present dates — and every column must
// match their length.
func NewTimeSeries(dates []time.Time, columns map[Parameter][]float64) (*TimeSeries, error) {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("dates not strictly ascending at index %d (%s)", i, dates[i].Format("2006-01-02"))
		}
		if !sameCalendarDay(dates[i-1].AddDate(0, 0, 1), dates[i]) {
			return nil, fmt.Errorf("date gap at index %d: %s does not follow %s",
				i, dates[i].Format("2006-01-02"), dates[i-1].Format("2006-01-02"))
		}
	}
	for param, col := range columns {
		if len(col) != len(dates) {
			return nil, fmt.Errorf("column %s has %d values, want %d", param, len(col), len(dates))
		}
	}

	ts := &TimeSeries{
		dates:   append([]time.Time(nil), dates...),
		columns: make(map[Parameter][]float64, len(columns)),
	}
	for param, col := range columns {
		ts.columns[param] = append([]float64(nil), col...)
	}
	return ts, nil
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Len returns the number of daily records.
func (ts *TimeSeries) Len() int {
	return len(ts.dates)
}

// Dates returns the date index.
func (ts *TimeSeries) Dates() []time.Time {
	return ts.dates
}

// Has reports whether the series carries the given parameter.
func (ts *TimeSeries) Has(param Parameter) bool {
	_, ok := ts.columns[param]
	return ok
}

// Column returns the values for the given parameter.
func (ts *TimeSeries) Column(param Parameter) ([]float64, bool) {
	col, ok := ts.columns[param]
	return col, ok
}

// SetColumn adds or replaces a column. The values slice must match the
// date index length.
func (ts *TimeSeries) SetColumn(param Parameter, values []float64) error {
	if len(values) != len(ts.dates) {
		return fmt.Errorf("column %s has %d values, want %d", param, len(values), len(ts.dates))
	}
	ts.columns[param] = values
	return nil
}

// Parameters returns the carried parameter names in sorted order.
func (ts *TimeSeries) Parameters() []Parameter {
	params := make([]Parameter, 0, len(ts.columns))
	for p := range ts.columns {
		params = append(params, p)
	}
	sort.Slice(params, func(i, j int) bool { return params[i] < params[j] })
	return params
}

// MissingFraction returns the fraction of NaN values in the column, or 1
// when the column is absent or empty.
func (ts *TimeSeries) MissingFraction(param Parameter) float64 {
	col, ok := ts.columns[param]
	if !ok || len(col) == 0 {
		return 1
	}
	missing := 0
	for _, v := range col {
		if math.IsNaN(v) {
			missing++
		}
	}
	return float64(missing) / float64(len(col))
}

// GrowingSeason is an inclusive month range. A range whose start month
// exceeds its end month wraps across year end (e.g. October-March).
type GrowingSeason struct {
	StartMonth int
	EndMonth   int
}

// Contains reports whether the month (1-12) falls inside the season.
func (gs GrowingSeason) Contains(month int) bool {
	if gs.StartMonth <= gs.EndMonth {
		return month >= gs.StartMonth && month <= gs.EndMonth
	}
	return month >= gs.StartMonth || month <= gs.EndMonth
}

// Valid reports whether both months are in 1..12.
func (gs GrowingSeason) Valid() bool {
	return gs.StartMonth >= 1 && gs.StartMonth <= 12 && gs.EndMonth >= 1 && gs.EndMonth <= 12
}

// FilterSeason returns a new series holding only records whose month
// falls inside the growing season.
func (ts *TimeSeries) FilterSeason(season GrowingSeason) *TimeSeries {
	keep := make([]int, 0, len(ts.dates))
	for i, d := range ts.dates {
		if season.Contains(int(d.Month())) {
			keep = append(keep, i)
		}
	}

	filtered := &TimeSeries{
		dates:   make([]time.Time, len(keep)),
		columns: make(map[Parameter][]float64, len(ts.columns)),
	}
	for i, idx := range keep {
		filtered.dates[i] = ts.dates[idx]
	}
	for param, col := range ts.columns {
		sub := make([]float64, len(keep))
		for i, idx := range keep {
			sub[i] = col[idx]
		}
		filtered.columns[param] = sub
	}
	return filtered
}

// YearlyMeans buckets the column by calendar year and returns the mean
// of each year's finite values, ordered by year. Years with no finite
// values are skipped.
func (ts *TimeSeries) YearlyMeans(param Parameter) []float64 {
	return ts.yearlyAggregate(param, stats.Mean)
}

// YearlySums buckets the column by calendar year and returns the sum of
// each year's finite values, ordered by year.
func (ts *TimeSeries) YearlySums(param Parameter) []float64 {
	return ts.yearlyAggregate(param, func(values []float64) float64 {
		sum := 0.0
		seen := false
		for _, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			sum += v
			seen = true
		}
		if !seen {
			return math.NaN()
		}
		return sum
	})
}

func (ts *TimeSeries) yearlyAggregate(param Parameter, agg func([]float64) float64) []float64 {
	col, ok := ts.columns[param]
	if !ok {
		return nil
	}

	byYear := make(map[int][]float64)
	years := make([]int, 0)
	for i, d := range ts.dates {
		y := d.Year()
		if _, seen := byYear[y]; !seen {
			years = append(years, y)
		}
		byYear[y] = append(byYear[y], col[i])
	}
	sort.Ints(years)

	out := make([]float64, 0, len(years))
	for _, y := range years {
		v := agg(byYear[y])
		if math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Location couples a stable identifier and coordinates with the daily
// series supplied by the acquisition collaborator. Immutable after
// creation.
type Location struct {
	ID     string
	Lat    float64
	Lon    float64
	Series *TimeSeries
}
