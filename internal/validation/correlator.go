package validation

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"acvicli/internal/acvi"
	"acvicli/internal/stats"
)

const significanceAlpha = 0.05

// Yield-volatility metrics the scores are tested against.
const (
	MetricCVYield     = "cv_yield"
	MetricDetrendedCV = "detrended_cv"
)

func metrics() []string {
	return []string{MetricCVYield, MetricDetrendedCV}
}

// CountryAggregate holds the country-level mean of the composite score
// and the raw sub-index components.
type CountryAggregate struct {
	Country   string            `json:"country"`
	Composite float64           `json:"composite"`
	Raw       acvi.ComponentSet `json:"raw"`
	Locations int               `json:"locations"`
}

// MetricCorrelation is one Pearson test result.
type MetricCorrelation struct {
	R           float64 `json:"correlation"`
	P           float64 `json:"p_value"`
	Significant bool    `json:"significant"`
	Samples     int     `json:"n_samples"`
}

// CropValidation carries the correlation results for one crop, or the
// reason the crop was skipped.
type CropValidation struct {
	Crop       string                                          `json:"crop"`
	Samples    int                                             `json:"n_samples"`
	Composite  map[string]MetricCorrelation                    `json:"composite,omitempty"`
	Components map[acvi.Component]map[string]MetricCorrelation `json:"components,omitempty"`
	Skipped    bool                                            `json:"skipped"`
	SkipReason string                                          `json:"skip_reason,omitempty"`
}

// Report is the full validation outcome across crops.
type Report struct {
	GeneratedAt time.Time          `json:"generated_at"`
	CohortRunID string             `json:"cohort_run_id"`
	Countries   []CountryAggregate `json:"countries"`
	Crops       []CropValidation   `json:"crops"`
}

// Correlator validates a cohort against external yield-volatility ground
// truth. Location identifiers resolve to countries by the token before
// the first underscore; Overrides wins for identifiers that do not
// follow that convention.
type Correlator struct {
	Overrides map[string]string
	logger    *slog.Logger
}

// NewCorrelator creates a correlator with the default prefix-based
// country resolution.
func NewCorrelator(logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{logger: logger}
}

// CountryOf resolves a location identifier to its country code.
func (c *Correlator) CountryOf(locationID string) string {
	if country, ok := c.Overrides[locationID]; ok {
		return country
	}
	prefix, _, _ := strings.Cut(locationID, "_")
	return prefix
}

// Aggregate averages the composite score and raw components of the
// cohort per country, sorted by country code.
func (c *Correlator) Aggregate(cohort *acvi.CohortResult) []CountryAggregate {
	byCountry := make(map[string][]acvi.LocationScore)
	for _, s := range cohort.Scores {
		country := c.CountryOf(s.LocationID)
		byCountry[country] = append(byCountry[country], s)
	}

	countries := make([]string, 0, len(byCountry))
	for country := range byCountry {
		countries = append(countries, country)
	}
	sort.Strings(countries)

	aggregates := make([]CountryAggregate, 0, len(countries))
	for _, country := range countries {
		scores := byCountry[country]
		agg := CountryAggregate{Country: country, Locations: len(scores)}
		for _, s := range scores {
			agg.Composite += s.Composite
			for _, comp := range acvi.Components() {
				agg.Raw.Set(comp, agg.Raw.Value(comp)+s.Raw.Value(comp))
			}
		}
		n := float64(len(scores))
		agg.Composite /= n
		for _, comp := range acvi.Components() {
			agg.Raw.Set(comp, agg.Raw.Value(comp)/n)
		}
		aggregates = append(aggregates, agg)
	}
	return aggregates
}

// Validate aggregates the cohort to country level, inner-joins with the
// yield table per crop, and tests the composite score and each raw
// component against each yield-volatility metric. Crops joining fewer
// than 3 countries are skipped with an explicit reason and never abort
// the run.
func (c *Correlator) Validate(ctx context.Context, cohort *acvi.CohortResult, records []YieldRecord) *Report {
	aggregates := c.Aggregate(cohort)
	byCountry := make(map[string]CountryAggregate, len(aggregates))
	for _, agg := range aggregates {
		byCountry[agg.Country] = agg
	}

	byCrop := make(map[string][]YieldRecord)
	for _, r := range records {
		byCrop[r.Crop] = append(byCrop[r.Crop], r)
	}
	crops := make([]string, 0, len(byCrop))
	for crop := range byCrop {
		crops = append(crops, crop)
	}
	sort.Strings(crops)

	report := &Report{
		GeneratedAt: time.Now().UTC(),
		CohortRunID: cohort.RunID,
		Countries:   aggregates,
	}

	for _, crop := range crops {
		result := c.validateCrop(ctx, crop, byCrop[crop], byCountry)
		report.Crops = append(report.Crops, result)
	}

	return report
}

func (c *Correlator) validateCrop(ctx context.Context, crop string, records []YieldRecord, byCountry map[string]CountryAggregate) CropValidation {
	type joinedRow struct {
		agg   CountryAggregate
		yield YieldRecord
	}
	var joined []joinedRow
	for _, r := range records {
		if agg, ok := byCountry[r.Country]; ok {
			joined = append(joined, joinedRow{agg: agg, yield: r})
		}
	}

	result := CropValidation{Crop: crop, Samples: len(joined)}
	if len(joined) < 3 {
		result.Skipped = true
		result.SkipReason = "insufficient data"
		c.logger.WarnContext(ctx, "skipping crop validation",
			"crop", crop,
			"joined_rows", len(joined),
		)
		return result
	}

	composites := make([]float64, len(joined))
	for i, row := range joined {
		composites[i] = row.agg.Composite
	}

	result.Composite = make(map[string]MetricCorrelation, 2)
	result.Components = make(map[acvi.Component]map[string]MetricCorrelation, 4)

	for _, metric := range metrics() {
		target := make([]float64, len(joined))
		for i, row := range joined {
			switch metric {
			case MetricCVYield:
				target[i] = row.yield.CVYield
			case MetricDetrendedCV:
				target[i] = row.yield.DetrendedCV
			}
		}

		if corr, err := pearsonMetric(composites, target); err == nil {
			result.Composite[metric] = corr
		} else {
			c.logger.WarnContext(ctx, "composite correlation failed",
				"crop", crop,
				"metric", metric,
				"error", err,
			)
		}

		for _, comp := range acvi.Components() {
			values := make([]float64, len(joined))
			for i, row := range joined {
				values[i] = row.agg.Raw.Value(comp)
			}
			corr, err := pearsonMetric(values, target)
			if err != nil {
				c.logger.WarnContext(ctx, "component correlation failed",
					"crop", crop,
					"component", string(comp),
					"metric", metric,
					"error", err,
				)
				continue
			}
			if result.Components[comp] == nil {
				result.Components[comp] = make(map[string]MetricCorrelation, 2)
			}
			result.Components[comp][metric] = corr
		}
	}

	c.logger.InfoContext(ctx, "crop validated",
		"crop", crop,
		"joined_rows", len(joined),
		"r_cv_yield", result.Composite[MetricCVYield].R,
		"p_cv_yield", result.Composite[MetricCVYield].P,
	)

	return result
}

func pearsonMetric(x, y []float64) (MetricCorrelation, error) {
	r, p, err := stats.PearsonTest(x, y)
	if err != nil {
		return MetricCorrelation{}, err
	}
	return MetricCorrelation{
		R:           r,
		P:           p,
		Significant: p < significanceAlpha,
		Samples:     len(x),
	}, nil
}
