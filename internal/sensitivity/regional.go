package sensitivity

import (
	"context"
	"sort"
	"strings"

	"acvicli/internal/acvi"
	"acvicli/internal/stats"
)

// UnknownRegion groups locations whose country prefix is not in the
// catalogue. They never enter the ANOVA.
const UnknownRegion = "Unknown"

// countryRegions maps the ISO-style country prefix of a location
// identifier (the token before the first underscore) to its region.
var countryRegions = map[string]string{
	"UA": "Europe",
	"PL": "Europe",
	"DE": "Europe",
	"FR": "Europe",
	"RO": "Europe",
	"HU": "Europe",
	"IT": "Europe",
	"ES": "Europe",
	"NL": "Europe",
	"UK": "Europe",
	"TR": "Europe",
	"US": "North America",
	"CA": "North America",
	"BR": "South America",
	"AR": "South America",
	"CN": "Asia",
	"IN": "Asia",
	"KZ": "Asia",
	"EG": "Africa",
	"ZA": "Africa",
	"AU": "Oceania",
}

// RegionOf resolves a location identifier to its region.
func RegionOf(locationID string) string {
	prefix, _, _ := strings.Cut(locationID, "_")
	if region, ok := countryRegions[prefix]; ok {
		return region
	}
	return UnknownRegion
}

// RegionStats summarizes the composite scores of one region.
type RegionStats struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Count int     `json:"count"`
}

// RegionalResult reports whether geography systematically shifts the
// composite score. Skipped is set when fewer than two regions have data.
type RegionalResult struct {
	Regions     map[string]RegionStats `json:"regions"`
	FStatistic  float64                `json:"f_statistic"`
	PValue      float64                `json:"p_value"`
	Significant bool                   `json:"significant"`
	Skipped     bool                   `json:"skipped"`
	SkipReason  string                 `json:"skip_reason,omitempty"`
}

// Regional groups the cohort by region and tests the composite score
// distributions with a one-way ANOVA. A significant result means the
// index is confounded by geography rather than measuring volatility.
func (a *Analyzer) Regional(ctx context.Context, cohort *acvi.CohortResult) RegionalResult {
	byRegion := make(map[string][]float64)
	for _, s := range cohort.Scores {
		region := RegionOf(s.LocationID)
		if region == UnknownRegion {
			a.logger.WarnContext(ctx, "location has no region mapping",
				"location", s.LocationID,
			)
			continue
		}
		byRegion[region] = append(byRegion[region], s.Composite)
	}

	result := RegionalResult{Regions: make(map[string]RegionStats, len(byRegion))}
	names := make([]string, 0, len(byRegion))
	for name, values := range byRegion {
		result.Regions[name] = RegionStats{
			Mean:  stats.Mean(values),
			Std:   stats.StdDev(values),
			Count: len(values),
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) < 2 {
		result.Skipped = true
		result.SkipReason = "fewer than 2 regions with data"
		a.logger.InfoContext(ctx, "regional analysis skipped",
			"regions", len(names),
		)
		return result
	}

	groups := make([][]float64, len(names))
	for i, name := range names {
		groups[i] = byRegion[name]
	}

	f, p, err := stats.OneWayANOVA(groups)
	if err != nil {
		result.Skipped = true
		result.SkipReason = err.Error()
		a.logger.WarnContext(ctx, "regional analysis failed",
			"error", err,
		)
		return result
	}

	result.FStatistic = f
	result.PValue = p
	result.Significant = p < significanceAlpha

	a.logger.InfoContext(ctx, "regional analysis completed",
		"regions", len(names),
		"f_statistic", f,
		"p_value", p,
		"significant", result.Significant,
	)

	return result
}
