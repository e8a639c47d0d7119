package sensitivity

import (
	"context"
	"math"

	"acvicli/internal/acvi"
	"acvicli/internal/stats"
)

// Assessment labels for the multicollinearity diagnostic.
const (
	AssessmentExcellent = "EXCELLENT"
	AssessmentGood      = "GOOD"
	AssessmentModerate  = "MODERATE"
)

const highCorrelationBar = 0.7

// CorrelationPair records one component pair whose absolute correlation
// exceeds the reporting bar.
type CorrelationPair struct {
	First  acvi.Component `json:"first"`
	Second acvi.Component `json:"second"`
	R      float64        `json:"r"`
}

// CollinearityResult holds the pairwise correlation matrix of the raw
// sub-index components, the variance inflation factor of each component
// regressed on the other three, and the overall assessment.
type CollinearityResult struct {
	Correlations map[acvi.Component]map[acvi.Component]float64 `json:"correlations"`
	HighPairs    []CorrelationPair                             `json:"high_pairs,omitempty"`
	VIF          map[acvi.Component]float64                    `json:"vif"`
	MaxAbsR      float64                                       `json:"max_abs_r"`
	Assessment   string                                        `json:"assessment"`
	Errors       []string                                      `json:"errors,omitempty"`
}

// Multicollinearity checks whether the four components carry independent
// information. A failed VIF regression is recorded and skipped; the rest
// of the diagnostic still completes.
func (a *Analyzer) Multicollinearity(ctx context.Context, cohort *acvi.CohortResult) CollinearityResult {
	components := acvi.Components()

	columns := make(map[acvi.Component][]float64, len(components))
	for _, c := range components {
		col := make([]float64, len(cohort.Scores))
		for i, s := range cohort.Scores {
			col[i] = s.Raw.Value(c)
		}
		columns[c] = col
	}

	result := CollinearityResult{
		Correlations: make(map[acvi.Component]map[acvi.Component]float64, len(components)),
		VIF:          make(map[acvi.Component]float64, len(components)),
	}

	for i, ci := range components {
		result.Correlations[ci] = make(map[acvi.Component]float64, len(components))
		result.Correlations[ci][ci] = 1
		for j := i + 1; j < len(components); j++ {
			cj := components[j]
			r := stats.Pearson(columns[ci], columns[cj])
			result.Correlations[ci][cj] = r
			if result.Correlations[cj] == nil {
				result.Correlations[cj] = make(map[acvi.Component]float64, len(components))
				result.Correlations[cj][cj] = 1
			}
			result.Correlations[cj][ci] = r

			if math.Abs(r) > result.MaxAbsR {
				result.MaxAbsR = math.Abs(r)
			}
			if math.Abs(r) > highCorrelationBar {
				result.HighPairs = append(result.HighPairs, CorrelationPair{First: ci, Second: cj, R: r})
			}
		}
	}

	maxVIF := 0.0
	for _, target := range components {
		predictors := make([][]float64, 0, len(components)-1)
		for _, other := range components {
			if other != target {
				predictors = append(predictors, columns[other])
			}
		}
		rSquared, err := stats.OLSRSquared(predictors, columns[target])
		if err != nil {
			a.logger.WarnContext(ctx, "vif regression failed",
				"component", string(target),
				"error", err,
			)
			result.Errors = append(result.Errors, string(target)+": "+err.Error())
			continue
		}
		vif := stats.VIF(rSquared)
		result.VIF[target] = vif
		if vif > maxVIF {
			maxVIF = vif
		}
	}

	switch {
	case maxVIF < 5 && result.MaxAbsR < 0.7:
		result.Assessment = AssessmentExcellent
	case maxVIF < vifBar && result.MaxAbsR < 0.8:
		result.Assessment = AssessmentGood
	default:
		result.Assessment = AssessmentModerate
	}

	a.logger.InfoContext(ctx, "multicollinearity completed",
		"max_vif", maxVIF,
		"max_abs_r", result.MaxAbsR,
		"assessment", result.Assessment,
	)

	return result
}
