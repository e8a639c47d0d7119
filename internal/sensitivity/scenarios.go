package sensitivity

import (
	"context"
	"math"
	"math/rand"

	"acvicli/internal/acvi"
	"acvicli/internal/stats"
)

// WeightScenario is one alternative weighting regime in the battery.
type WeightScenario struct {
	ID      int          `json:"id"`
	Name    string       `json:"name"`
	Weights acvi.Weights `json:"weights"`
}

// ScenarioResult compares one scenario's ranking against the baseline.
type ScenarioResult struct {
	WeightScenario
	RankCorrelation  float64 `json:"rank_correlation"`
	ScoreCorrelation float64 `json:"score_correlation"`
	Top10Overlap     int     `json:"top10_overlap"`
}

// WeightSensitivityResult aggregates ranking stability across the
// scenario battery.
type WeightSensitivityResult struct {
	Scenarios        []ScenarioResult `json:"scenarios"`
	MeanCorrelation  float64          `json:"mean_correlation"`
	StdCorrelation   float64          `json:"std_correlation"`
	MinCorrelation   float64          `json:"min_correlation"`
	ScenariosAbove90 int              `json:"scenarios_above_0_9"`
}

// WeightSensitivity reruns composite scoring under the fixed battery of
// 17 weight scenarios and measures how much the ranking moves.
func (a *Analyzer) WeightSensitivity(ctx context.Context, cohort *acvi.CohortResult) WeightSensitivityResult {
	scenarios := a.generateScenarios()
	baselineIDs := cohort.Ranking()

	result := WeightSensitivityResult{
		Scenarios:      make([]ScenarioResult, 0, len(scenarios)),
		MinCorrelation: math.Inf(1),
	}

	baselineScores := make([]float64, len(cohort.Scores))
	ids := make([]string, len(cohort.Scores))
	for i, s := range cohort.Scores {
		baselineScores[i] = s.Composite
		ids[i] = s.LocationID
	}

	var correlations []float64
	for _, scenario := range scenarios {
		composites := make([]float64, len(cohort.Scores))
		for i, s := range cohort.Scores {
			composites[i] = acvi.Score(s.Normalized, scenario.Weights)
		}
		newIDs := acvi.RankIDs(ids, composites)

		rankCorr := rankCorrelation(baselineIDs, newIDs)
		result.Scenarios = append(result.Scenarios, ScenarioResult{
			WeightScenario:   scenario,
			RankCorrelation:  rankCorr,
			ScoreCorrelation: stats.Pearson(baselineScores, composites),
			Top10Overlap:     topOverlap(baselineIDs, newIDs, topN),
		})
		correlations = append(correlations, rankCorr)
		if rankCorr < result.MinCorrelation {
			result.MinCorrelation = rankCorr
		}
		if rankCorr > stableCorrelationBar {
			result.ScenariosAbove90++
		}
	}

	result.MeanCorrelation = stats.Mean(correlations)
	result.StdCorrelation = stats.PopStdDev(correlations)

	a.logger.InfoContext(ctx, "weight sensitivity completed",
		"scenarios", len(scenarios),
		"mean_rank_correlation", result.MeanCorrelation,
		"min_rank_correlation", result.MinCorrelation,
		"above_0_9", result.ScenariosAbove90,
	)

	return result
}

// generateScenarios builds the fixed 17-scenario battery: equal weights,
// four single-component dominant, four single-component minimized, six
// seeded random perturbations of the default weights, and two
// hand-specified alternative regimes.
func (a *Analyzer) generateScenarios() []WeightScenario {
	components := acvi.Components()
	var scenarios []WeightScenario
	add := func(name string, w acvi.Weights) {
		scenarios = append(scenarios, WeightScenario{ID: len(scenarios) + 1, Name: name, Weights: w})
	}

	equal := acvi.Weights{}
	for _, c := range components {
		equal.Set(c, 0.25)
	}
	add("equal_weights", equal)

	for _, dominant := range components {
		w := acvi.Weights{}
		for _, c := range components {
			if c == dominant {
				w.Set(c, 0.5)
			} else {
				w.Set(c, 0.167)
			}
		}
		add("dominant_"+string(dominant), w)
	}

	for _, minimized := range components {
		w := acvi.Weights{}
		for _, c := range components {
			if c == minimized {
				w.Set(c, 0.1)
			} else {
				w.Set(c, 0.3)
			}
		}
		add("minimized_"+string(minimized), w)
	}

	rng := rand.New(rand.NewSource(a.seed))
	for i := 0; i < 6; i++ {
		w := acvi.Weights{}
		for _, c := range components {
			factor := 0.8 + rng.Float64()*0.4
			w.Set(c, a.weights.Value(c)*factor)
		}
		normalized, err := w.Normalized()
		if err == nil {
			w = normalized
		}
		add("perturbed_default", w)
	}

	add("volatility_focused", acvi.Weights{
		TemperatureVolatility:   0.40,
		PrecipitationVolatility: 0.40,
		MoistureStress:          0.15,
		ExtremeEvents:           0.05,
	})
	add("stress_focused", acvi.Weights{
		TemperatureVolatility:   0.15,
		PrecipitationVolatility: 0.15,
		MoistureStress:          0.40,
		ExtremeEvents:           0.30,
	})

	return scenarios
}

// rankCorrelation computes the Spearman correlation between the
// positions the identifiers common to both rankings occupy in each.
func rankCorrelation(first, second []string) float64 {
	posFirst := make(map[string]int, len(first))
	for i, id := range first {
		posFirst[id] = i
	}
	posSecond := make(map[string]int, len(second))
	for i, id := range second {
		posSecond[id] = i
	}

	var ranksFirst, ranksSecond []float64
	for _, id := range first {
		j, ok := posSecond[id]
		if !ok {
			continue
		}
		ranksFirst = append(ranksFirst, float64(posFirst[id]))
		ranksSecond = append(ranksSecond, float64(j))
	}
	if len(ranksFirst) < 2 {
		return 0
	}
	return stats.Spearman(ranksFirst, ranksSecond)
}
