package sensitivity

import (
	"context"
	"math/rand"

	"acvicli/internal/acvi"
	"acvicli/internal/stats"
)

// MonteCarloConfig parameterizes the perturbation simulation. WeightJitter
// is the half-width of the uniform multiplicative factor applied to each
// weight; NoiseStd is the standard deviation of the Gaussian multiplicative
// noise applied to each component score. Perturbed scores are clipped to
// [ClipLow, ClipHigh].
type MonteCarloConfig struct {
	Trials       int     `json:"trials"`
	WeightJitter float64 `json:"weight_jitter"`
	NoiseStd     float64 `json:"noise_std"`
	ClipLow      float64 `json:"clip_low"`
	ClipHigh     float64 `json:"clip_high"`
}

// DefaultMonteCarloConfig returns the standard simulation: 1000 trials,
// ±10% weight jitter, 5% score noise, scores clipped to the 0-100 scale.
func DefaultMonteCarloConfig() MonteCarloConfig {
	return MonteCarloConfig{
		Trials:       1000,
		WeightJitter: 0.1,
		NoiseStd:     0.05,
		ClipLow:      0,
		ClipHigh:     100,
	}
}

// MonteCarloResult summarizes ranking stability across the simulated
// trials.
type MonteCarloResult struct {
	Trials              int     `json:"trials"`
	MeanRankCorrelation float64 `json:"mean_rank_correlation"`
	StdRankCorrelation  float64 `json:"std_rank_correlation"`
	P5RankCorrelation   float64 `json:"p5_rank_correlation"`
	P95RankCorrelation  float64 `json:"p95_rank_correlation"`
	MeanRMSE            float64 `json:"mean_rmse"`
	MeanTop10Overlap    float64 `json:"mean_top10_overlap"`
}

// MonteCarlo perturbs both the weights and the normalized component
// scores over repeated trials and measures how far each trial's ranking
// drifts from the baseline. The draw order per trial is fixed (weight
// factors first, then noise component by component across locations), so
// one seed gives one reproducible result.
func (a *Analyzer) MonteCarlo(ctx context.Context, cohort *acvi.CohortResult) MonteCarloResult {
	cfg := a.mcCfg
	rng := rand.New(rand.NewSource(a.seed))

	n := len(cohort.Scores)
	baselineIDs := cohort.Ranking()
	baselineComposites := make([]float64, n)
	ids := make([]string, n)
	for i, s := range cohort.Scores {
		baselineComposites[i] = s.Composite
		ids[i] = s.LocationID
	}

	components := acvi.Components()
	rankCorrs := make([]float64, 0, cfg.Trials)
	rmses := make([]float64, 0, cfg.Trials)
	overlaps := make([]float64, 0, cfg.Trials)

	perturbed := make([]acvi.ComponentSet, n)
	composites := make([]float64, n)

	for trial := 0; trial < cfg.Trials; trial++ {
		weights := acvi.Weights{}
		for _, c := range components {
			factor := 1 - cfg.WeightJitter + rng.Float64()*2*cfg.WeightJitter
			weights.Set(c, cohort.Weights.Value(c)*factor)
		}
		if normalized, err := weights.Normalized(); err == nil {
			weights = normalized
		} else {
			weights = cohort.Weights
		}

		for i := range perturbed {
			perturbed[i] = cohort.Scores[i].Normalized
		}
		for _, c := range components {
			for i := range perturbed {
				noise := 1 + rng.NormFloat64()*cfg.NoiseStd
				v := perturbed[i].Value(c) * noise
				perturbed[i].Set(c, stats.Clip(v, cfg.ClipLow, cfg.ClipHigh))
			}
		}

		for i := range perturbed {
			composites[i] = acvi.Score(perturbed[i], weights)
		}
		trialIDs := acvi.RankIDs(ids, composites)

		rankCorrs = append(rankCorrs, rankCorrelation(baselineIDs, trialIDs))
		rmses = append(rmses, stats.RMSE(baselineComposites, composites))
		overlaps = append(overlaps, float64(topOverlap(baselineIDs, trialIDs, topN)))
	}

	result := MonteCarloResult{
		Trials:              cfg.Trials,
		MeanRankCorrelation: stats.Mean(rankCorrs),
		StdRankCorrelation:  stats.PopStdDev(rankCorrs),
		P5RankCorrelation:   stats.Percentile(rankCorrs, 0.05),
		P95RankCorrelation:  stats.Percentile(rankCorrs, 0.95),
		MeanRMSE:            stats.Mean(rmses),
		MeanTop10Overlap:    stats.Mean(overlaps),
	}

	a.logger.InfoContext(ctx, "monte carlo completed",
		"trials", cfg.Trials,
		"mean_rank_correlation", result.MeanRankCorrelation,
		"mean_rmse", result.MeanRMSE,
	)

	return result
}
