// Package sensitivity subjects a computed ACVI cohort to the statistical
// robustness battery: weight-scenario stability, multicollinearity
// diagnostics, Monte Carlo perturbation, and regional grouping tests.
// Each diagnostic is pure given the cohort snapshot, isolated from the
// others, and reproducible under a fixed seed.
package sensitivity

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"acvicli/internal/acvi"
)

// Thresholds for the pass/fail roll-up.
const (
	stableCorrelationBar = 0.90
	vifBar               = 10.0
	significanceAlpha    = 0.05
	topN                 = 10
)

// Analyzer runs the robustness battery against a cohort result. The
// seed drives every randomized diagnostic; identical seed and cohort
// give bit-identical reports.
type Analyzer struct {
	weights acvi.Weights
	seed    int64
	mcCfg   MonteCarloConfig
	logger  *slog.Logger
}

// NewAnalyzer creates an analyzer around the canonical weights.
func NewAnalyzer(weights acvi.Weights, seed int64, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		weights: weights,
		seed:    seed,
		mcCfg:   DefaultMonteCarloConfig(),
		logger:  logger,
	}
}

// SetMonteCarloConfig overrides the Monte Carlo parameters. Tests use
// this to collapse the noise to zero.
func (a *Analyzer) SetMonteCarloConfig(cfg MonteCarloConfig) {
	a.mcCfg = cfg
}

// Report aggregates the four diagnostics and the pass/fail roll-up.
type Report struct {
	RunID             string                  `json:"run_id"`
	GeneratedAt       time.Time               `json:"generated_at"`
	Seed              int64                   `json:"seed"`
	WeightSensitivity WeightSensitivityResult `json:"weight_sensitivity"`
	Multicollinearity CollinearityResult      `json:"multicollinearity"`
	MonteCarlo        MonteCarloResult        `json:"monte_carlo"`
	Regional          RegionalResult          `json:"regional"`
	ChecksPassed      int                     `json:"checks_passed"`
	TotalChecks       int                     `json:"total_checks"`
}

// Run executes all four diagnostics. Failures inside one diagnostic are
// recorded on its result and never prevent the others from completing.
func (a *Analyzer) Run(ctx context.Context, cohort *acvi.CohortResult) *Report {
	report := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Seed:        a.seed,
		TotalChecks: 4,
	}

	a.logger.InfoContext(ctx, "starting robustness analysis",
		"run_id", report.RunID,
		"cohort_run_id", cohort.RunID,
		"locations", len(cohort.Scores),
		"seed", a.seed,
	)

	report.WeightSensitivity = a.WeightSensitivity(ctx, cohort)
	report.Multicollinearity = a.Multicollinearity(ctx, cohort)
	report.MonteCarlo = a.MonteCarlo(ctx, cohort)
	report.Regional = a.Regional(ctx, cohort)

	if report.WeightSensitivity.MeanCorrelation > stableCorrelationBar {
		report.ChecksPassed++
	}
	if maxVIF(report.Multicollinearity) < vifBar {
		report.ChecksPassed++
	}
	if report.MonteCarlo.MeanRankCorrelation > stableCorrelationBar {
		report.ChecksPassed++
	}
	// Geography must NOT confound the index: the check passes when the
	// regional ANOVA is not significant.
	if !report.Regional.Skipped && !report.Regional.Significant {
		report.ChecksPassed++
	}

	a.logger.InfoContext(ctx, "robustness analysis completed",
		"run_id", report.RunID,
		"checks_passed", report.ChecksPassed,
		"total_checks", report.TotalChecks,
	)

	return report
}

func maxVIF(result CollinearityResult) float64 {
	max := 0.0
	for _, v := range result.VIF {
		if v > max {
			max = v
		}
	}
	return max
}

// topOverlap counts how many of the first n identifiers of both rankings
// coincide.
func topOverlap(a, b []string, n int) int {
	if n > len(a) {
		n = len(a)
	}
	inA := make(map[string]struct{}, n)
	for _, id := range a[:n] {
		inA[id] = struct{}{}
	}

	m := n
	if m > len(b) {
		m = len(b)
	}
	overlap := 0
	for _, id := range b[:m] {
		if _, ok := inA[id]; ok {
			overlap++
		}
	}
	return overlap
}
