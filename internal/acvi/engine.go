package acvi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"acvicli/internal/climate"
)

// Metrics receives pipeline counters. Implementations live in the
// observability layer; a nil Metrics disables instrumentation.
type Metrics interface {
	LocationProcessed(ctx context.Context)
	LocationExcluded(ctx context.Context)
	RunCompleted(ctx context.Context, duration time.Duration)
}

// Engine runs one full cohort pass: feature extraction, sub-index
// calculation, cohort normalization, composite scoring, and ranking.
type Engine struct {
	extractor   *climate.FeatureExtractor
	subindex    *SubIndexCalculator
	weights     Weights
	concurrency int
	logger      *slog.Logger
	metrics     Metrics
}

// NewEngine creates an engine with the given stages and canonical
// weights. concurrency bounds the parallel per-location extraction;
// values below 1 run sequentially.
func NewEngine(extractor *climate.FeatureExtractor, subindex *SubIndexCalculator, weights Weights, concurrency int, logger *slog.Logger) (*Engine, error) {
	if extractor == nil || subindex == nil {
		return nil, fmt.Errorf("extractor and subindex calculator are required")
	}
	if !weights.IsValid() {
		return nil, fmt.Errorf("invalid weights: %+v", weights)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		extractor:   extractor,
		subindex:    subindex,
		weights:     weights,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

// SetMetrics attaches pipeline instrumentation.
func (e *Engine) SetMetrics(m Metrics) {
	e.metrics = m
}

// Run processes the cohort. Locations failing data quality validation
// are excluded and reported, never silently defaulted; the run aborts
// only when no location survives. Normalization anchors are computed
// exactly once, from the full surviving cohort, before any composite
// score is produced.
func (e *Engine) Run(ctx context.Context, locations []climate.Location) (*CohortResult, error) {
	start := time.Now()
	runID := uuid.NewString()

	e.logger.InfoContext(ctx, "starting cohort pass",
		"run_id", runID,
		"locations", len(locations),
		"concurrency", e.concurrency,
	)

	if len(locations) == 0 {
		return nil, fmt.Errorf("no locations provided")
	}

	// Slot per input location so both the surviving cohort and the
	// exclusion list keep input order regardless of goroutine scheduling.
	subResults := make([]*SubIndexResult, len(locations))
	exclusions := make([]*Exclusion, len(locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, loc := range locations {
		i, loc := i, loc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			features, err := e.extractor.Extract(loc)
			if err != nil {
				var qualityErr *climate.DataQualityError
				if errors.As(err, &qualityErr) {
					e.logger.WarnContext(gctx, "excluding location",
						"run_id", runID,
						"location", loc.ID,
						"reason", qualityErr.Error(),
					)
					exclusions[i] = &Exclusion{LocationID: loc.ID, Reason: qualityErr.Error()}
					if e.metrics != nil {
						e.metrics.LocationExcluded(gctx)
					}
					return nil
				}
				return fmt.Errorf("extract %s: %w", loc.ID, err)
			}

			result := e.subindex.Compute(features)
			subResults[i] = &result
			if e.metrics != nil {
				e.metrics.LocationProcessed(gctx)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cohort pass: %w", err)
	}

	survivors := make([]*SubIndexResult, 0, len(locations))
	for _, r := range subResults {
		if r != nil {
			survivors = append(survivors, r)
		}
	}
	var excluded []Exclusion
	for _, ex := range exclusions {
		if ex != nil {
			excluded = append(excluded, *ex)
		}
	}
	if len(survivors) == 0 {
		return nil, fmt.Errorf("no locations survived data quality validation (%d excluded)", len(excluded))
	}

	raw := make([]ComponentSet, len(survivors))
	for i, r := range survivors {
		raw[i] = r.Raw
	}
	scale, err := NewCohortScale(raw)
	if err != nil {
		return nil, fmt.Errorf("compute cohort scale: %w", err)
	}

	scores := make([]LocationScore, len(survivors))
	for i, r := range survivors {
		normalized := scale.Normalize(r.Raw)
		scores[i] = LocationScore{
			LocationID: r.LocationID,
			Composite:  Score(normalized, e.weights),
			Normalized: normalized,
			Raw:        r.Raw,
			Degraded:   r.Degraded,
		}
	}
	Rank(scores)

	duration := time.Since(start)
	e.logger.InfoContext(ctx, "cohort pass completed",
		"run_id", runID,
		"scored", len(scores),
		"excluded", len(excluded),
		"duration", duration,
	)
	if e.metrics != nil {
		e.metrics.RunCompleted(ctx, duration)
	}

	return &CohortResult{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Weights:     e.weights,
		Scores:      scores,
		Excluded:    excluded,
		Scale:       scale,
	}, nil
}

// Rescore recomputes composite scores and ranking from an existing
// cohort result under different weights, without touching extraction or
// normalization. Used by the reporting surface for what-if weighting.
func Rescore(result *CohortResult, weights Weights) (*CohortResult, error) {
	if !weights.IsValid() {
		return nil, fmt.Errorf("invalid weights: %+v", weights)
	}

	scores := make([]LocationScore, len(result.Scores))
	copy(scores, result.Scores)
	for i := range scores {
		scores[i].Composite = Score(scores[i].Normalized, weights)
	}
	Rank(scores)

	return &CohortResult{
		RunID:       result.RunID,
		GeneratedAt: time.Now().UTC(),
		Weights:     weights,
		Scores:      scores,
		Excluded:    result.Excluded,
		Scale:       result.Scale,
	}, nil
}
