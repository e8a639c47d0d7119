package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics instruments the index pipeline. It satisfies the
// engine's Metrics interface.
type PipelineMetrics struct {
	locationsProcessed metric.Int64Counter
	locationsExcluded  metric.Int64Counter
	runDuration        metric.Float64Histogram
}

// NewPipelineMetrics registers the pipeline instruments on the meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	processed, err := meter.Int64Counter("acvi_locations_processed_total",
		metric.WithDescription("Locations that produced sub-index scores"))
	if err != nil {
		return nil, fmt.Errorf("failed to create processed counter: %w", err)
	}

	excluded, err := meter.Int64Counter("acvi_locations_excluded_total",
		metric.WithDescription("Locations excluded by data quality validation"))
	if err != nil {
		return nil, fmt.Errorf("failed to create excluded counter: %w", err)
	}

	duration, err := meter.Float64Histogram("acvi_run_duration_seconds",
		metric.WithDescription("Duration of full cohort passes"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &PipelineMetrics{
		locationsProcessed: processed,
		locationsExcluded:  excluded,
		runDuration:        duration,
	}, nil
}

func (m *PipelineMetrics) LocationProcessed(ctx context.Context) {
	m.locationsProcessed.Add(ctx, 1)
}

func (m *PipelineMetrics) LocationExcluded(ctx context.Context) {
	m.locationsExcluded.Add(ctx, 1)
}

func (m *PipelineMetrics) RunCompleted(ctx context.Context, duration time.Duration) {
	m.runDuration.Record(ctx, duration.Seconds())
}
