package acvi

import (
	"fmt"

	"acvicli/internal/stats"
)

// ComponentScale holds the robust scaling anchors for one component
// across the cohort. Degenerate marks a component whose 5th and 95th
// percentiles coincide; every location then normalizes to 50.
type ComponentScale struct {
	P5         float64 `json:"p5"`
	P95        float64 `json:"p95"`
	Degenerate bool    `json:"degenerate"`
}

// CohortScale is the immutable normalization snapshot for one full
// cohort pass. It must be computed from the complete surviving cohort
// before any composite score is produced, and is never reused across
// cohort passes.
type CohortScale struct {
	Scales map[Component]ComponentScale `json:"scales"`
	Size   int                          `json:"size"`
}

// NewCohortScale computes the per-component 5th/95th percentile anchors
// from the raw sub-index values of every surviving location. Percentiles
// use linear interpolation over the sorted sample.
func NewCohortScale(raw []ComponentSet) (*CohortScale, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty cohort")
	}

	scale := &CohortScale{
		Scales: make(map[Component]ComponentScale, 4),
		Size:   len(raw),
	}

	for _, component := range Components() {
		values := make([]float64, len(raw))
		for i, set := range raw {
			values[i] = set.Value(component)
		}

		p5 := stats.Percentile(values, 0.05)
		p95 := stats.Percentile(values, 0.95)
		scale.Scales[component] = ComponentScale{
			P5:         p5,
			P95:        p95,
			Degenerate: p95 == p5,
		}
	}

	return scale, nil
}

// Normalize maps one location's raw sub-indices onto the cohort's 0-100
// scale: clip(100*(raw-p5)/(p95-p5), 0, 100), or 50 for a degenerate
// component.
func (s *CohortScale) Normalize(raw ComponentSet) ComponentSet {
	var normalized ComponentSet
	for _, component := range Components() {
		anchors := s.Scales[component]
		if anchors.Degenerate {
			normalized.Set(component, 50.0)
			continue
		}
		v := (raw.Value(component) - anchors.P5) / (anchors.P95 - anchors.P5) * 100
		normalized.Set(component, stats.Clip(v, 0, 100))
	}
	return normalized
}
