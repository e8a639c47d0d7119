package acvi

import (
	"fmt"
	"time"
)

// Component names one of the four ACVI sub-indices.
type Component string

const (
	TemperatureVolatility   Component = "temperature_volatility"
	PrecipitationVolatility Component = "precipitation_volatility"
	MoistureStress          Component = "moisture_stress"
	ExtremeEvents           Component = "extreme_events"
)

// Components returns the four sub-index names in canonical order.
func Components() [4]Component {
	return [4]Component{TemperatureVolatility, PrecipitationVolatility, MoistureStress, ExtremeEvents}
}

// ComponentSet maps the four components to real values. It holds raw
// sub-index scores (unbounded, component-specific scales) or normalized
// scores (0-100) depending on context.
type ComponentSet struct {
	TemperatureVolatility   float64 `json:"temperature_volatility"`
	PrecipitationVolatility float64 `json:"precipitation_volatility"`
	MoistureStress          float64 `json:"moisture_stress"`
	ExtremeEvents           float64 `json:"extreme_events"`
}

// Value returns the score for the named component.
func (cs ComponentSet) Value(c Component) float64 {
	switch c {
	case TemperatureVolatility:
		return cs.TemperatureVolatility
	case PrecipitationVolatility:
		return cs.PrecipitationVolatility
	case MoistureStress:
		return cs.MoistureStress
	case ExtremeEvents:
		return cs.ExtremeEvents
	}
	return 0
}

// Set assigns the score for the named component.
func (cs *ComponentSet) Set(c Component, v float64) {
	switch c {
	case TemperatureVolatility:
		cs.TemperatureVolatility = v
	case PrecipitationVolatility:
		cs.PrecipitationVolatility = v
	case MoistureStress:
		cs.MoistureStress = v
	case ExtremeEvents:
		cs.ExtremeEvents = v
	}
}

// Weights maps the four components to non-negative weights. Raw
// aggregation does not require the weights to sum to 1; the canonical
// default weights do.
type Weights struct {
	TemperatureVolatility   float64 `json:"temperature_volatility" validate:"gte=0"`
	PrecipitationVolatility float64 `json:"precipitation_volatility" validate:"gte=0"`
	MoistureStress          float64 `json:"moisture_stress" validate:"gte=0"`
	ExtremeEvents           float64 `json:"extreme_events" validate:"gte=0"`
}

// DefaultWeights returns the canonical weighting scheme.
func DefaultWeights() Weights {
	return Weights{
		TemperatureVolatility:   0.30,
		PrecipitationVolatility: 0.30,
		MoistureStress:          0.25,
		ExtremeEvents:           0.15,
	}
}

// Value returns the weight for the named component.
func (w Weights) Value(c Component) float64 {
	switch c {
	case TemperatureVolatility:
		return w.TemperatureVolatility
	case PrecipitationVolatility:
		return w.PrecipitationVolatility
	case MoistureStress:
		return w.MoistureStress
	case ExtremeEvents:
		return w.ExtremeEvents
	}
	return 0
}

// Set assigns the weight for the named component.
func (w *Weights) Set(c Component, v float64) {
	switch c {
	case TemperatureVolatility:
		w.TemperatureVolatility = v
	case PrecipitationVolatility:
		w.PrecipitationVolatility = v
	case MoistureStress:
		w.MoistureStress = v
	case ExtremeEvents:
		w.ExtremeEvents = v
	}
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.TemperatureVolatility + w.PrecipitationVolatility + w.MoistureStress + w.ExtremeEvents
}

// IsValid checks that all weights are non-negative and at least one is
// positive.
func (w Weights) IsValid() bool {
	if w.TemperatureVolatility < 0 || w.PrecipitationVolatility < 0 ||
		w.MoistureStress < 0 || w.ExtremeEvents < 0 {
		return false
	}
	return w.Sum() > 0
}

// Normalized returns a copy of the weights rescaled to sum to 1.
func (w Weights) Normalized() (Weights, error) {
	sum := w.Sum()
	if sum <= 0 {
		return Weights{}, fmt.Errorf("weights sum to %g, cannot normalize", sum)
	}
	return Weights{
		TemperatureVolatility:   w.TemperatureVolatility / sum,
		PrecipitationVolatility: w.PrecipitationVolatility / sum,
		MoistureStress:          w.MoistureStress / sum,
		ExtremeEvents:           w.ExtremeEvents / sum,
	}, nil
}

// SubIndexResult carries one location's raw sub-indices plus the
// components that had no available signals and were defined as 0.
type SubIndexResult struct {
	LocationID string       `json:"location_id"`
	Raw        ComponentSet `json:"raw"`
	Degraded   []Component  `json:"degraded,omitempty"`
}

// LocationScore is the scored output for one surviving location.
type LocationScore struct {
	LocationID string       `json:"location_id"`
	Composite  float64      `json:"composite"`
	Normalized ComponentSet `json:"normalized"`
	Raw        ComponentSet `json:"raw"`
	Degraded   []Component  `json:"degraded,omitempty"`
	Rank       int          `json:"rank"`
}

// Exclusion records a location dropped during extraction with the
// data-quality reason.
type Exclusion struct {
	LocationID string `json:"location_id"`
	Reason     string `json:"reason"`
}

// CohortResult is the full outcome of one cohort pass: ranked scores,
// the normalization snapshot they were produced under, and the
// exclusions.
type CohortResult struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Weights     Weights         `json:"weights"`
	Scores      []LocationScore `json:"scores"`
	Excluded    []Exclusion     `json:"excluded,omitempty"`
	Scale       *CohortScale    `json:"scale"`
}

// Ranking returns the location identifiers in rank order.
func (r *CohortResult) Ranking() []string {
	ids := make([]string, len(r.Scores))
	for i, s := range r.Scores {
		ids[i] = s.LocationID
	}
	return ids
}
