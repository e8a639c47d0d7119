package acvi

import (
	"log/slog"
	"math"

	"acvicli/internal/climate"
	"acvicli/internal/stats"
)

// Normalization anchors for the extreme-events signals: the annual count
// at which each event type saturates to 100.
const (
	heatDaysSaturation  = 30.0
	frostDaysSaturation = 20.0
	dryDaysSaturation   = 90.0

	// VPD above this (kPa) is full crop stress.
	vpdStressThreshold = 2.5
)

// SubIndexCalculator combines extracted features into the four raw
// sub-indices per location. Each sub-index is the arithmetic mean of its
// available component signals; unavailable signals are skipped, and a
// sub-index with no signals at all is defined as 0 and flagged degraded.
type SubIndexCalculator struct {
	thresholds climate.CropThresholds
	logger     *slog.Logger
}

// NewSubIndexCalculator creates a calculator with the given crop
// thresholds.
func NewSubIndexCalculator(thresholds climate.CropThresholds, logger *slog.Logger) *SubIndexCalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubIndexCalculator{thresholds: thresholds, logger: logger}
}

// Compute derives the raw sub-index set for one location from its
// growing-season features.
func (c *SubIndexCalculator) Compute(fs *climate.FeatureSet) SubIndexResult {
	result := SubIndexResult{LocationID: fs.LocationID}

	result.Raw.TemperatureVolatility = c.finalize(fs, TemperatureVolatility, c.temperatureSignals(fs), &result)
	result.Raw.PrecipitationVolatility = c.finalize(fs, PrecipitationVolatility, c.precipitationSignals(fs), &result)
	result.Raw.MoistureStress = c.finalize(fs, MoistureStress, c.moistureSignals(fs), &result)
	result.Raw.ExtremeEvents = c.finalize(fs, ExtremeEvents, c.extremeSignals(fs), &result)

	return result
}

func (c *SubIndexCalculator) finalize(fs *climate.FeatureSet, component Component, signals []float64, result *SubIndexResult) float64 {
	if len(signals) == 0 {
		c.logger.Warn("no signals available for sub-index, defining as 0",
			"location", fs.LocationID,
			"component", string(component),
		)
		result.Degraded = append(result.Degraded, component)
		return 0
	}
	return stats.Mean(signals)
}

func (c *SubIndexCalculator) temperatureSignals(fs *climate.FeatureSet) []float64 {
	var signals []float64
	season := fs.Season

	if fs.Available(climate.ParamT2MRange) {
		signals = append(signals, stats.CV(season.YearlyMeans(climate.ParamT2MRange)))
	}
	if fs.Available(climate.ParamT2M) {
		signals = append(signals, stats.CV(season.YearlyMeans(climate.ParamT2M)))
	}

	// Heat stress share of days above the crop threshold; prefer the
	// daily maximum when carried.
	tempParam := climate.Parameter("")
	switch {
	case fs.Available(climate.ParamT2MMax):
		tempParam = climate.ParamT2MMax
	case fs.Available(climate.ParamT2M):
		tempParam = climate.ParamT2M
	}
	if tempParam != "" {
		col, _ := season.Column(tempParam)
		exceeded := 0
		for _, v := range col {
			if !math.IsNaN(v) && v > c.thresholds.HeatStressTemp {
				exceeded++
			}
		}
		if len(col) > 0 {
			signals = append(signals, float64(exceeded)/float64(len(col))*100)
		}
	}

	if fs.Available(climate.ParamGDD) {
		signals = append(signals, stats.CV(season.YearlyMeans(climate.ParamGDD)))
	}

	return signals
}

func (c *SubIndexCalculator) precipitationSignals(fs *climate.FeatureSet) []float64 {
	var signals []float64
	season := fs.Season

	if fs.Available(climate.ParamPrecip) {
		signals = append(signals, stats.CV(season.YearlyMeans(climate.ParamPrecip)))
		signals = append(signals, stats.CV(season.YearlySums(climate.ParamPrecip)))
	}

	if fs.Available(climate.ParamDrySpellLength) {
		col, _ := season.Column(climate.ParamDrySpellLength)
		maxSpell := 0.0
		for _, v := range col {
			if !math.IsNaN(v) && v > maxSpell {
				maxSpell = v
			}
		}
		signals = append(signals, maxSpell)
	}

	return signals
}

func (c *SubIndexCalculator) moistureSignals(fs *climate.FeatureSet) []float64 {
	var signals []float64
	season := fs.Season

	if fs.Available(climate.ParamRootZone) {
		col, _ := season.Column(climate.ParamRootZone)
		meanMoisture := stats.Mean(col)
		if !math.IsNaN(meanMoisture) {
			signals = append(signals, (1-meanMoisture)*100)
		}
		signals = append(signals, stats.CV(season.YearlyMeans(climate.ParamRootZone)))
	}

	if fs.Available(climate.ParamVPD) {
		col, _ := season.Column(climate.ParamVPD)
		meanVPD := stats.Mean(col)
		if !math.IsNaN(meanVPD) {
			signals = append(signals, math.Min(meanVPD/vpdStressThreshold*100, 100))
		}
	}

	if fs.Available(climate.ParamEvapo) {
		signals = append(signals, stats.CV(season.YearlyMeans(climate.ParamEvapo)))
	}

	return signals
}

func (c *SubIndexCalculator) extremeSignals(fs *climate.FeatureSet) []float64 {
	var signals []float64
	season := fs.Season

	annualEventSignal := func(param climate.Parameter, saturation float64) (float64, bool) {
		if !fs.Available(param) {
			return 0, false
		}
		perYear := stats.Mean(season.YearlySums(param))
		if math.IsNaN(perYear) {
			return 0, false
		}
		return math.Min(perYear/saturation*100, 100), true
	}

	if v, ok := annualEventSignal(climate.ParamHeatDays, heatDaysSaturation); ok {
		signals = append(signals, v)
	}
	if v, ok := annualEventSignal(climate.ParamFrostDays, frostDaysSaturation); ok {
		signals = append(signals, v)
	}
	if v, ok := annualEventSignal(climate.ParamDryDays, dryDaysSaturation); ok {
		signals = append(signals, v)
	}

	if fs.Available(climate.ParamWindMax) {
		col, _ := season.Column(climate.ParamWindMax)
		signals = append(signals, extremeFrequency(col, 0.95)*100)
	}

	if fs.Available(climate.ParamSolar) {
		signals = append(signals, stats.CV(season.YearlyMeans(climate.ParamSolar)))
	}

	return signals
}

// extremeFrequency returns the fraction of finite values strictly above
// the given quantile of the same sample.
func extremeFrequency(values []float64, quantile float64) float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0
	}

	threshold := stats.Percentile(finite, quantile)
	count := 0
	for _, v := range finite {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(finite))
}
