package climate

import (
	"fmt"
	"log/slog"
	"math"
)

// Fixed thresholds for the binary event flags. Heat and frost flags use
// fixed meteorological thresholds; crop-specific stress thresholds apply
// later in sub-index calculation.
const (
	DryDayPrecipThreshold = 1.0  // mm/day
	HeatDayTempThreshold  = 30.0 // °C on T2M_MAX
	FrostDayTempThreshold = 0.0  // °C on T2M_MIN

	// MaxMissingFraction is the per-parameter completeness bar for the
	// required base parameters.
	MaxMissingFraction = 0.3
)

// CropThresholds holds crop-specific temperatures used for degree-day
// and heat-stress calculations.
type CropThresholds struct {
	HeatStressTemp float64
	OptimalTemp    float64
	BaseTemp       float64
	MaxTemp        float64
}

// WheatThresholds returns thresholds for wheat.
func WheatThresholds() CropThresholds {
	return CropThresholds{HeatStressTemp: 30, OptimalTemp: 20, BaseTemp: 0, MaxTemp: 35}
}

// MaizeThresholds returns thresholds for maize.
func MaizeThresholds() CropThresholds {
	return CropThresholds{HeatStressTemp: 35, OptimalTemp: 25, BaseTemp: 10, MaxTemp: 40}
}

// ThresholdsForCrop returns the preset for the named crop, falling back
// to wheat for unknown crops.
func ThresholdsForCrop(crop string) CropThresholds {
	switch crop {
	case "maize":
		return MaizeThresholds()
	default:
		return WheatThresholds()
	}
}

// DataQualityError reports a location rejected for missing or incomplete
// required parameters. Rejected locations are excluded from all
// downstream steps rather than defaulted to zero.
type DataQualityError struct {
	LocationID  string
	Parameter   Parameter
	MissingFrac float64
	Reason      string
}

func (e *DataQualityError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("location %s: %s", e.LocationID, e.Reason)
	}
	return fmt.Sprintf("location %s: parameter %s is %.0f%% missing (limit %.0f%%)",
		e.LocationID, e.Parameter, e.MissingFrac*100, MaxMissingFraction*100)
}

// FeatureSet is the extractor output for one surviving location: the
// derived-field-augmented full series, the growing-season view used for
// index calculation, and the availability record of present signals.
type FeatureSet struct {
	LocationID   string
	Full         *TimeSeries
	Season       *TimeSeries
	Availability map[Parameter]bool
}

// Available reports whether the signal is present for this location.
func (fs *FeatureSet) Available(param Parameter) bool {
	return fs.Availability[param]
}

// FeatureExtractor derives per-day fields from a raw daily series and
// applies the growing-season filter. It performs quality validation and
// physical-limit screening before deriving anything.
type FeatureExtractor struct {
	season     GrowingSeason
	thresholds CropThresholds
	logger     *slog.Logger
}

// NewFeatureExtractor creates an extractor for the given growing season
// and crop thresholds.
func NewFeatureExtractor(season GrowingSeason, thresholds CropThresholds, logger *slog.Logger) (*FeatureExtractor, error) {
	if !season.Valid() {
		return nil, fmt.Errorf("invalid growing season months: %d-%d", season.StartMonth, season.EndMonth)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FeatureExtractor{season: season, thresholds: thresholds, logger: logger}, nil
}

// Extract validates, screens, and augments one location's series. It
// returns a DataQualityError when the location must be excluded.
func (fe *FeatureExtractor) Extract(loc Location) (*FeatureSet, error) {
	if loc.Series == nil || loc.Series.Len() == 0 {
		return nil, &DataQualityError{LocationID: loc.ID, Reason: "empty series"}
	}

	if err := fe.validateQuality(loc); err != nil {
		return nil, err
	}

	full := ScreenPhysicalLimits(loc.Series)
	fe.deriveFields(full)

	season := full.FilterSeason(fe.season)
	if season.Len() == 0 {
		// Degenerate month configuration or sparse series; index on the
		// full series rather than rejecting the location.
		fe.logger.Warn("no records in growing season, using full series",
			"location", loc.ID,
			"season_start", fe.season.StartMonth,
			"season_end", fe.season.EndMonth,
		)
		season = full
	}

	availability := make(map[Parameter]bool)
	for _, p := range season.Parameters() {
		if season.MissingFraction(p) < 1 {
			availability[p] = true
		}
	}

	return &FeatureSet{
		LocationID:   loc.ID,
		Full:         full,
		Season:       season,
		Availability: availability,
	}, nil
}

func (fe *FeatureExtractor) validateQuality(loc Location) error {
	for _, param := range RequiredParameters() {
		if !loc.Series.Has(param) {
			return &DataQualityError{
				LocationID: loc.ID,
				Parameter:  param,
				Reason:     fmt.Sprintf("required parameter %s missing", param),
			}
		}
		if frac := loc.Series.MissingFraction(param); frac > MaxMissingFraction {
			return &DataQualityError{LocationID: loc.ID, Parameter: param, MissingFrac: frac}
		}
	}
	return nil
}

// deriveFields appends the derived columns in place. Signals whose base
// parameters are absent are skipped; the availability record reflects
// what was actually derivable.
func (fe *FeatureExtractor) deriveFields(ts *TimeSeries) {
	n := ts.Len()

	if temps, ok := ts.Column(ParamT2M); ok {
		gdd := make([]float64, n)
		for i, t := range temps {
			if math.IsNaN(t) {
				gdd[i] = math.NaN()
				continue
			}
			gdd[i] = math.Max(0, t-fe.thresholds.BaseTemp)
		}
		ts.SetColumn(ParamGDD, gdd)
	}

	if temps, okT := ts.Column(ParamT2M); okT {
		if humidity, okH := ts.Column(ParamHumidity); okH {
			vpd := make([]float64, n)
			for i := range temps {
				vpd[i] = vaporPressureDeficit(temps[i], humidity[i])
			}
			ts.SetColumn(ParamVPD, vpd)
		}
	}

	if precip, ok := ts.Column(ParamPrecip); ok {
		dry := make([]float64, n)
		spell := make([]float64, n)
		run := 0.0
		for i, p := range precip {
			switch {
			case math.IsNaN(p):
				dry[i] = math.NaN()
				run = 0
			case p < DryDayPrecipThreshold:
				dry[i] = 1
				run++
			default:
				dry[i] = 0
				run = 0
			}
			spell[i] = run
		}
		ts.SetColumn(ParamDryDays, dry)
		ts.SetColumn(ParamDrySpellLength, spell)
	}

	if maxTemps, ok := ts.Column(ParamT2MMax); ok {
		heat := thresholdFlags(maxTemps, func(v float64) bool { return v > HeatDayTempThreshold })
		ts.SetColumn(ParamHeatDays, heat)
	}

	if minTemps, ok := ts.Column(ParamT2MMin); ok {
		frost := thresholdFlags(minTemps, func(v float64) bool { return v < FrostDayTempThreshold })
		ts.SetColumn(ParamFrostDays, frost)
	}
}

// vaporPressureDeficit computes VPD in kPa from air temperature (°C) and
// relative humidity (%) using the Tetens saturation vapor pressure
// formula.
func vaporPressureDeficit(temp, humidity float64) float64 {
	if math.IsNaN(temp) || math.IsNaN(humidity) {
		return math.NaN()
	}
	es := 0.6108 * math.Exp((17.27*temp)/(temp+237.3))
	ea := (humidity / 100.0) * es
	return es - ea
}

func thresholdFlags(values []float64, exceeds func(float64) bool) []float64 {
	flags := make([]float64, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			flags[i] = math.NaN()
		case exceeds(v):
			flags[i] = 1
		default:
			flags[i] = 0
		}
	}
	return flags
}

// physicalLimits are plausibility bounds per base parameter; values
// outside become missing before any derivation.
var physicalLimits = map[Parameter][2]float64{
	ParamT2M:      {-60, 60},
	ParamT2MRange: {0, 50},
	ParamT2MMin:   {-70, 55},
	ParamT2MMax:   {-50, 70},
	ParamPrecip:   {0, 500},
	ParamRootZone: {0, 1},
	ParamEvapo:    {0, 20},
	ParamHumidity: {0, 100},
	ParamWindMax:  {0, 60},
	ParamSolar:    {0, 50},
}

// ScreenPhysicalLimits returns a copy of the series with physically
// impossible values replaced by NaN.
func ScreenPhysicalLimits(ts *TimeSeries) *TimeSeries {
	screened := &TimeSeries{
		dates:   ts.dates,
		columns: make(map[Parameter][]float64, len(ts.columns)),
	}
	for param, col := range ts.columns {
		limits, bounded := physicalLimits[param]
		out := make([]float64, len(col))
		for i, v := range col {
			if bounded && !math.IsNaN(v) && (v < limits[0] || v > limits[1]) {
				out[i] = math.NaN()
				continue
			}
			out[i] = v
		}
		screened.columns[param] = out
	}
	return screened
}
