// Package config loads application configuration from environment
// variables with an optional YAML file. Explicitly set environment
// variables take precedence over the file, and file values take
// precedence over defaults; the prefix is ACVI (e.g. ACVI_SERVER_PORT).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"acvicli/internal/acvi"
	"acvicli/internal/climate"
)

// Config represents the complete application configuration.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Fetch    FetchConfig    `yaml:"fetch" envconfig:"FETCH"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/acvi.log"`
}

// PathsConfig names the on-disk layout.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data" validate:"required"`
	OutDir    string `yaml:"out_dir" envconfig:"OUT_DIR" default:"out" validate:"required"`
	YieldFile string `yaml:"yield_file" envconfig:"YIELD_FILE" default:""`
}

// FetchConfig controls the data acquisition command.
type FetchConfig struct {
	BaseURL     string        `yaml:"base_url" envconfig:"BASE_URL" default:""`
	StartDate   string        `yaml:"start_date" envconfig:"START_DATE" default:"2009-01-01" validate:"datetime=2006-01-02"`
	EndDate     string        `yaml:"end_date" envconfig:"END_DATE" default:"2023-12-31" validate:"datetime=2006-01-02"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"90s"`
	RatePerSec  float64       `yaml:"rate_per_sec" envconfig:"RATE_PER_SEC" default:"2" validate:"gt=0"`
	Concurrency int           `yaml:"concurrency" envconfig:"CONCURRENCY" default:"4" validate:"gte=1"`
}

// AnalysisConfig controls the index pipeline and robustness battery.
type AnalysisConfig struct {
	Crop             string  `yaml:"crop" envconfig:"CROP" default:"wheat" validate:"oneof=wheat maize"`
	SeasonStartMonth int     `yaml:"season_start_month" envconfig:"SEASON_START_MONTH" default:"4" validate:"gte=1,lte=12"`
	SeasonEndMonth   int     `yaml:"season_end_month" envconfig:"SEASON_END_MONTH" default:"10" validate:"gte=1,lte=12"`
	Seed             int64   `yaml:"seed" envconfig:"SEED" default:"42"`
	MonteCarloTrials int     `yaml:"monte_carlo_trials" envconfig:"MONTE_CARLO_TRIALS" default:"1000" validate:"gte=1"`
	Concurrency      int     `yaml:"concurrency" envconfig:"CONCURRENCY" default:"4" validate:"gte=1"`
	Weights          Weights `yaml:"weights" envconfig:"WEIGHTS"`
}

// Weights overrides the canonical component weights. Zero values fall
// back to the defaults.
type Weights struct {
	TemperatureVolatility   float64 `yaml:"temperature_volatility" envconfig:"TEMPERATURE_VOLATILITY" validate:"gte=0"`
	PrecipitationVolatility float64 `yaml:"precipitation_volatility" envconfig:"PRECIPITATION_VOLATILITY" validate:"gte=0"`
	MoistureStress          float64 `yaml:"moisture_stress" envconfig:"MOISTURE_STRESS" validate:"gte=0"`
	ExtremeEvents           float64 `yaml:"extreme_events" envconfig:"EXTREME_EVENTS" validate:"gte=0"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// Load builds the configuration: defaults and environment first, then
// the YAML file merged underneath — explicitly set environment variables
// win over the file, and file values win over envconfig defaults.
func Load(configFile string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("ACVI", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			var fileCfg Config
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			mergeFileConfig(&cfg, fileCfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// overlay applies the file value unless the file omitted it or the
// environment variable was set explicitly. envconfig fills defaults for
// unset variables, so env cannot be told from default by a zero test;
// the variable lookup can.
func overlay[T comparable](dst *T, fileVal T, envKey string) {
	var zero T
	if fileVal == zero {
		return
	}
	if _, set := os.LookupEnv(envKey); set {
		return
	}
	*dst = fileVal
}

// mergeFileConfig merges the file config under the env-loaded config.
func mergeFileConfig(cfg *Config, file Config) {
	overlay(&cfg.Logging.Level, file.Logging.Level, "ACVI_LOGGING_LEVEL")
	overlay(&cfg.Logging.Output, file.Logging.Output, "ACVI_LOGGING_OUTPUT")
	overlay(&cfg.Logging.FilePath, file.Logging.FilePath, "ACVI_LOGGING_FILE_PATH")

	overlay(&cfg.Paths.DataDir, file.Paths.DataDir, "ACVI_PATHS_DATA_DIR")
	overlay(&cfg.Paths.OutDir, file.Paths.OutDir, "ACVI_PATHS_OUT_DIR")
	overlay(&cfg.Paths.YieldFile, file.Paths.YieldFile, "ACVI_PATHS_YIELD_FILE")

	overlay(&cfg.Fetch.BaseURL, file.Fetch.BaseURL, "ACVI_FETCH_BASE_URL")
	overlay(&cfg.Fetch.StartDate, file.Fetch.StartDate, "ACVI_FETCH_START_DATE")
	overlay(&cfg.Fetch.EndDate, file.Fetch.EndDate, "ACVI_FETCH_END_DATE")
	overlay(&cfg.Fetch.Timeout, file.Fetch.Timeout, "ACVI_FETCH_TIMEOUT")
	overlay(&cfg.Fetch.RatePerSec, file.Fetch.RatePerSec, "ACVI_FETCH_RATE_PER_SEC")
	overlay(&cfg.Fetch.Concurrency, file.Fetch.Concurrency, "ACVI_FETCH_CONCURRENCY")

	overlay(&cfg.Analysis.Crop, file.Analysis.Crop, "ACVI_ANALYSIS_CROP")
	overlay(&cfg.Analysis.SeasonStartMonth, file.Analysis.SeasonStartMonth, "ACVI_ANALYSIS_SEASON_START_MONTH")
	overlay(&cfg.Analysis.SeasonEndMonth, file.Analysis.SeasonEndMonth, "ACVI_ANALYSIS_SEASON_END_MONTH")
	overlay(&cfg.Analysis.Seed, file.Analysis.Seed, "ACVI_ANALYSIS_SEED")
	overlay(&cfg.Analysis.MonteCarloTrials, file.Analysis.MonteCarloTrials, "ACVI_ANALYSIS_MONTE_CARLO_TRIALS")
	overlay(&cfg.Analysis.Concurrency, file.Analysis.Concurrency, "ACVI_ANALYSIS_CONCURRENCY")
	overlay(&cfg.Analysis.Weights.TemperatureVolatility, file.Analysis.Weights.TemperatureVolatility, "ACVI_ANALYSIS_WEIGHTS_TEMPERATURE_VOLATILITY")
	overlay(&cfg.Analysis.Weights.PrecipitationVolatility, file.Analysis.Weights.PrecipitationVolatility, "ACVI_ANALYSIS_WEIGHTS_PRECIPITATION_VOLATILITY")
	overlay(&cfg.Analysis.Weights.MoistureStress, file.Analysis.Weights.MoistureStress, "ACVI_ANALYSIS_WEIGHTS_MOISTURE_STRESS")
	overlay(&cfg.Analysis.Weights.ExtremeEvents, file.Analysis.Weights.ExtremeEvents, "ACVI_ANALYSIS_WEIGHTS_EXTREME_EVENTS")

	overlay(&cfg.Server.Port, file.Server.Port, "ACVI_SERVER_PORT")
	overlay(&cfg.Server.ReadTimeout, file.Server.ReadTimeout, "ACVI_SERVER_READ_TIMEOUT")
	overlay(&cfg.Server.WriteTimeout, file.Server.WriteTimeout, "ACVI_SERVER_WRITE_TIMEOUT")
	overlay(&cfg.Server.IdleTimeout, file.Server.IdleTimeout, "ACVI_SERVER_IDLE_TIMEOUT")
	overlay(&cfg.Server.ShutdownTimeout, file.Server.ShutdownTimeout, "ACVI_SERVER_SHUTDOWN_TIMEOUT")
}

// Validate checks the configuration against its struct constraints plus
// the cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	season := c.Season()
	if !season.Valid() {
		return fmt.Errorf("invalid growing season months %d-%d", c.Analysis.SeasonStartMonth, c.Analysis.SeasonEndMonth)
	}
	if !c.ComponentWeights().IsValid() {
		return fmt.Errorf("component weights must be non-negative with a positive sum")
	}

	start, err := time.Parse("2006-01-02", c.Fetch.StartDate)
	if err != nil {
		return fmt.Errorf("invalid fetch start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", c.Fetch.EndDate)
	if err != nil {
		return fmt.Errorf("invalid fetch end date: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("fetch end date %s precedes start date %s", c.Fetch.EndDate, c.Fetch.StartDate)
	}
	return nil
}

// Season returns the configured growing season.
func (c *Config) Season() climate.GrowingSeason {
	return climate.GrowingSeason{
		StartMonth: c.Analysis.SeasonStartMonth,
		EndMonth:   c.Analysis.SeasonEndMonth,
	}
}

// ComponentWeights returns the configured weights, or the canonical
// defaults when the section is untouched.
func (c *Config) ComponentWeights() acvi.Weights {
	w := acvi.Weights{
		TemperatureVolatility:   c.Analysis.Weights.TemperatureVolatility,
		PrecipitationVolatility: c.Analysis.Weights.PrecipitationVolatility,
		MoistureStress:          c.Analysis.Weights.MoistureStress,
		ExtremeEvents:           c.Analysis.Weights.ExtremeEvents,
	}
	if w.Sum() == 0 {
		return acvi.DefaultWeights()
	}
	return w
}

// FetchRange returns the parsed acquisition date range. Validate must
// have accepted the configuration first.
func (c *Config) FetchRange() (start, end time.Time) {
	start, _ = time.Parse("2006-01-02", c.Fetch.StartDate)
	end, _ = time.Parse("2006-01-02", c.Fetch.EndDate)
	return start, end
}
