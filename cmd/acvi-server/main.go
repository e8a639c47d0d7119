// Command acvi-server computes the index over a downloaded dataset and
// serves the results over the JSON API, with Prometheus metrics at
// /metrics.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"acvicli/internal/acvi"
	"acvicli/internal/climate"
	"acvicli/internal/config"
	"acvicli/internal/infrastructure"
	"acvicli/internal/sensitivity"
	transport "acvicli/internal/transport/http"
	"acvicli/internal/validation"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to the YAML config overlay")
	dataDir := flag.String("data", "", "dataset directory (defaults to the configured data dir)")
	yieldFile := flag.String("yield", "", "yield-volatility table, .csv or .xlsx (defaults to the configured path)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if *dataDir == "" {
		*dataDir = cfg.Paths.DataDir
	}
	if *yieldFile == "" {
		*yieldFile = cfg.Paths.YieldFile
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := infrastructure.InitializeObservability(logger)
	if err != nil {
		logger.ErrorContext(ctx, "failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer obs.Shutdown(context.Background())

	store := transport.NewStore()
	if err := runPipeline(ctx, cfg, *dataDir, *yieldFile, obs, store, logger); err != nil {
		logger.ErrorContext(ctx, "pipeline failed", "error", err)
		os.Exit(1)
	}

	server := transport.NewServer(cfg.Server, store, obs.PrometheusHTTP, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.ErrorContext(ctx, "server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}

// runPipeline computes the cohort, robustness and validation results and
// publishes them to the store the API serves from.
func runPipeline(ctx context.Context, cfg *config.Config, dataDir, yieldFile string, obs *infrastructure.Observability, store *transport.Store, logger *slog.Logger) error {
	locations, err := climate.LoadDirectory(dataDir)
	if err != nil {
		return err
	}

	thresholds := climate.ThresholdsForCrop(cfg.Analysis.Crop)
	extractor, err := climate.NewFeatureExtractor(cfg.Season(), thresholds, logger)
	if err != nil {
		return err
	}

	weights := cfg.ComponentWeights()
	engine, err := acvi.NewEngine(extractor, acvi.NewSubIndexCalculator(thresholds, logger), weights, cfg.Analysis.Concurrency, logger)
	if err != nil {
		return err
	}

	metrics, err := infrastructure.NewPipelineMetrics(obs.Meter)
	if err != nil {
		return err
	}
	engine.SetMetrics(metrics)

	cohort, err := engine.Run(ctx, locations)
	if err != nil {
		return err
	}
	store.SetCohort(cohort)

	analyzer := sensitivity.NewAnalyzer(weights, cfg.Analysis.Seed, logger)
	mcCfg := sensitivity.DefaultMonteCarloConfig()
	mcCfg.Trials = cfg.Analysis.MonteCarloTrials
	analyzer.SetMonteCarloConfig(mcCfg)
	store.SetRobustness(analyzer.Run(ctx, cohort))

	if yieldFile != "" {
		records, err := loadYieldTable(yieldFile)
		if err != nil {
			return err
		}
		store.SetValidation(validation.NewCorrelator(logger).Validate(ctx, cohort, records))
	}
	return nil
}

func loadYieldTable(path string) ([]validation.YieldRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return validation.ReadYieldXLSX(path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return validation.ReadYieldCSV(file)
}
