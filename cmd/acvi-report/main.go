// Command acvi-report runs the full pipeline over a downloaded dataset:
// feature extraction, sub-indices, cohort normalization, composite
// scoring, the robustness battery, and (when a yield table is supplied)
// external validation. Results land as CSV, JSON, and an XLSX workbook.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"acvicli/internal/acvi"
	"acvicli/internal/climate"
	"acvicli/internal/config"
	"acvicli/internal/exporter"
	"acvicli/internal/infrastructure"
	"acvicli/internal/sensitivity"
	"acvicli/internal/validation"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to the YAML config overlay")
	dataDir := flag.String("data", "", "dataset directory (defaults to the configured data dir)")
	outDir := flag.String("out", "", "output directory (defaults to the configured out dir)")
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
	if *outDir == "" {
		*outDir = cfg.Paths.OutDir
	}
	if *yieldFile == "" {
		*yieldFile = cfg.Paths.YieldFile
	}

	ctx := context.Background()

	locations, err := climate.LoadDirectory(*dataDir)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load dataset", "dir", *dataDir, "error", err)
		os.Exit(1)
	}
	if len(locations) == 0 {
		logger.ErrorContext(ctx, "no locations found", "dir", *dataDir)
		os.Exit(1)
	}

	thresholds := climate.ThresholdsForCrop(cfg.Analysis.Crop)
	extractor, err := climate.NewFeatureExtractor(cfg.Season(), thresholds, logger)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build feature extractor", "error", err)
		os.Exit(1)
	}
	calc := acvi.NewSubIndexCalculator(thresholds, logger)

	weights := cfg.ComponentWeights()
	engine, err := acvi.NewEngine(extractor, calc, weights, cfg.Analysis.Concurrency, logger)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build engine", "error", err)
		os.Exit(1)
	}

	cohort, err := engine.Run(ctx, locations)
	if err != nil {
		logger.ErrorContext(ctx, "cohort pass failed", "error", err)
		os.Exit(1)
	}

	analyzer := sensitivity.NewAnalyzer(weights, cfg.Analysis.Seed, logger)
	mcCfg := sensitivity.DefaultMonteCarloConfig()
	mcCfg.Trials = cfg.Analysis.MonteCarloTrials
	analyzer.SetMonteCarloConfig(mcCfg)
	robustness := analyzer.Run(ctx, cohort)

	var valReport *validation.Report
	if *yieldFile != "" {
		records, err := loadYieldTable(*yieldFile)
		if err != nil {
			logger.ErrorContext(ctx, "failed to load yield table", "path", *yieldFile, "error", err)
			os.Exit(1)
		}
		valReport = validation.NewCorrelator(logger).Validate(ctx, cohort, records)
	}

	exp := exporter.New(*outDir, logger)
	if err := exp.WriteScoresCSV("acvi_scores.csv", cohort); err != nil {
		logger.ErrorContext(ctx, "failed to export scores", "error", err)
		os.Exit(1)
	}
	if err := exp.WriteJSON("acvi_results.json", cohort); err != nil {
		logger.ErrorContext(ctx, "failed to export results", "error", err)
		os.Exit(1)
	}
	if err := exp.WriteJSON("robustness_report.json", robustness); err != nil {
		logger.ErrorContext(ctx, "failed to export robustness report", "error", err)
		os.Exit(1)
	}
	if valReport != nil {
		if err := exp.WriteJSON("validation_report.json", valReport); err != nil {
			logger.ErrorContext(ctx, "failed to export validation report", "error", err)
			os.Exit(1)
		}
	}
	if err := exp.WriteWorkbook("acvi_report.xlsx", cohort, robustness, valReport); err != nil {
		logger.ErrorContext(ctx, "failed to export workbook", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "report complete",
		"scored", len(cohort.Scores),
		"excluded", len(cohort.Excluded),
		"checks_passed", robustness.ChecksPassed,
		"total_checks", robustness.TotalChecks,
	)
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
