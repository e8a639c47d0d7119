// Command fetcher downloads daily agroclimatology series from NASA
// POWER for the standard site catalogue and writes one CSV per site in
// the layout the report command reads back.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"acvicli/internal/climate"
	"acvicli/internal/config"
	"acvicli/internal/exporter"
	"acvicli/internal/fetch"
	"acvicli/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to the YAML config overlay")
	outDir := flag.String("out", "", "output directory (defaults to the configured data dir)")
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

	if *outDir == "" {
		*outDir = cfg.Paths.DataDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := fetch.NewClient(fetch.Config{
		BaseURL:     cfg.Fetch.BaseURL,
		Timeout:     cfg.Fetch.Timeout,
		RatePerSec:  cfg.Fetch.RatePerSec,
		Concurrency: cfg.Fetch.Concurrency,
	}, logger)

	sites := fetch.DefaultSites()
	start, end := cfg.FetchRange()
	logger.InfoContext(ctx, "starting acquisition",
		"sites", len(sites),
		"start", cfg.Fetch.StartDate,
		"end", cfg.Fetch.EndDate,
		"out", *outDir,
	)

	locations, err := client.FetchAll(ctx, sites, start, end)
	if err != nil {
		logger.ErrorContext(ctx, "acquisition failed", "error", err)
		os.Exit(1)
	}

	exp := exporter.New(*outDir, logger)
	failed := 0
	for _, loc := range locations {
		name := filepath.Join(loc.ID, fmt.Sprintf("acvi_%s_%d-%d.csv",
			loc.ID, start.Year(), end.Year()))
		if err := exp.WriteSeriesCSV(name, loc); err != nil {
			logger.ErrorContext(ctx, "failed to write series", "location", loc.ID, "error", err)
			failed++
			continue
		}

		quality := climate.Describe(loc.Series)
		for _, p := range climate.RequiredParameters() {
			ps := quality[p]
			logger.InfoContext(ctx, "parameter quality",
				"location", loc.ID,
				"parameter", string(p),
				"mean", ps.Mean,
				"cv", ps.CV,
				"missing_pct", ps.MissingPct,
				"outlier_days", ps.OutlierDays,
			)
		}
	}

	logger.InfoContext(ctx, "acquisition complete",
		"downloaded", len(locations),
		"failed_sites", len(sites)-len(locations),
		"failed_writes", failed,
	)
	if failed > 0 {
		os.Exit(1)
	}
}
