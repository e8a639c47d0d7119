package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"acvicli/internal/acvi"
)

// Exporter writes pipeline outputs under a base directory.
type Exporter struct {
	baseDir string
	logger  *slog.Logger
}

// New creates an exporter rooted at baseDir.
func New(baseDir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{baseDir: baseDir, logger: logger}
}

func (e *Exporter) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(e.baseDir, name)
}

func (e *Exporter) create(name string) (*os.File, string, error) {
	fullPath := e.resolve(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file: %w", err)
	}
	return file, fullPath, nil
}

// WriteScoresCSV writes the ranked cohort as a flat score table.
func (e *Exporter) WriteScoresCSV(name string, cohort *acvi.CohortResult) error {
	file, fullPath, err := e.create(name)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"location", "rank", "acvi_score"}
	for _, c := range acvi.Components() {
		header = append(header, string(c))
	}
	for _, c := range acvi.Components() {
		header = append(header, "raw_"+string(c))
	}
	header = append(header, "degraded")
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, s := range cohort.Scores {
		record := []string{s.LocationID, strconv.Itoa(s.Rank), formatScore(s.Composite)}
		for _, c := range acvi.Components() {
			record = append(record, formatScore(s.Normalized.Value(c)))
		}
		for _, c := range acvi.Components() {
			record = append(record, formatScore(s.Raw.Value(c)))
		}
		record = append(record, formatDegraded(s.Degraded))
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record for %s: %w", s.LocationID, err)
		}
	}

	e.logger.Info("wrote score table",
		slog.String("path", fullPath),
		slog.Int("locations", len(cohort.Scores)),
		slog.Int("excluded", len(cohort.Excluded)))
	return nil
}

// WriteJSON writes any structured result as indented JSON.
func (e *Exporter) WriteJSON(name string, v any) error {
	file, fullPath, err := e.create(name)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	e.logger.Info("wrote JSON result", slog.String("path", fullPath))
	return nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatDegraded(degraded []acvi.Component) string {
	if len(degraded) == 0 {
		return ""
	}
	parts := make([]string, len(degraded))
	for i, c := range degraded {
		parts[i] = string(c)
	}
	return strings.Join(parts, ";")
}
