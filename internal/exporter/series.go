package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"acvicli/internal/climate"
)

// WriteSeriesCSV writes one location's daily series in the layout the
// loader reads back: a date column followed by one column per parameter,
// NaN rendered as the missing sentinel.
func (e *Exporter) WriteSeriesCSV(name string, loc climate.Location) error {
	file, fullPath, err := e.create(name)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	params := loc.Series.Parameters()
	header := make([]string, 0, len(params)+1)
	header = append(header, "Date")
	for _, p := range params {
		header = append(header, string(p))
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	dates := loc.Series.Dates()
	record := make([]string, len(header))
	for i, date := range dates {
		record[0] = date.Format("2006-01-02")
		for j, p := range params {
			col, _ := loc.Series.Column(p)
			v := col[i]
			if math.IsNaN(v) {
				record[j+1] = strconv.FormatFloat(climate.MissingSentinel, 'f', -1, 64)
			} else {
				record[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record for %s: %w", loc.ID, err)
		}
	}

	e.logger.Info("wrote daily series",
		slog.String("path", fullPath),
		slog.String("location", loc.ID),
		slog.Int("records", loc.Series.Len()))
	return nil
}
