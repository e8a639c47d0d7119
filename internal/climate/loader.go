package climate

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MissingSentinel is the fill value the acquisition source uses for
// missing observations.
const MissingSentinel = -999.0

// ReadSeriesCSV parses a date-indexed parameter table. The first column
// is the date (2006-01-02); remaining headers name parameters. Empty
// cells and the -999 sentinel become NaN.
func ReadSeriesCSV(r io.Reader) (*TimeSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("expected date column plus at least one parameter, got %d columns", len(header))
	}

	params := make([]Parameter, len(header)-1)
	for i, name := range header[1:] {
		params[i] = Parameter(strings.TrimSpace(name))
	}

	var dates []time.Time
	columns := make(map[Parameter][]float64, len(params))
	for _, p := range params {
		columns[p] = nil
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		line++

		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: parse date %q: %w", line, record[0], err)
		}
		dates = append(dates, date)

		for i, p := range params {
			columns[p] = append(columns[p], parseCell(record[i+1]))
		}
	}

	return NewTimeSeries(dates, columns)
}

func parseCell(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || v == MissingSentinel {
		return math.NaN()
	}
	return v
}

// LoadDirectory reads one CSV per location subdirectory (the first .csv
// found, matching the acquisition layout) and returns locations sorted
// by identifier for a deterministic cohort order.
func LoadDirectory(dir string) ([]Location, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}

	var locations []Location
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		matches, err := filepath.Glob(filepath.Join(dir, entry.Name(), "*.csv"))
		if err != nil || len(matches) == 0 {
			continue
		}
		sort.Strings(matches)

		file, err := os.Open(matches[0])
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", matches[0], err)
		}
		series, err := ReadSeriesCSV(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", matches[0], err)
		}

		locations = append(locations, Location{ID: entry.Name(), Series: series})
	}

	sort.Slice(locations, func(i, j int) bool { return locations[i].ID < locations[j].ID })
	return locations, nil
}
