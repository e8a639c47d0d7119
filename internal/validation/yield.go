// Package validation correlates computed ACVI scores against external
// per-country crop yield volatility ground truth. Scores are aggregated
// to country level, inner-joined with the yield table per crop, and
// tested with Pearson correlation at the 0.05 significance level.
package validation

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"acvicli/internal/stats"
)

// YieldRecord is one row of the external yield-volatility table.
type YieldRecord struct {
	Country     string  `json:"country"`
	Crop        string  `json:"crop"`
	MeanYield   float64 `json:"mean_yield"`
	CVYield     float64 `json:"cv_yield"`
	DetrendedCV float64 `json:"detrended_cv"`
}

// YieldVolatility summarizes one country-crop yield series.
type YieldVolatility struct {
	MeanYield   float64 `json:"mean_yield"`
	StdYield    float64 `json:"std_yield"`
	CVYield     float64 `json:"cv_yield"`
	DetrendedCV float64 `json:"detrended_cv"`
	MinYield    float64 `json:"min_yield"`
	MaxYield    float64 `json:"max_yield"`
}

// ComputeYieldVolatility derives volatility metrics from a yearly yield
// series. The detrended CV removes a linear fit over time before taking
// the standard deviation, so steady technological gains do not inflate
// volatility. Both CVs use the population standard deviation and are
// defined as 0 when the mean yield is not positive. Needs at least 3
// observations.
func ComputeYieldVolatility(yields []float64) (YieldVolatility, error) {
	if len(yields) < 3 {
		return YieldVolatility{}, fmt.Errorf("insufficient data: %d yield observations, need 3", len(yields))
	}

	mean := stats.Mean(yields)
	vol := YieldVolatility{
		MeanYield: mean,
		StdYield:  stats.PopStdDev(yields),
		MinYield:  yields[0],
		MaxYield:  yields[0],
	}
	for _, y := range yields {
		if y < vol.MinYield {
			vol.MinYield = y
		}
		if y > vol.MaxYield {
			vol.MaxYield = y
		}
	}

	if mean > 0 {
		vol.CVYield = vol.StdYield / mean * 100
		detrended := stats.LinearDetrend(yields)
		vol.DetrendedCV = stats.PopStdDev(detrended) / mean * 100
	}

	return vol, nil
}

var yieldColumns = []string{"country", "crop", "mean_yield", "cv_yield", "detrended_cv"}

// ReadYieldCSV parses a yield-volatility table from CSV. The header must
// carry the country, crop, mean_yield, cv_yield and detrended_cv columns
// in any order.
func ReadYieldCSV(r io.Reader) ([]YieldRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read yield header: %w", err)
	}
	index, err := yieldColumnIndex(header)
	if err != nil {
		return nil, err
	}

	var records []YieldRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read yield row: %w", err)
		}
		line++

		record, err := parseYieldRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("yield row %d: %w", line, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ReadYieldXLSX parses a yield-volatility table from the first sheet of
// an XLSX workbook, laid out like the CSV form with a header row.
func ReadYieldXLSX(path string) ([]YieldRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open yield workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	index, err := yieldColumnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	var records []YieldRecord
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		record, err := parseYieldRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("yield row %d: %w", i+2, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func yieldColumnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range yieldColumns {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("yield table missing column %q", required)
		}
	}
	return index, nil
}

func parseYieldRow(row []string, index map[string]int) (YieldRecord, error) {
	field := func(name string) (string, error) {
		i := index[name]
		if i >= len(row) {
			return "", fmt.Errorf("missing value for %q", name)
		}
		return strings.TrimSpace(row[i]), nil
	}
	number := func(name string) (float64, error) {
		s, err := field(name)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse %s %q: %w", name, s, err)
		}
		return v, nil
	}

	var record YieldRecord
	var err error
	if record.Country, err = field("country"); err != nil {
		return record, err
	}
	if record.Crop, err = field("crop"); err != nil {
		return record, err
	}
	record.Crop = strings.ToLower(record.Crop)
	if record.MeanYield, err = number("mean_yield"); err != nil {
		return record, err
	}
	if record.CVYield, err = number("cv_yield"); err != nil {
		return record, err
	}
	if record.DetrendedCV, err = number("detrended_cv"); err != nil {
		return record, err
	}
	return record, nil
}
