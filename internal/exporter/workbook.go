package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"acvicli/internal/acvi"
	"acvicli/internal/sensitivity"
	"acvicli/internal/validation"
)

// WriteWorkbook writes the full run as a multi-sheet XLSX report. The
// robustness and validation sheets are omitted when the corresponding
// report is nil.
func (e *Exporter) WriteWorkbook(name string, cohort *acvi.CohortResult, robustness *sensitivity.Report, valReport *validation.Report) error {
	fullPath := e.resolve(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeScoresSheet(f, cohort); err != nil {
		return err
	}
	if robustness != nil {
		if err := writeRobustnessSheet(f, robustness); err != nil {
			return err
		}
	}
	if valReport != nil {
		if err := writeValidationSheet(f, valReport); err != nil {
			return err
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("wrote report workbook", slog.String("path", fullPath))
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to build cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func writeScoresSheet(f *excelize.File, cohort *acvi.CohortResult) error {
	const sheet = "Scores"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := []any{"location", "rank", "acvi_score"}
	for _, c := range acvi.Components() {
		header = append(header, string(c))
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}

	for i, s := range cohort.Scores {
		row := []any{s.LocationID, s.Rank, s.Composite}
		for _, c := range acvi.Components() {
			row = append(row, s.Normalized.Value(c))
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	offset := len(cohort.Scores) + 3
	if len(cohort.Excluded) > 0 {
		if err := setRow(f, sheet, offset, []any{"excluded", "reason"}); err != nil {
			return err
		}
		for i, ex := range cohort.Excluded {
			if err := setRow(f, sheet, offset+1+i, []any{ex.LocationID, ex.Reason}); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRobustnessSheet(f *excelize.File, report *sensitivity.Report) error {
	const sheet = "Robustness"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
	}

	rows := [][]any{
		{"checks_passed", report.ChecksPassed, "of", report.TotalChecks},
		{"seed", report.Seed},
		{},
		{"weight_sensitivity"},
		{"mean_rank_correlation", report.WeightSensitivity.MeanCorrelation},
		{"min_rank_correlation", report.WeightSensitivity.MinCorrelation},
		{"scenarios_above_0.9", report.WeightSensitivity.ScenariosAbove90},
		{},
		{"scenario", "rank_correlation", "score_correlation", "top10_overlap"},
	}
	for _, s := range report.WeightSensitivity.Scenarios {
		rows = append(rows, []any{s.Name, s.RankCorrelation, s.ScoreCorrelation, s.Top10Overlap})
	}

	rows = append(rows,
		[]any{},
		[]any{"multicollinearity", report.Multicollinearity.Assessment},
		[]any{"component", "vif"},
	)
	for _, c := range acvi.Components() {
		rows = append(rows, []any{string(c), report.Multicollinearity.VIF[c]})
	}

	rows = append(rows,
		[]any{},
		[]any{"monte_carlo", report.MonteCarlo.Trials},
		[]any{"mean_rank_correlation", report.MonteCarlo.MeanRankCorrelation},
		[]any{"p5_rank_correlation", report.MonteCarlo.P5RankCorrelation},
		[]any{"p95_rank_correlation", report.MonteCarlo.P95RankCorrelation},
		[]any{"mean_rmse", report.MonteCarlo.MeanRMSE},
		[]any{"mean_top10_overlap", report.MonteCarlo.MeanTop10Overlap},
	)

	rows = append(rows, []any{}, []any{"regional_anova"})
	if report.Regional.Skipped {
		rows = append(rows, []any{"skipped", report.Regional.SkipReason})
	} else {
		rows = append(rows,
			[]any{"f_statistic", report.Regional.FStatistic},
			[]any{"p_value", report.Regional.PValue},
			[]any{"significant", report.Regional.Significant},
		)
		regions := make([]string, 0, len(report.Regional.Regions))
		for name := range report.Regional.Regions {
			regions = append(regions, name)
		}
		sort.Strings(regions)
		rows = append(rows, []any{"region", "mean", "std", "count"})
		for _, name := range regions {
			rs := report.Regional.Regions[name]
			rows = append(rows, []any{name, rs.Mean, rs.Std, rs.Count})
		}
	}

	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func writeValidationSheet(f *excelize.File, report *validation.Report) error {
	const sheet = "Validation"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
	}

	rows := [][]any{
		{"crop", "metric", "correlation", "p_value", "significant", "n_samples"},
	}
	for _, crop := range report.Crops {
		if crop.Skipped {
			rows = append(rows, []any{crop.Crop, "", "", "", crop.SkipReason, crop.Samples})
			continue
		}
		for _, metric := range []string{validation.MetricCVYield, validation.MetricDetrendedCV} {
			corr, ok := crop.Composite[metric]
			if !ok {
				continue
			}
			rows = append(rows, []any{crop.Crop, metric, corr.R, corr.P, corr.Significant, corr.Samples})
		}
	}

	rows = append(rows, []any{}, []any{"country", "acvi_score", "locations"})
	for _, agg := range report.Countries {
		rows = append(rows, []any{agg.Country, agg.Composite, agg.Locations})
	}

	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}
