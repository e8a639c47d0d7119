// Package exporter persists pipeline outputs: ranked score tables as
// CSV, full structured results as JSON, a multi-sheet XLSX report
// workbook, and the per-location daily series files the acquisition
// command produces.
//
// Example usage:
//
//	exp := exporter.New("out", logger)
//	if err := exp.WriteScoresCSV("acvi_scores.csv", cohort); err != nil {
//		...
//	}
//	err = exp.WriteWorkbook("acvi_report.xlsx", cohort, robustness, validation)
package exporter
