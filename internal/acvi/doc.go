// Package acvi implements the Agro-Climatic Volatility Index: per-location
// sub-indices derived from daily climate features, robust cross-cohort
// normalization, and weighted composite scoring with deterministic ranking.
//
// The index combines four components:
//
//  1. temperature_volatility: interannual variability of temperature and
//     diurnal range, heat-stress exposure, degree-day variability
//  2. precipitation_volatility: interannual precipitation variability and
//     dry-spell severity
//  3. moisture_stress: root-zone moisture deficit and variability, vapor
//     pressure deficit, evapotranspiration variability
//  4. extreme_events: heat, frost, dry-day and extreme-wind frequency,
//     solar radiation variability
//
// Raw sub-indices live on component-specific scales and are comparable
// only after cohort normalization: each component is robust-scaled to its
// 5th/95th percentile across the full surviving cohort, clipped to 0-100.
// The normalization snapshot (CohortScale) is immutable, computed exactly
// once per cohort pass, and threaded explicitly through scoring.
//
// Typical use:
//
//	extractor, _ := climate.NewFeatureExtractor(season, thresholds, logger)
//	calc := acvi.NewSubIndexCalculator(thresholds, logger)
//	engine, _ := acvi.NewEngine(extractor, calc, acvi.DefaultWeights(), 4, logger)
//	result, err := engine.Run(ctx, locations)
package acvi
