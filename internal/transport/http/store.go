// Package http exposes the computed results over a small JSON API:
// ranked scores, the robustness report, the validation report, and a
// what-if reweighting endpoint.
package http

import (
	"sync"

	"acvicli/internal/acvi"
	"acvicli/internal/sensitivity"
	"acvicli/internal/validation"
)

// Store holds the latest results of each pipeline stage. Safe for
// concurrent use; the server reads while a background run replaces.
type Store struct {
	mu         sync.RWMutex
	cohort     *acvi.CohortResult
	robustness *sensitivity.Report
	validation *validation.Report
}

// NewStore creates an empty result store.
func NewStore() *Store {
	return &Store{}
}

// SetCohort replaces the latest cohort result.
func (s *Store) SetCohort(result *acvi.CohortResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cohort = result
}

// Cohort returns the latest cohort result, or nil.
func (s *Store) Cohort() *acvi.CohortResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cohort
}

// SetRobustness replaces the latest robustness report.
func (s *Store) SetRobustness(report *sensitivity.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.robustness = report
}

// Robustness returns the latest robustness report, or nil.
func (s *Store) Robustness() *sensitivity.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.robustness
}

// SetValidation replaces the latest validation report.
func (s *Store) SetValidation(report *validation.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validation = report
}

// Validation returns the latest validation report, or nil.
func (s *Store) Validation() *validation.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validation
}
