package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"acvicli/internal/acvi"
	apierrors "acvicli/internal/errors"
)

// ResultsHandler serves the computed index results.
type ResultsHandler struct {
	store        *Store
	logger       *slog.Logger
	validate     *validator.Validate
	errorHandler *apierrors.ErrorHandler
}

// NewResultsHandler creates a results handler around the store.
func NewResultsHandler(store *Store, logger *slog.Logger) *ResultsHandler {
	return &ResultsHandler{
		store:        store,
		logger:       logger,
		validate:     validator.New(),
		errorHandler: apierrors.NewErrorHandler(logger),
	}
}

// RegisterRoutes registers the results routes.
func (h *ResultsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/scores", h.GetScores)
	r.Post("/scores/reweight", h.Reweight)
	r.Get("/robustness", h.GetRobustness)
	r.Get("/validation", h.GetValidation)
}

// GetScores returns the latest ranked cohort.
func (h *ResultsHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	cohort := h.store.Cohort()
	if cohort == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoResults)
		return
	}
	render.JSON(w, r, cohort)
}

// ReweightRequest carries an alternative weight vector.
type ReweightRequest struct {
	Weights acvi.Weights `json:"weights"`
}

// Bind implements the render.Binder interface for reweight validation.
func (req *ReweightRequest) Bind(r *http.Request) error {
	if !req.Weights.IsValid() {
		return apierrors.New(http.StatusBadRequest, "INVALID_WEIGHTS",
			"Weights must be non-negative with a positive sum")
	}
	return nil
}

// Reweight rescores the latest cohort under the supplied weights without
// recomputing extraction or normalization.
func (h *ResultsHandler) Reweight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cohort := h.store.Cohort()
	if cohort == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoResults)
		return
	}

	req := &ReweightRequest{}
	if err := render.Bind(r, req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "rescoring cohort",
		slog.Any("weights", req.Weights))

	rescored, err := acvi.Rescore(cohort, req.Weights)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, "INVALID_WEIGHTS", "Cannot rescore cohort", err.Error()))
		return
	}
	render.JSON(w, r, rescored)
}

// GetRobustness returns the latest robustness report.
func (h *ResultsHandler) GetRobustness(w http.ResponseWriter, r *http.Request) {
	report := h.store.Robustness()
	if report == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoResults)
		return
	}
	render.JSON(w, r, report)
}

// GetValidation returns the latest validation report.
func (h *ResultsHandler) GetValidation(w http.ResponseWriter, r *http.Request) {
	report := h.store.Validation()
	if report == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoResults)
		return
	}
	render.JSON(w, r, report)
}
