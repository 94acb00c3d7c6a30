package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/rmaragno/crivo/internal/domain"
	"github.com/rmaragno/crivo/internal/orchestrator"
)

// AnalysisHandlers exposes the calculation pipeline over HTTP.
type AnalysisHandlers struct {
	orch *orchestrator.Orchestrator
	log  zerolog.Logger
}

// NewAnalysisHandlers creates the analysis handler set.
func NewAnalysisHandlers(orch *orchestrator.Orchestrator, log zerolog.Logger) *AnalysisHandlers {
	return &AnalysisHandlers{
		orch: orch,
		log:  log.With().Str("component", "analysis_handlers").Logger(),
	}
}

// Calculate handles POST /api/analysis/{companyID}/calculate.
// The request body is the full analysis bundle.
func (h *AnalysisHandlers) Calculate(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")

	var bundle domain.AnalysisBundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if bundle.CompanyID == "" {
		bundle.CompanyID = companyID
	}
	if bundle.CompanyID != companyID {
		writeError(w, http.StatusBadRequest, "company id in path and body disagree")
		return
	}

	run, err := h.orch.PerformAllCalculations(r.Context(), bundle)
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Recalculate handles POST /api/analysis/{companyID}/recalculate.
// The bundle is pulled fresh from the configured data source.
func (h *AnalysisHandlers) Recalculate(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")

	run, err := h.orch.Recalculate(r.Context(), companyID)
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// MarkDirty handles POST /api/analysis/{companyID}/dirty.
func (h *AnalysisHandlers) MarkDirty(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	h.orch.MarkDirty(companyID)
	writeJSON(w, http.StatusOK, h.orch.State(companyID).Snapshot())
}

// State handles GET /api/analysis/{companyID}/state.
func (h *AnalysisHandlers) State(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")
	snap := h.orch.State(companyID).Snapshot()

	resp := map[string]any{
		"company_id":         snap.CompanyID,
		"phase":              snap.Phase,
		"dirty":              snap.Dirty,
		"calculating":        snap.Calculating,
		"last_calculated_at": snap.LastCalculatedAt,
	}
	if snap.Err != nil {
		resp["error"] = snap.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// LatestResults handles GET /api/analysis/{companyID}/results.
func (h *AnalysisHandlers) LatestResults(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")

	entry, err := h.orch.LatestRun(companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "no calculation results for "+companyID)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// History handles GET /api/analysis/{companyID}/history.
func (h *AnalysisHandlers) History(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")

	entries, err := h.orch.History(companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"company_id": companyID,
		"entries":    entries,
		"count":      len(entries),
	})
}

// Scores handles GET /api/analysis/{companyID}/scores.
func (h *AnalysisHandlers) Scores(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")

	scores, err := h.orch.Scores(companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"company_id": companyID,
		"scores":     scores,
		"count":      len(scores),
	})
}

// writeRunError maps pipeline failures onto HTTP statuses: concurrency
// rejections are 409, validation failures 422 with the field list, and
// computation errors 422 with the failing calculator.
func (h *AnalysisHandlers) writeRunError(w http.ResponseWriter, err error) {
	var concErr *domain.ConcurrencyError
	if errors.As(err, &concErr) {
		writeError(w, http.StatusConflict, concErr.Error())
		return
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    "validation failed",
			"schema":   valErr.Schema,
			"fields":   valErr.Fields,
			"warnings": valErr.Warnings,
		})
		return
	}

	var compErr *domain.ComputationError
	if errors.As(err, &compErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      compErr.Message,
			"calculator": compErr.Calculator,
			"field":      compErr.Field,
		})
		return
	}

	h.log.Error().Err(err).Msg("calculation request failed")
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
