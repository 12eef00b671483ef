package handlers

import (
	"net/http"

	appenv "github.com/turtacn/chemenv/internal/application/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// PatternHandler serves the stateless pattern endpoints under /patterns.
type PatternHandler struct {
	svc     appenv.Service
	logger  logging.Logger
	maxBody int64
}

// NewPatternHandler creates a PatternHandler. maxBody <= 0 means
// DefaultMaxBodyBytes.
func NewPatternHandler(svc appenv.Service, logger logging.Logger, maxBody int64) *PatternHandler {
	return &PatternHandler{svc: svc, logger: logger, maxBody: maxBody}
}

// Analyze handles POST /api/v1/patterns/analyze.
func (h *PatternHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req envtypes.AnalyzeRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Analyze(r.Context(), req.Pattern)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, res)
}

// Select handles POST /api/v1/patterns/select.
func (h *PatternHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req envtypes.SelectRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Select(r.Context(), req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, res)
}

// Components handles POST /api/v1/patterns/components.
func (h *PatternHandler) Components(w http.ResponseWriter, r *http.Request) {
	var req envtypes.ComponentsRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Components(r.Context(), req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, res)
}

// Render handles POST /api/v1/patterns/render.
func (h *PatternHandler) Render(w http.ResponseWriter, r *http.Request) {
	var req envtypes.RenderRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Render(r.Context(), req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, res)
}

// Batch handles POST /api/v1/patterns/batch. Per-item failures are part of
// a 200 response; only a rejected batch is an error.
func (h *PatternHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req envtypes.BatchAnalyzeRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.BatchAnalyze(r.Context(), req.Patterns)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, res)
}

//Personal.AI order the ending
