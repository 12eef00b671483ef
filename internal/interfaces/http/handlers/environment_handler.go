package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appenv "github.com/turtacn/chemenv/internal/application/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/pkg/errors"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// Route parameters.
const (
	ParamEnvironmentID = "environmentID"
	ParamPosition      = "position"
	ParamVersion       = "version"
)

// EnvironmentHandler serves stored environments under /environments.
type EnvironmentHandler struct {
	svc     appenv.Service
	logger  logging.Logger
	maxBody int64
}

func NewEnvironmentHandler(svc appenv.Service, logger logging.Logger, maxBody int64) *EnvironmentHandler {
	return &EnvironmentHandler{svc: svc, logger: logger, maxBody: maxBody}
}

// Create handles POST /api/v1/environments.
func (h *EnvironmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req envtypes.CreateEnvironmentRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	rec, err := h.svc.Create(r.Context(), req.Pattern)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/environments/"+rec.ID)
	writeData(w, r, http.StatusCreated, rec)
}

// List handles GET /api/v1/environments?page=&page_size=.
func (h *EnvironmentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, err := parsePagination(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	list, err := h.svc.List(r.Context(), page, size)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, list)
}

// Get handles GET /api/v1/environments/{environmentID}.
func (h *EnvironmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, ParamEnvironmentID))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, rec)
}

// Delete handles DELETE /api/v1/environments/{environmentID}.
func (h *EnvironmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, ParamEnvironmentID)); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddAtom handles POST /api/v1/environments/{environmentID}/atoms.
func (h *EnvironmentHandler) AddAtom(w http.ResponseWriter, r *http.Request) {
	var req envtypes.AddAtomRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.AddAtom(r.Context(), chi.URLParam(r, ParamEnvironmentID), req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusCreated, res)
}

// RemoveAtom handles DELETE /api/v1/environments/{environmentID}/atoms/{position}.
// A refused removal is a 200 with removed=false.
func (h *EnvironmentHandler) RemoveAtom(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, ParamPosition)
	pos, err := strconv.Atoi(raw)
	if err != nil || pos < 0 {
		writeAppError(w, r, h.logger, errors.InvalidParam("position must be a non-negative integer").WithDetail(raw))
		return
	}
	res, err := h.svc.RemoveAtom(r.Context(), chi.URLParam(r, ParamEnvironmentID), pos)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, res)
}

// AddDecorator handles POST /api/v1/environments/{environmentID}/decorators.
func (h *EnvironmentHandler) AddDecorator(w http.ResponseWriter, r *http.Request) {
	var req envtypes.AddDecoratorRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	rec, err := h.svc.AddDecorator(r.Context(), chi.URLParam(r, ParamEnvironmentID), req)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, rec)
}

// Revisions handles GET /api/v1/environments/{environmentID}/revisions.
func (h *EnvironmentHandler) Revisions(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Revisions(r.Context(), chi.URLParam(r, ParamEnvironmentID))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, list)
}

// Revision handles GET /api/v1/environments/{environmentID}/revisions/{version}.
func (h *EnvironmentHandler) Revision(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, ParamVersion)
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 1 {
		writeAppError(w, r, h.logger, errors.InvalidParam("version must be a positive integer").WithDetail(raw))
		return
	}
	rev, err := h.svc.Revision(r.Context(), chi.URLParam(r, ParamEnvironmentID), version)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, rev)
}

// Search handles GET /api/v1/environments/search?category=&decorator=&text=.
// decorator may repeat; every listed token must match.
func (h *EnvironmentHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, size, err := parsePagination(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	q := r.URL.Query()
	list, err := h.svc.Search(r.Context(), envtypes.SearchRequest{
		Category:   q.Get("category"),
		Decorators: q["decorator"],
		Text:       q.Get("text"),
		Page:       page,
		PageSize:   size,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeData(w, r, http.StatusOK, list)
}

//Personal.AI order the ending
