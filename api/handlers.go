/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes enrollment, observation, and the two ledgers over REST for
  the capture loop and operators. Handles HTTP request/response and
  JSON serialization, delegating decisions to the engine.

ENDPOINTS:
  POST /api/identities            Enroll a new identity
  GET  /api/identities            List enrolled names
  POST /api/observations          Reconcile one observation
  GET  /api/payroll/{name}        Payroll account snapshot
  GET  /api/attendance?date=      Attendance events for a day
  GET  /api/health                Liveness

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Duplicate enrollment name
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/engine"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *engine.Engine
	Store  attendance.Store
}

// NewHandler creates a handler around the engine and its store.
func NewHandler(e *engine.Engine, store attendance.Store) *Handler {
	return &Handler{Engine: e, Store: store}
}

// Enroll handles POST /api/identities.
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if len(req.Embedding) == 0 {
		writeError(w, http.StatusBadRequest, "embedding is required", nil)
		return
	}

	err := h.Engine.Enroll(r.Context(), req.Name, req.Embedding)
	if errors.Is(err, attendance.ErrDuplicateName) {
		writeError(w, http.StatusConflict, "identity already enrolled", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "enrollment failed", err)
		return
	}

	writeJSON(w, http.StatusCreated, IdentityDTO{Name: req.Name})
}

// ListIdentities handles GET /api/identities.
func (h *Handler) ListIdentities(w http.ResponseWriter, r *http.Request) {
	known := h.Engine.Known()
	dtos := make([]IdentityDTO, 0, len(known))
	for _, id := range known {
		dtos = append(dtos, IdentityDTO{Name: id.Name})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Observe handles POST /api/observations.
func (h *Handler) Observe(w http.ResponseWriter, r *http.Request) {
	var req ObservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	now := time.Now()
	if req.ObservedAt != "" {
		t, err := time.Parse(time.RFC3339, req.ObservedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid observed_at", err)
			return
		}
		now = t
	}

	var (
		outcome engine.Outcome
		err     error
	)
	switch {
	case len(req.Embedding) > 0:
		outcome, err = h.Engine.ObserveEmbedding(r.Context(), req.Embedding, now)
	case req.Name != "":
		outcome, err = h.Engine.Observe(r.Context(), req.Name, now)
	default:
		writeError(w, http.StatusBadRequest, "either name or embedding is required", nil)
		return
	}
	if err != nil {
		if errors.Is(err, attendance.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payroll account missing", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "observation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toOutcomeDTO(outcome))
}

// GetPayroll handles GET /api/payroll/{name}.
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	acct, err := h.Store.Account(r.Context(), name)
	if errors.Is(err, attendance.ErrNotFound) {
		writeError(w, http.StatusNotFound, "payroll account not found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load payroll", err)
		return
	}

	writeJSON(w, http.StatusOK, toPayrollDTO(acct))
}

// ListAttendance handles GET /api/attendance?date=YYYY-MM-DD.
// The date defaults to today.
func (h *Handler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = attendance.DateOf(time.Now())
	}
	if _, err := time.Parse(attendance.DateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return
	}

	events, err := h.Store.EventsForDate(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load attendance", err)
		return
	}

	dtos := make([]AttendanceEventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, AttendanceEventDTO{Name: e.Name, Date: e.Date, Time: e.Time})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
