package web

import (
	"net/http"

	"studio-desk/internal/models"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) AttendanceRecord(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	record, err := h.attendanceService.Record(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

type markRequest struct {
	Status string `json:"status" validate:"required,oneof=present absent justified"`
}

// Mark handles PUT /sessions/{id}/attendance/{date}/{personID}
func (h *Handler) Mark(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if !h.bind(w, r, &req) {
		return
	}
	date, err := h.dateParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sessionID, personID := chi.URLParam(r, "id"), chi.URLParam(r, "personID")
	if err := h.attendanceService.Mark(r.Context(), sessionID, date, personID, models.MarkStatus(req.Status)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearMark(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.attendanceService.ClearMark(r.Context(), chi.URLParam(r, "id"), date, chi.URLParam(r, "personID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BookOneTime handles POST /sessions/{id}/attendance/{date}/one-time
func (h *Handler) BookOneTime(w http.ResponseWriter, r *http.Request) {
	var req personRef
	if !h.bind(w, r, &req) {
		return
	}
	date, err := h.dateParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.attendanceService.BookOneTime(r.Context(), chi.URLParam(r, "id"), date, req.PersonID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) CancelOneTime(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.attendanceService.CancelOneTime(r.Context(), chi.URLParam(r, "id"), date, chi.URLParam(r, "personID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
