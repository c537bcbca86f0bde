package web

import (
	"net/http"

	"studio-desk/internal/models"
	"studio-desk/internal/service"

	"github.com/go-chi/chi/v5"
)

type sessionRequest struct {
	ActivityID   string `json:"activity_id" validate:"required"`
	InstructorID string `json:"instructor_id" validate:"required"`
	SpaceID      string `json:"space_id" validate:"required"`
	DayOfWeek    int    `json:"day_of_week" validate:"required,min=1,max=7"`
	Time         string `json:"time" validate:"required,datetime=15:04"`
}

func (req sessionRequest) input() service.SessionInput {
	return service.SessionInput{
		ActivityID:   req.ActivityID,
		InstructorID: req.InstructorID,
		SpaceID:      req.SpaceID,
		DayOfWeek:    models.Weekday(req.DayOfWeek),
		Time:         req.Time,
	}
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !h.bind(w, r, &req) {
		return
	}
	session, err := h.sessionService.Create(r.Context(), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// ListSessions handles GET /sessions, optionally narrowed by ?date=
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	var (
		sessions []models.Session
		err      error
	)
	if value := r.URL.Query().Get("date"); value != "" {
		date, perr := h.parseDate(value)
		if perr != nil {
			h.fail(w, r, perr)
			return
		}
		sessions, err = h.sessionService.ListForDate(r.Context(), date)
	} else {
		sessions, err = h.sessionService.List(r.Context())
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !h.bind(w, r, &req) {
		return
	}
	session, err := h.sessionService.Update(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type personRef struct {
	PersonID string `json:"person_id" validate:"required"`
}

// Enroll handles POST /sessions/{id}/enrollments
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req personRef
	if !h.bind(w, r, &req) {
		return
	}
	if err := h.sessionService.Enroll(r.Context(), chi.URLParam(r, "id"), req.PersonID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Unenroll(w http.ResponseWriter, r *http.Request) {
	err := h.sessionService.Unenroll(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "personID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// waitlistRequest carries either person_id or a prospect's name and phone.
type waitlistRequest struct {
	PersonID *string `json:"person_id"`
	Name     string  `json:"name" validate:"required_without=PersonID,max=200"`
	Phone    string  `json:"phone" validate:"required_without=PersonID,max=32"`
}

func (h *Handler) AddToWaitlist(w http.ResponseWriter, r *http.Request) {
	var req waitlistRequest
	if !h.bind(w, r, &req) {
		return
	}
	entry, err := h.sessionService.AddToWaitlist(r.Context(), chi.URLParam(r, "id"), service.WaitlistInput{
		PersonID: req.PersonID,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) RemoveFromWaitlist(w http.ResponseWriter, r *http.Request) {
	err := h.sessionService.RemoveFromWaitlist(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "entryID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Promote handles POST /sessions/{id}/waitlist/{entryID}/promote
func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	person, err := h.sessionService.Promote(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "entryID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// SessionOccupancy handles GET /sessions/{id}/occupancy?date=
func (h *Handler) SessionOccupancy(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	snap, err := h.occupancyService.Snapshot(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DailyOverview handles GET /occupancy?date=
func (h *Handler) DailyOverview(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	overview, err := h.occupancyService.DailyOverview(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
