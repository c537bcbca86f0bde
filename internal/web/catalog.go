package web

import (
	"context"
	"net/http"

	"studio-desk/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Справочники: залы, тренеры, направления, уровни, тарифы

type spaceRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

type instructorRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Phone     string `json:"phone" validate:"max=32"`
	Specialty string `json:"specialty" validate:"max=200"`
}

type namedRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type tariffRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price"`
	WeeklyLimit *int            `json:"weekly_limit" validate:"omitempty,min=1"`
}

// listed writes items, never null.
func listed[T any](h *Handler, w http.ResponseWriter, r *http.Request, items []T, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) deleted(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id string) error) {
	if err := del(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Залы

func (h *Handler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var req spaceRequest
	if !h.bind(w, r, &req) {
		return
	}
	space := &models.Space{Name: req.Name, Capacity: req.Capacity}
	if err := h.catalogService.CreateSpace(r.Context(), space); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, space)
}

func (h *Handler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := h.catalogService.ListSpaces(r.Context())
	listed(h, w, r, spaces, err)
}

func (h *Handler) GetSpace(w http.ResponseWriter, r *http.Request) {
	space, err := h.catalogService.GetSpace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, space)
}

func (h *Handler) UpdateSpace(w http.ResponseWriter, r *http.Request) {
	var req spaceRequest
	if !h.bind(w, r, &req) {
		return
	}
	space := &models.Space{ID: chi.URLParam(r, "id"), Name: req.Name, Capacity: req.Capacity}
	if err := h.catalogService.UpdateSpace(r.Context(), space); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, space)
}

func (h *Handler) DeleteSpace(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.catalogService.DeleteSpace)
}

// Тренеры

func (h *Handler) CreateInstructor(w http.ResponseWriter, r *http.Request) {
	var req instructorRequest
	if !h.bind(w, r, &req) {
		return
	}
	instructor := &models.Instructor{Name: req.Name, Phone: req.Phone, Specialty: req.Specialty}
	if err := h.catalogService.CreateInstructor(r.Context(), instructor); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, instructor)
}

func (h *Handler) ListInstructors(w http.ResponseWriter, r *http.Request) {
	instructors, err := h.catalogService.ListInstructors(r.Context())
	listed(h, w, r, instructors, err)
}

func (h *Handler) GetInstructor(w http.ResponseWriter, r *http.Request) {
	instructor, err := h.catalogService.GetInstructor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, instructor)
}

func (h *Handler) UpdateInstructor(w http.ResponseWriter, r *http.Request) {
	var req instructorRequest
	if !h.bind(w, r, &req) {
		return
	}
	instructor := &models.Instructor{
		ID:        chi.URLParam(r, "id"),
		Name:      req.Name,
		Phone:     req.Phone,
		Specialty: req.Specialty,
	}
	if err := h.catalogService.UpdateInstructor(r.Context(), instructor); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, instructor)
}

func (h *Handler) DeleteInstructor(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.catalogService.DeleteInstructor)
}

// Направления

func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req namedRequest
	if !h.bind(w, r, &req) {
		return
	}
	activity := &models.Activity{Name: req.Name}
	if err := h.catalogService.CreateActivity(r.Context(), activity); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, activity)
}

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.catalogService.ListActivities(r.Context())
	listed(h, w, r, activities, err)
}

func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.catalogService.GetActivity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	var req namedRequest
	if !h.bind(w, r, &req) {
		return
	}
	activity := &models.Activity{ID: chi.URLParam(r, "id"), Name: req.Name}
	if err := h.catalogService.UpdateActivity(r.Context(), activity); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.catalogService.DeleteActivity)
}

// Уровни

func (h *Handler) CreateLevel(w http.ResponseWriter, r *http.Request) {
	var req namedRequest
	if !h.bind(w, r, &req) {
		return
	}
	level := &models.Level{Name: req.Name}
	if err := h.catalogService.CreateLevel(r.Context(), level); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, level)
}

func (h *Handler) ListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.catalogService.ListLevels(r.Context())
	listed(h, w, r, levels, err)
}

func (h *Handler) GetLevel(w http.ResponseWriter, r *http.Request) {
	level, err := h.catalogService.GetLevel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, level)
}

func (h *Handler) UpdateLevel(w http.ResponseWriter, r *http.Request) {
	var req namedRequest
	if !h.bind(w, r, &req) {
		return
	}
	level := &models.Level{ID: chi.URLParam(r, "id"), Name: req.Name}
	if err := h.catalogService.UpdateLevel(r.Context(), level); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, level)
}

func (h *Handler) DeleteLevel(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.catalogService.DeleteLevel)
}

// Тарифы

func (h *Handler) CreateTariff(w http.ResponseWriter, r *http.Request) {
	var req tariffRequest
	if !h.bind(w, r, &req) {
		return
	}
	tariff := &models.Tariff{Name: req.Name, Price: req.Price, WeeklyLimit: req.WeeklyLimit}
	if err := h.catalogService.CreateTariff(r.Context(), tariff); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tariff)
}

func (h *Handler) ListTariffs(w http.ResponseWriter, r *http.Request) {
	tariffs, err := h.catalogService.ListTariffs(r.Context())
	listed(h, w, r, tariffs, err)
}

func (h *Handler) GetTariff(w http.ResponseWriter, r *http.Request) {
	tariff, err := h.catalogService.GetTariff(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tariff)
}

func (h *Handler) UpdateTariff(w http.ResponseWriter, r *http.Request) {
	var req tariffRequest
	if !h.bind(w, r, &req) {
		return
	}
	tariff := &models.Tariff{
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Price:       req.Price,
		WeeklyLimit: req.WeeklyLimit,
	}
	if err := h.catalogService.UpdateTariff(r.Context(), tariff); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tariff)
}

func (h *Handler) DeleteTariff(w http.ResponseWriter, r *http.Request) {
	h.deleted(w, r, h.catalogService.DeleteTariff)
}
