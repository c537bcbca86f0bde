package web

import (
	"net/http"
	"time"

	"studio-desk/internal/models"
	"studio-desk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type personRequest struct {
	Name                string  `json:"name" validate:"required,max=200"`
	Phone               string  `json:"phone" validate:"required,max=32"`
	TariffID            *string `json:"tariff_id"`
	LevelID             *string `json:"level_id"`
	JoinDate            string  `json:"join_date" validate:"omitempty,datetime=2006-01-02"`
	OutstandingPayments int     `json:"outstanding_payments" validate:"gte=0"`
	Status              string  `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (h *Handler) personInput(req personRequest) (service.PersonInput, error) {
	in := service.PersonInput{
		Name:                req.Name,
		Phone:               req.Phone,
		TariffID:            req.TariffID,
		LevelID:             req.LevelID,
		OutstandingPayments: req.OutstandingPayments,
		Status:              models.PersonStatus(req.Status),
	}
	if req.JoinDate != "" {
		joinDate, err := h.parseDate(req.JoinDate)
		if err != nil {
			return in, err
		}
		in.JoinDate = &joinDate
	}
	return in, nil
}

// CreatePerson handles POST /people
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if !h.bind(w, r, &req) {
		return
	}
	in, err := h.personInput(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	person, err := h.personService.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, person)
}

func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.personService.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if people == nil {
		people = []models.Person{}
	}
	writeJSON(w, http.StatusOK, people)
}

func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	person, err := h.personService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (h *Handler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if !h.bind(w, r, &req) {
		return
	}
	in, err := h.personInput(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	person, err := h.personService.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (h *Handler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := h.personService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// SetPersonStatus handles PUT /people/{id}/status
func (h *Handler) SetPersonStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !h.bind(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.personService.SetStatus(r.Context(), id, models.PersonStatus(req.Status)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}

type vacationRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// AddVacation handles POST /people/{id}/vacations
func (h *Handler) AddVacation(w http.ResponseWriter, r *http.Request) {
	var req vacationRequest
	if !h.bind(w, r, &req) {
		return
	}
	start, err := h.parseDate(req.StartDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	end, err := h.parseDate(req.EndDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	vacation, err := h.personService.AddVacation(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, vacation)
}

func (h *Handler) RemoveVacation(w http.ResponseWriter, r *http.Request) {
	err := h.personService.RemoveVacation(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "vacationID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type creditsResponse struct {
	PersonID string `json:"person_id"`
	Name     string `json:"name,omitempty"`
	Balance  int    `json:"balance"`
}

// PersonCredits handles GET /people/{id}/credits
func (h *Handler) PersonCredits(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	balance, err := h.attendanceService.Balance(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, creditsResponse{PersonID: id, Balance: balance})
}

// CreditsByPhone handles GET /credits?phone=
func (h *Handler) CreditsByPhone(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		h.fail(w, r, service.Invalid("phone", "is required"))
		return
	}
	person, balance, err := h.attendanceService.BalanceByPhone(r.Context(), phone)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, creditsResponse{PersonID: person.ID, Name: person.Name, Balance: balance})
}

type paymentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	TariffID *string         `json:"tariff_id"`
	PaidAt   *time.Time      `json:"paid_at"`
	Note     string          `json:"note" validate:"max=500"`
}

// RecordPayment handles POST /people/{id}/payments
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !h.bind(w, r, &req) {
		return
	}

	payment, err := h.paymentService.RecordPayment(r.Context(), chi.URLParam(r, "id"), service.PaymentInput{
		Amount:   req.Amount,
		TariffID: req.TariffID,
		PaidAt:   req.PaidAt,
		Note:     req.Note,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (h *Handler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	payments, err := h.paymentService.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}
