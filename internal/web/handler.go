package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"studio-desk/internal/occupancy"
	"studio-desk/internal/repository"
	"studio-desk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Handler struct {
	personService     service.PersonService
	sessionService    service.SessionService
	attendanceService service.AttendanceService
	occupancyService  service.OccupancyService
	catalogService    service.CatalogService
	paymentService    service.PaymentService

	validate *validator.Validate
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

func NewHandler(
	personService service.PersonService,
	sessionService service.SessionService,
	attendanceService service.AttendanceService,
	occupancyService service.OccupancyService,
	catalogService service.CatalogService,
	paymentService service.PaymentService,
	location *time.Location,
	logger *zap.Logger,
) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		personService:     personService,
		sessionService:    sessionService,
		attendanceService: attendanceService,
		occupancyService:  occupancyService,
		catalogService:    catalogService,
		paymentService:    paymentService,
		validate:          validator.New(),
		location:          location,
		logger:            logger,
		now:               time.Now,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// bind decodes the body into req and runs struct validation.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := decodeJSON(r, req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: "invalid input: " + verrs[0].Tag(),
				Field: verrs[0].Field(),
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid input")
		return false
	}
	return true
}

// fail maps service errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, occupancy.ErrWeekdayMismatch),
		errors.Is(err, occupancy.ErrDateInPast):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrInUse),
		errors.Is(err, repository.ErrSessionHasPeople),
		errors.Is(err, occupancy.ErrSessionFull),
		errors.Is(err, occupancy.ErrNoRecoveryCredit),
		errors.Is(err, occupancy.ErrAlreadyEnrolled),
		errors.Is(err, occupancy.ErrAlreadyMarked),
		errors.Is(err, occupancy.ErrPersonInactive),
		errors.Is(err, service.ErrWeeklyLimitReached),
		errors.Is(err, service.ErrNotEnrolled),
		errors.Is(err, service.ErrAlreadyWaitlisted),
		errors.Is(err, service.ErrOnVacation),
		errors.Is(err, service.ErrCreditInUse),
		errors.Is(err, service.ErrVacationHasBookings):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseDate reads a yyyy-MM-dd value; empty means today in the studio timezone.
func (h *Handler) parseDate(value string) (time.Time, error) {
	if value == "" {
		now := h.now().In(h.location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.location), nil
	}
	date, err := occupancy.ParseDateKey(value, h.location)
	if err != nil {
		return time.Time{}, service.Invalid("date", "must be yyyy-MM-dd")
	}
	return date, nil
}

func (h *Handler) dateParam(r *http.Request) (time.Time, error) {
	value := chi.URLParam(r, "date")
	if value == "" {
		return time.Time{}, service.Invalid("date", "is required")
	}
	return h.parseDate(value)
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
