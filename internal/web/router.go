package web

import (
	"net/http"

	"studio-desk/internal/models/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func NewRouter(h *Handler, cfg config.HTTPConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Metrics)

	r.Get("/health", HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/people", func(r chi.Router) {
		r.Get("/", h.ListPeople)
		r.Post("/", h.CreatePerson)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetPerson)
			r.Put("/", h.UpdatePerson)
			r.Delete("/", h.DeletePerson)
			r.Put("/status", h.SetPersonStatus)
			r.Post("/vacations", h.AddVacation)
			r.Delete("/vacations/{vacationID}", h.RemoveVacation)
			r.Get("/credits", h.PersonCredits)
			r.Get("/payments", h.PaymentHistory)
			r.Post("/payments", h.RecordPayment)
		})
	})
	r.Get("/credits", h.CreditsByPhone)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.ListSessions)
		r.Post("/", h.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Put("/", h.UpdateSession)
			r.Delete("/", h.DeleteSession)

			r.Post("/enrollments", h.Enroll)
			r.Delete("/enrollments/{personID}", h.Unenroll)

			r.Post("/waitlist", h.AddToWaitlist)
			r.Delete("/waitlist/{entryID}", h.RemoveFromWaitlist)
			r.Post("/waitlist/{entryID}/promote", h.Promote)

			r.Get("/occupancy", h.SessionOccupancy)

			r.Route("/attendance/{date}", func(r chi.Router) {
				r.Get("/", h.AttendanceRecord)
				r.Post("/one-time", h.BookOneTime)
				r.Delete("/one-time/{personID}", h.CancelOneTime)
				r.Put("/{personID}", h.Mark)
				r.Delete("/{personID}", h.ClearMark)
			})
		})
	})
	r.Get("/occupancy", h.DailyOverview)

	r.Route("/spaces", func(r chi.Router) {
		r.Get("/", h.ListSpaces)
		r.Post("/", h.CreateSpace)
		r.Get("/{id}", h.GetSpace)
		r.Put("/{id}", h.UpdateSpace)
		r.Delete("/{id}", h.DeleteSpace)
	})
	r.Route("/instructors", func(r chi.Router) {
		r.Get("/", h.ListInstructors)
		r.Post("/", h.CreateInstructor)
		r.Get("/{id}", h.GetInstructor)
		r.Put("/{id}", h.UpdateInstructor)
		r.Delete("/{id}", h.DeleteInstructor)
	})
	r.Route("/activities", func(r chi.Router) {
		r.Get("/", h.ListActivities)
		r.Post("/", h.CreateActivity)
		r.Get("/{id}", h.GetActivity)
		r.Put("/{id}", h.UpdateActivity)
		r.Delete("/{id}", h.DeleteActivity)
	})
	r.Route("/levels", func(r chi.Router) {
		r.Get("/", h.ListLevels)
		r.Post("/", h.CreateLevel)
		r.Get("/{id}", h.GetLevel)
		r.Put("/{id}", h.UpdateLevel)
		r.Delete("/{id}", h.DeleteLevel)
	})
	r.Route("/tariffs", func(r chi.Router) {
		r.Get("/", h.ListTariffs)
		r.Post("/", h.CreateTariff)
		r.Get("/{id}", h.GetTariff)
		r.Put("/{id}", h.UpdateTariff)
		r.Delete("/{id}", h.DeleteTariff)
	})

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// credentials only for an explicit origin list
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: !wildcard,
	}).Handler(r)
}
