package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studio-desk/internal/models"
	"studio-desk/internal/occupancy"

	"github.com/shopspring/decimal"
)

var (
	ErrWeeklyLimitReached = errors.New("tariff weekly limit reached")
	ErrNotEnrolled        = errors.New("person is not enrolled in this session")
	ErrAlreadyWaitlisted  = errors.New("person is already on the waitlist")
	ErrOnVacation         = errors.New("person is on vacation on that date")
	// ErrCreditInUse blocks undoing a justified absence whose credit was spent.
	ErrCreditInUse = errors.New("recovery credit of this absence is already used")
	// ErrVacationHasBookings blocks removing a vacation whose opening was booked.
	ErrVacationHasBookings = errors.New("one-time bookings depend on this vacation")
)

// ValidationError - неверные входные данные
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type PersonInput struct {
	Name                string
	Phone               string
	TariffID            *string
	LevelID             *string
	JoinDate            *time.Time // nil - today
	OutstandingPayments int
	Status              models.PersonStatus // "" - active
}

type PersonService interface {
	Create(ctx context.Context, in PersonInput) (*models.Person, error)
	Get(ctx context.Context, id string) (*models.Person, error)
	List(ctx context.Context) ([]models.Person, error)
	Update(ctx context.Context, id string, in PersonInput) (*models.Person, error)
	SetStatus(ctx context.Context, id string, status models.PersonStatus) error
	// Delete убирает человека из всех ростеров и листов ожидания
	Delete(ctx context.Context, id string) error

	AddVacation(ctx context.Context, personID string, start, end time.Time) (*models.VacationPeriod, error)
	RemoveVacation(ctx context.Context, personID, vacationID string) error
}

type SessionInput struct {
	ActivityID   string
	InstructorID string
	SpaceID      string
	DayOfWeek    models.Weekday
	Time         string // HH:MM
}

// WaitlistInput references an existing person or describes a prospect.
type WaitlistInput struct {
	PersonID *string
	Name     string
	Phone    string
}

type SessionService interface {
	Create(ctx context.Context, in SessionInput) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context) ([]models.Session, error)
	ListForDate(ctx context.Context, date time.Time) ([]models.Session, error)
	Update(ctx context.Context, id string, in SessionInput) (*models.Session, error)
	Delete(ctx context.Context, id string) error

	// Ростер
	Enroll(ctx context.Context, sessionID, personID string) error
	Unenroll(ctx context.Context, sessionID, personID string) error

	// Лист ожидания
	AddToWaitlist(ctx context.Context, sessionID string, in WaitlistInput) (*models.WaitlistEntry, error)
	RemoveFromWaitlist(ctx context.Context, sessionID, entryID string) error
	// Promote enrolls the entry, creating a Person for a prospect first.
	Promote(ctx context.Context, sessionID, entryID string) (*models.Person, error)
}

type AttendanceService interface {
	// Record returns an empty record when nothing was marked.
	Record(ctx context.Context, sessionID string, date time.Time) (*models.AttendanceRecord, error)
	Mark(ctx context.Context, sessionID string, date time.Time, personID string, status models.MarkStatus) error
	ClearMark(ctx context.Context, sessionID string, date time.Time, personID string) error

	// Отработки
	BookOneTime(ctx context.Context, sessionID string, date time.Time, personID string) error
	CancelOneTime(ctx context.Context, sessionID string, date time.Time, personID string) error
	Balance(ctx context.Context, personID string) (int, error)
	BalanceByPhone(ctx context.Context, phone string) (*models.Person, int, error)
}

type DailyOverview struct {
	Date                  string               `json:"date"`
	Sessions              []occupancy.Snapshot `json:"sessions"`
	TotalCapacity         int                  `json:"total_capacity"`
	TotalOccupancy        int                  `json:"total_occupancy"`
	FullSessions          int                  `json:"full_sessions"`
	WaitlistOpportunities int                  `json:"waitlist_opportunities"`
}

type OccupancyService interface {
	// Snapshot is cached per (session, date).
	Snapshot(ctx context.Context, sessionID string, date time.Time) (*occupancy.Snapshot, error)
	// Resolve computes the snapshot of an already loaded session, bypassing
	// the cache. Inside a transaction it reads through that transaction.
	Resolve(ctx context.Context, session models.Session, date time.Time) (*occupancy.Snapshot, error)
	DailyOverview(ctx context.Context, date time.Time) (*DailyOverview, error)
}

type CatalogService interface {
	CreateSpace(ctx context.Context, space *models.Space) error
	GetSpace(ctx context.Context, id string) (*models.Space, error)
	ListSpaces(ctx context.Context) ([]models.Space, error)
	UpdateSpace(ctx context.Context, space *models.Space) error
	DeleteSpace(ctx context.Context, id string) error

	CreateInstructor(ctx context.Context, instructor *models.Instructor) error
	GetInstructor(ctx context.Context, id string) (*models.Instructor, error)
	ListInstructors(ctx context.Context) ([]models.Instructor, error)
	UpdateInstructor(ctx context.Context, instructor *models.Instructor) error
	DeleteInstructor(ctx context.Context, id string) error

	CreateActivity(ctx context.Context, activity *models.Activity) error
	GetActivity(ctx context.Context, id string) (*models.Activity, error)
	ListActivities(ctx context.Context) ([]models.Activity, error)
	UpdateActivity(ctx context.Context, activity *models.Activity) error
	DeleteActivity(ctx context.Context, id string) error

	CreateLevel(ctx context.Context, level *models.Level) error
	GetLevel(ctx context.Context, id string) (*models.Level, error)
	ListLevels(ctx context.Context) ([]models.Level, error)
	UpdateLevel(ctx context.Context, level *models.Level) error
	DeleteLevel(ctx context.Context, id string) error

	CreateTariff(ctx context.Context, tariff *models.Tariff) error
	GetTariff(ctx context.Context, id string) (*models.Tariff, error)
	ListTariffs(ctx context.Context) ([]models.Tariff, error)
	UpdateTariff(ctx context.Context, tariff *models.Tariff) error
	DeleteTariff(ctx context.Context, id string) error
}

type PaymentInput struct {
	Amount   decimal.Decimal
	TariffID *string
	PaidAt   *time.Time // nil - now
	Note     string
}

type PaymentService interface {
	RecordPayment(ctx context.Context, personID string, in PaymentInput) (*models.Payment, error)
	History(ctx context.Context, personID string) ([]models.Payment, error)
}
