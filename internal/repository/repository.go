package repository

import (
	"context"
	"errors"
	"time"

	"studio-desk/internal/models"
)

var (
	// ErrNotFound is returned when an update or delete targets a missing row.
	ErrNotFound = errors.New("not found")
	// ErrSessionHasPeople blocks deleting a session with fixed enrollees.
	ErrSessionHasPeople = errors.New("session still has enrolled people")
	// ErrInUse blocks deleting an entity other rows still reference.
	ErrInUse = errors.New("entity is still in use")
	// ErrConflict is returned on unique constraint violations.
	ErrConflict = errors.New("already exists")
)

type PersonRepository interface {
	Create(ctx context.Context, person *models.Person) error
	GetByID(ctx context.Context, id string) (*models.Person, error)
	GetByPhone(ctx context.Context, phone string) (*models.Person, error)
	// LockByID is GetByID with the person row locked until the transaction ends.
	// Credit checks take it because the recovery balance spans every session.
	LockByID(ctx context.Context, id string) (*models.Person, error)
	List(ctx context.Context) ([]models.Person, error)
	Update(ctx context.Context, person *models.Person) error
	// Delete removes the person from every roster and waitlist too.
	Delete(ctx context.Context, id string) error

	AddVacation(ctx context.Context, vacation *models.VacationPeriod) error
	RemoveVacation(ctx context.Context, personID, vacationID string) error

	// RegisterPayment sets last_payment_date and takes one outstanding payment off.
	RegisterPayment(ctx context.Context, personID string, paidAt time.Time) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	// LockByID is GetByID with the session row locked until the transaction ends.
	LockByID(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context) ([]models.Session, error)
	ListByDay(ctx context.Context, day models.Weekday) ([]models.Session, error)
	ListByPerson(ctx context.Context, personID string) ([]models.Session, error)
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error

	// Ростер
	AddPerson(ctx context.Context, sessionID, personID string) error
	RemovePerson(ctx context.Context, sessionID, personID string) error

	// Лист ожидания
	AddWaitlistEntry(ctx context.Context, entry *models.WaitlistEntry) error
	GetWaitlistEntry(ctx context.Context, sessionID, entryID string) (*models.WaitlistEntry, error)
	RemoveWaitlistEntry(ctx context.Context, sessionID, entryID string) error
	RemoveWaitlistPerson(ctx context.Context, sessionID, personID string) error
}

type AttendanceRepository interface {
	// Get returns nil when nothing was recorded for the session on that date.
	Get(ctx context.Context, sessionID, dateKey string) (*models.AttendanceRecord, error)
	GetMark(ctx context.Context, sessionID, dateKey, personID string) (*models.AttendanceMark, error)
	ListByDate(ctx context.Context, dateKey string) ([]models.AttendanceRecord, error)
	// ListBySession returns the session's records dated fromKey or later.
	ListBySession(ctx context.Context, sessionID, fromKey string) ([]models.AttendanceRecord, error)
	// ListByPerson returns the records holding a mark of the person, restricted
	// to that person's marks.
	ListByPerson(ctx context.Context, personID string) ([]models.AttendanceRecord, error)
	// Upsert creates the mark or replaces its status.
	Upsert(ctx context.Context, mark *models.AttendanceMark) error
	DeleteMark(ctx context.Context, sessionID, dateKey, personID string) error
}

type SpaceRepository interface {
	Create(ctx context.Context, space *models.Space) error
	GetByID(ctx context.Context, id string) (*models.Space, error)
	List(ctx context.Context) ([]models.Space, error)
	Update(ctx context.Context, space *models.Space) error
	Delete(ctx context.Context, id string) error
}

type InstructorRepository interface {
	Create(ctx context.Context, instructor *models.Instructor) error
	GetByID(ctx context.Context, id string) (*models.Instructor, error)
	List(ctx context.Context) ([]models.Instructor, error)
	Update(ctx context.Context, instructor *models.Instructor) error
	Delete(ctx context.Context, id string) error
}

type ActivityRepository interface {
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
}

type TariffRepository interface {
	Create(ctx context.Context, tariff *models.Tariff) error
	GetByID(ctx context.Context, id string) (*models.Tariff, error)
	List(ctx context.Context) ([]models.Tariff, error)
	Update(ctx context.Context, tariff *models.Tariff) error
	Delete(ctx context.Context, id string) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	ListByPerson(ctx context.Context, personID string) ([]models.Payment, error)
}

// Transactor runs fn in one database transaction. Repositories called with
// the ctx passed to fn join that transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
