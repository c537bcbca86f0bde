package attendance_service

import (
	"context"
	"fmt"
	"time"

	"studio-desk/internal/models"
	"studio-desk/internal/occupancy"
	"studio-desk/internal/repository"
	"studio-desk/internal/service"
)

type attendanceService struct {
	attendanceRepo repository.AttendanceRepository
	sessionRepo    repository.SessionRepository
	personRepo     repository.PersonRepository
	tx             repository.Transactor
	occupancy      service.OccupancyService
	notifier       *service.Notifier
	now            func() time.Time
}

func NewAttendanceService(
	attendanceRepo repository.AttendanceRepository,
	sessionRepo repository.SessionRepository,
	personRepo repository.PersonRepository,
	tx repository.Transactor,
	occupancyService service.OccupancyService,
	notifier *service.Notifier,
) service.AttendanceService {
	return &attendanceService{
		attendanceRepo: attendanceRepo,
		sessionRepo:    sessionRepo,
		personRepo:     personRepo,
		tx:             tx,
		occupancy:      occupancyService,
		notifier:       notifier,
		now:            time.Now,
	}
}

func (s *attendanceService) Record(ctx context.Context, sessionID string, date time.Time) (*models.AttendanceRecord, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, repository.ErrNotFound)
	}

	dateKey := occupancy.DateKey(date)
	record, err := s.attendanceRepo.Get(ctx, sessionID, dateKey)
	if err != nil {
		return nil, err
	}
	if record == nil {
		empty := models.RecordFromMarks(sessionID, dateKey, nil)
		return &empty, nil
	}
	return record, nil
}

// Mark records a fixed enrollee. One-time attendance goes through
// BookOneTime instead.
func (s *attendanceService) Mark(ctx context.Context, sessionID string, date time.Time, personID string, status models.MarkStatus) error {
	switch status {
	case models.MarkPresent, models.MarkAbsent, models.MarkJustified:
	default:
		return service.Invalid("status", "must be present, absent or justified")
	}
	dateKey := occupancy.DateKey(date)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		session, err := s.lockSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if models.WeekdayOf(date) != session.DayOfWeek {
			return occupancy.ErrWeekdayMismatch
		}
		if !session.HasPerson(personID) {
			return fmt.Errorf("%w: %s", service.ErrNotEnrolled, personID)
		}

		person, err := s.lockPerson(ctx, personID)
		if err != nil {
			return err
		}
		if occupancy.OnVacation(*person, date) {
			return service.ErrOnVacation
		}

		existing, err := s.attendanceRepo.GetMark(ctx, sessionID, dateKey, personID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status == status {
			return nil
		}
		if existing != nil && existing.Status == models.MarkOneTime {
			return occupancy.ErrAlreadyMarked
		}
		if existing != nil && existing.Status == models.MarkJustified {
			if err := s.ensureCreditUnused(ctx, personID); err != nil {
				return err
			}
		}

		return s.attendanceRepo.Upsert(ctx, &models.AttendanceMark{
			SessionID: sessionID,
			DateKey:   dateKey,
			PersonID:  personID,
			Status:    status,
		})
	})
	if err != nil {
		return err
	}

	s.notifier.SessionChanged(ctx, sessionID)
	return nil
}

// ClearMark returns the person to the implicit default. Clearing a one-time
// mark gives the credit back.
func (s *attendanceService) ClearMark(ctx context.Context, sessionID string, date time.Time, personID string) error {
	dateKey := occupancy.DateKey(date)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.lockSession(ctx, sessionID); err != nil {
			return err
		}
		// marks carry no foreign keys, a deleted person's mark is still clearable
		if _, err := s.personRepo.LockByID(ctx, personID); err != nil {
			return err
		}

		existing, err := s.attendanceRepo.GetMark(ctx, sessionID, dateKey, personID)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("attendance mark of %s on %s: %w", personID, dateKey, repository.ErrNotFound)
		}
		if existing.Status == models.MarkJustified {
			if err := s.ensureCreditUnused(ctx, personID); err != nil {
				return err
			}
		}
		return s.attendanceRepo.DeleteMark(ctx, sessionID, dateKey, personID)
	})
	if err != nil {
		return err
	}

	s.notifier.SessionChanged(ctx, sessionID)
	return nil
}

func (s *attendanceService) BookOneTime(ctx context.Context, sessionID string, date time.Time, personID string) error {
	dateKey := occupancy.DateKey(date)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		session, err := s.lockSession(ctx, sessionID)
		if err != nil {
			return err
		}
		person, err := s.lockPerson(ctx, personID)
		if err != nil {
			return err
		}

		balance, err := s.balance(ctx, personID)
		if err != nil {
			return err
		}
		record, err := s.attendanceRepo.Get(ctx, sessionID, dateKey)
		if err != nil {
			return err
		}
		snap, err := s.occupancy.Resolve(ctx, *session, date)
		if err != nil {
			return err
		}

		err = occupancy.CheckOneTimeBooking(occupancy.Booking{
			Person:   *person,
			Session:  *session,
			Date:     date,
			Now:      s.now(),
			Balance:  balance,
			Snapshot: *snap,
			Record:   record,
		})
		if err != nil {
			return err
		}

		return s.attendanceRepo.Upsert(ctx, &models.AttendanceMark{
			SessionID: sessionID,
			DateKey:   dateKey,
			PersonID:  personID,
			Status:    models.MarkOneTime,
		})
	})
	if err != nil {
		return err
	}

	s.notifier.SessionChanged(ctx, sessionID)
	s.notifier.OneTimeBooked(sessionID, dateKey, personID)
	return nil
}

func (s *attendanceService) CancelOneTime(ctx context.Context, sessionID string, date time.Time, personID string) error {
	dateKey := occupancy.DateKey(date)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.lockSession(ctx, sessionID); err != nil {
			return err
		}

		mark, err := s.attendanceRepo.GetMark(ctx, sessionID, dateKey, personID)
		if err != nil {
			return err
		}
		if mark == nil || mark.Status != models.MarkOneTime {
			return fmt.Errorf("one-time booking of %s on %s: %w", personID, dateKey, repository.ErrNotFound)
		}
		return s.attendanceRepo.DeleteMark(ctx, sessionID, dateKey, personID)
	})
	if err != nil {
		return err
	}

	s.notifier.SessionChanged(ctx, sessionID)
	return nil
}

func (s *attendanceService) Balance(ctx context.Context, personID string) (int, error) {
	person, err := s.personRepo.GetByID(ctx, personID)
	if err != nil {
		return 0, err
	}
	if person == nil {
		return 0, fmt.Errorf("person %s: %w", personID, repository.ErrNotFound)
	}
	return s.balance(ctx, personID)
}

func (s *attendanceService) BalanceByPhone(ctx context.Context, phone string) (*models.Person, int, error) {
	person, err := s.personRepo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, 0, err
	}
	if person == nil {
		return nil, 0, fmt.Errorf("person with phone %s: %w", phone, repository.ErrNotFound)
	}
	balance, err := s.balance(ctx, person.ID)
	if err != nil {
		return nil, 0, err
	}
	return person, balance, nil
}

func (s *attendanceService) balance(ctx context.Context, personID string) (int, error) {
	records, err := s.attendanceRepo.ListByPerson(ctx, personID)
	if err != nil {
		return 0, fmt.Errorf("load attendance of person: %w", err)
	}
	return occupancy.RecoveryBalance(personID, records), nil
}

// ensureCreditUnused fails when taking one justified absence away would
// leave the balance negative.
func (s *attendanceService) ensureCreditUnused(ctx context.Context, personID string) error {
	balance, err := s.balance(ctx, personID)
	if err != nil {
		return err
	}
	if balance-1 < 0 {
		return service.ErrCreditInUse
	}
	return nil
}

func (s *attendanceService) lockSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.sessionRepo.LockByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, repository.ErrNotFound)
	}
	return session, nil
}

// lockPerson serializes every change to the person's recovery balance. It is
// taken after the session lock, in that order everywhere.
func (s *attendanceService) lockPerson(ctx context.Context, personID string) (*models.Person, error) {
	person, err := s.personRepo.LockByID(ctx, personID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, fmt.Errorf("person %s: %w", personID, repository.ErrNotFound)
	}
	return person, nil
}
