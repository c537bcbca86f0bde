package session_service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studio-desk/internal/models"
	"studio-desk/internal/occupancy"
	"studio-desk/internal/repository"
	"studio-desk/internal/service"

	"github.com/google/uuid"
)

type sessionService struct {
	sessionRepo    repository.SessionRepository
	personRepo     repository.PersonRepository
	spaceRepo      repository.SpaceRepository
	activityRepo   repository.ActivityRepository
	instructorRepo repository.InstructorRepository
	tariffRepo     repository.TariffRepository
	attendanceRepo repository.AttendanceRepository
	tx             repository.Transactor
	occupancy      service.OccupancyService
	notifier       *service.Notifier
	now            func() time.Time
}

type Deps struct {
	Sessions    repository.SessionRepository
	People      repository.PersonRepository
	Spaces      repository.SpaceRepository
	Activities  repository.ActivityRepository
	Instructors repository.InstructorRepository
	Tariffs     repository.TariffRepository
	Attendance  repository.AttendanceRepository
	Transactor  repository.Transactor
	Occupancy   service.OccupancyService
	Notifier    *service.Notifier
}

func NewSessionService(d Deps) service.SessionService {
	return &sessionService{
		sessionRepo:    d.Sessions,
		personRepo:     d.People,
		spaceRepo:      d.Spaces,
		activityRepo:   d.Activities,
		instructorRepo: d.Instructors,
		tariffRepo:     d.Tariffs,
		attendanceRepo: d.Attendance,
		tx:             d.Transactor,
		occupancy:      d.Occupancy,
		notifier:       d.Notifier,
		now:            time.Now,
	}
}

func (s *sessionService) Create(ctx context.Context, in service.SessionInput) (*models.Session, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:           uuid.NewString(),
		ActivityID:   in.ActivityID,
		InstructorID: in.InstructorID,
		SpaceID:      in.SpaceID,
		DayOfWeek:    in.DayOfWeek,
		Time:         in.Time,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s.Get(ctx, session.ID)
}

func (s *sessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", id, repository.ErrNotFound)
	}
	return session, nil
}

func (s *sessionService) List(ctx context.Context) ([]models.Session, error) {
	return s.sessionRepo.List(ctx)
}

func (s *sessionService) ListForDate(ctx context.Context, date time.Time) ([]models.Session, error) {
	return s.sessionRepo.ListByDay(ctx, models.WeekdayOf(date))
}

func (s *sessionService) Update(ctx context.Context, id string, in service.SessionInput) (*models.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	session.ActivityID = in.ActivityID
	session.InstructorID = in.InstructorID
	session.SpaceID = in.SpaceID
	session.DayOfWeek = in.DayOfWeek
	session.Time = in.Time
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	s.notifier.SessionChanged(ctx, id)
	return s.Get(ctx, id)
}

// Delete is rejected while anyone is enrolled.
func (s *sessionService) Delete(ctx context.Context, id string) error {
	if err := s.sessionRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	s.notifier.SessionChanged(ctx, id)
	return nil
}

func (s *sessionService) Enroll(ctx context.Context, sessionID, personID string) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		session, capacity, err := s.lockSession(ctx, sessionID)
		if err != nil {
			return err
		}

		person, err := s.personRepo.GetByID(ctx, personID)
		if err != nil {
			return err
		}
		if person == nil {
			return fmt.Errorf("person %s: %w", personID, repository.ErrNotFound)
		}

		if err := s.enroll(ctx, session, capacity, person); err != nil {
			return err
		}
		return s.sessionRepo.RemoveWaitlistPerson(ctx, sessionID, personID)
	})
	if err != nil {
		return err
	}

	s.notifier.SessionChanged(ctx, sessionID)
	return nil
}

func (s *sessionService) Unenroll(ctx context.Context, sessionID, personID string) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		session, _, err := s.lockSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if !session.HasPerson(personID) {
			return fmt.Errorf("%w: %s", service.ErrNotEnrolled, personID)
		}
		return s.sessionRepo.RemovePerson(ctx, sessionID, personID)
	})
	if err != nil {
		return err
	}

	s.notifier.SessionChanged(ctx, sessionID)
	s.announceSlot(ctx, sessionID)
	return nil
}

func (s *sessionService) AddToWaitlist(ctx context.Context, sessionID string, in service.WaitlistInput) (*models.WaitlistEntry, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	entry := &models.WaitlistEntry{
		ID:        uuid.NewString(),
		SessionID: sessionID,
	}

	if in.PersonID != nil {
		person, err := s.personRepo.GetByID(ctx, *in.PersonID)
		if err != nil {
			return nil, err
		}
		if person == nil {
			return nil, fmt.Errorf("person %s: %w", *in.PersonID, repository.ErrNotFound)
		}
		if session.HasPerson(person.ID) {
			return nil, occupancy.ErrAlreadyEnrolled
		}
		for _, e := range session.Waitlist {
			if e.PersonID != nil && *e.PersonID == person.ID {
				return nil, service.ErrAlreadyWaitlisted
			}
		}
		entry.PersonID = &person.ID
	} else {
		entry.Name = strings.TrimSpace(in.Name)
		entry.Phone = strings.TrimSpace(in.Phone)
		if entry.Name == "" || entry.Phone == "" {
			return nil, service.Invalid("person_id", "either person_id or name and phone are required")
		}
	}

	if err := s.sessionRepo.AddWaitlistEntry(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, service.ErrAlreadyWaitlisted
		}
		return nil, fmt.Errorf("add waitlist entry: %w", err)
	}
	s.notifier.SessionChanged(ctx, sessionID)
	return entry, nil
}

func (s *sessionService) RemoveFromWaitlist(ctx context.Context, sessionID, entryID string) error {
	if err := s.sessionRepo.RemoveWaitlistEntry(ctx, sessionID, entryID); err != nil {
		return fmt.Errorf("remove waitlist entry %s: %w", entryID, err)
	}
	s.notifier.SessionChanged(ctx, sessionID)
	return nil
}

// Promote accepts any entry, not only the head: staff pick who gets the slot.
func (s *sessionService) Promote(ctx context.Context, sessionID, entryID string) (*models.Person, error) {
	var (
		promoted *models.Person
		created  bool
	)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		session, capacity, err := s.lockSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if len(session.PersonIDs) >= capacity {
			return occupancy.ErrSessionFull
		}

		entry, err := s.sessionRepo.GetWaitlistEntry(ctx, sessionID, entryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return fmt.Errorf("waitlist entry %s: %w", entryID, repository.ErrNotFound)
		}

		var person *models.Person
		if entry.IsProspect() {
			person = &models.Person{
				ID:              uuid.NewString(),
				Name:            entry.Name,
				Phone:           entry.Phone,
				JoinDate:        s.now(),
				Status:          models.PersonActive,
				VacationPeriods: []models.VacationPeriod{},
			}
			if err := s.personRepo.Create(ctx, person); err != nil {
				return fmt.Errorf("create person from prospect: %w", err)
			}
			created = true
		} else {
			person, err = s.personRepo.GetByID(ctx, *entry.PersonID)
			if err != nil {
				return err
			}
			if person == nil {
				return fmt.Errorf("person %s: %w", *entry.PersonID, repository.ErrNotFound)
			}
		}

		if err := s.enroll(ctx, session, capacity, person); err != nil {
			return err
		}
		if err := s.sessionRepo.RemoveWaitlistEntry(ctx, sessionID, entryID); err != nil {
			return err
		}

		promoted = person
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.SessionChanged(ctx, sessionID)
	if created {
		s.notifier.InvalidateAll(ctx)
	}
	return promoted, nil
}

// lockSession locks the session row and returns its structural capacity.
func (s *sessionService) lockSession(ctx context.Context, sessionID string) (*models.Session, int, error) {
	session, err := s.sessionRepo.LockByID(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if session == nil {
		return nil, 0, fmt.Errorf("session %s: %w", sessionID, repository.ErrNotFound)
	}

	space, err := s.spaceRepo.GetByID(ctx, session.SpaceID)
	if err != nil {
		return nil, 0, err
	}
	capacity := 0
	if space != nil && space.Capacity > 0 {
		capacity = space.Capacity
	}
	return session, capacity, nil
}

// enroll adds person to the locked session. The person's own one-time
// bookings from today on are dropped, which gives their credits back.
func (s *sessionService) enroll(ctx context.Context, session *models.Session, capacity int, person *models.Person) error {
	if err := s.checkEnrollment(ctx, session, capacity, person); err != nil {
		return err
	}

	upcoming, err := s.attendanceRepo.ListBySession(ctx, session.ID, occupancy.DateKey(s.now()))
	if err != nil {
		return fmt.Errorf("load upcoming attendance: %w", err)
	}
	if err := s.checkUpcomingBookings(ctx, session, person.ID, upcoming); err != nil {
		return err
	}

	if err := s.sessionRepo.AddPerson(ctx, session.ID, person.ID); err != nil {
		return fmt.Errorf("add person to roster: %w", err)
	}
	for _, record := range upcoming {
		if record.StatusOf(person.ID) != models.MarkOneTime {
			continue
		}
		if err := s.attendanceRepo.DeleteMark(ctx, session.ID, record.Date, person.ID); err != nil {
			return fmt.Errorf("drop one-time booking on %s: %w", record.Date, err)
		}
	}
	return nil
}

// checkUpcomingBookings rejects an enrollment that would overbook a date
// already holding one-time attendees.
func (s *sessionService) checkUpcomingBookings(ctx context.Context, session *models.Session, personID string, upcoming []models.AttendanceRecord) error {
	if len(upcoming) == 0 {
		return nil
	}

	people, err := s.personRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("load people: %w", err)
	}
	space, err := s.spaceRepo.GetByID(ctx, session.SpaceID)
	if err != nil {
		return err
	}

	withPerson := *session
	withPerson.PersonIDs = append(append([]string{}, session.PersonIDs...), personID)
	if dates := occupancy.OverbookedDates(withPerson, people, upcoming, space); len(dates) > 0 {
		return fmt.Errorf("%w: one-time bookings on %s", occupancy.ErrSessionFull, dates[0])
	}
	return nil
}

func (s *sessionService) checkEnrollment(ctx context.Context, session *models.Session, capacity int, person *models.Person) error {
	if !person.IsActive() {
		return occupancy.ErrPersonInactive
	}
	if session.HasPerson(person.ID) {
		return occupancy.ErrAlreadyEnrolled
	}
	if len(session.PersonIDs) >= capacity {
		return occupancy.ErrSessionFull
	}

	if person.TariffID == nil {
		return nil
	}
	tariff, err := s.tariffRepo.GetByID(ctx, *person.TariffID)
	if err != nil {
		return err
	}
	if tariff == nil || tariff.WeeklyLimit == nil {
		return nil
	}
	current, err := s.sessionRepo.ListByPerson(ctx, person.ID)
	if err != nil {
		return err
	}
	if len(current) >= *tariff.WeeklyLimit {
		return fmt.Errorf("%w: %d sessions per week", service.ErrWeeklyLimitReached, *tariff.WeeklyLimit)
	}
	return nil
}

func (s *sessionService) announceSlot(ctx context.Context, sessionID string) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err == nil && session == nil {
		err = repository.ErrNotFound
	}
	if err != nil {
		s.notifier.SlotCheckFailed(sessionID, err)
		return
	}
	snap, err := s.occupancy.Resolve(ctx, *session, s.now())
	if err != nil {
		s.notifier.SlotCheckFailed(sessionID, err)
		return
	}
	s.notifier.SlotOpened(snap)
}

func (s *sessionService) validate(ctx context.Context, in *service.SessionInput) error {
	in.Time = strings.TrimSpace(in.Time)

	if !in.DayOfWeek.Valid() {
		return service.Invalid("day_of_week", "must be between 1 (Monday) and 7 (Sunday)")
	}
	if _, err := time.Parse("15:04", in.Time); err != nil {
		return service.Invalid("time", "must be HH:MM")
	}

	space, err := s.spaceRepo.GetByID(ctx, in.SpaceID)
	if err != nil {
		return err
	}
	if space == nil {
		return service.Invalid("space_id", "unknown space %s", in.SpaceID)
	}
	activity, err := s.activityRepo.GetActivity(ctx, in.ActivityID)
	if err != nil {
		return err
	}
	if activity == nil {
		return service.Invalid("activity_id", "unknown activity %s", in.ActivityID)
	}
	instructor, err := s.instructorRepo.GetByID(ctx, in.InstructorID)
	if err != nil {
		return err
	}
	if instructor == nil {
		return service.Invalid("instructor_id", "unknown instructor %s", in.InstructorID)
	}
	return nil
}
