package person_service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"studio-desk/internal/models"
	"studio-desk/internal/occupancy"
	"studio-desk/internal/repository"
	"studio-desk/internal/service"

	"github.com/google/uuid"
)

type personService struct {
	personRepo     repository.PersonRepository
	sessionRepo    repository.SessionRepository
	attendanceRepo repository.AttendanceRepository
	spaceRepo      repository.SpaceRepository
	tariffRepo     repository.TariffRepository
	activityRepo   repository.ActivityRepository
	tx             repository.Transactor
	occupancy      service.OccupancyService
	notifier       *service.Notifier
	now            func() time.Time
}

func NewPersonService(
	personRepo repository.PersonRepository,
	sessionRepo repository.SessionRepository,
	attendanceRepo repository.AttendanceRepository,
	spaceRepo repository.SpaceRepository,
	tariffRepo repository.TariffRepository,
	activityRepo repository.ActivityRepository,
	tx repository.Transactor,
	occupancyService service.OccupancyService,
	notifier *service.Notifier,
) service.PersonService {
	return &personService{
		personRepo:     personRepo,
		sessionRepo:    sessionRepo,
		attendanceRepo: attendanceRepo,
		spaceRepo:      spaceRepo,
		tariffRepo:     tariffRepo,
		activityRepo:   activityRepo,
		tx:             tx,
		occupancy:      occupancyService,
		notifier:       notifier,
		now:            time.Now,
	}
}

func (s *personService) Create(ctx context.Context, in service.PersonInput) (*models.Person, error) {
	if err := s.validate(ctx, "", &in); err != nil {
		return nil, err
	}

	joinDate := s.now()
	if in.JoinDate != nil {
		joinDate = *in.JoinDate
	}

	person := &models.Person{
		ID:                  uuid.NewString(),
		Name:                in.Name,
		Phone:               in.Phone,
		TariffID:            in.TariffID,
		LevelID:             in.LevelID,
		JoinDate:            joinDate,
		OutstandingPayments: in.OutstandingPayments,
		Status:              in.Status,
		VacationPeriods:     []models.VacationPeriod{},
	}
	if err := s.personRepo.Create(ctx, person); err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}
	return person, nil
}

func (s *personService) Get(ctx context.Context, id string) (*models.Person, error) {
	person, err := s.personRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, fmt.Errorf("person %s: %w", id, repository.ErrNotFound)
	}
	return person, nil
}

func (s *personService) List(ctx context.Context) ([]models.Person, error) {
	return s.personRepo.List(ctx)
}

func (s *personService) Update(ctx context.Context, id string, in service.PersonInput) (*models.Person, error) {
	person, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, id, &in); err != nil {
		return nil, err
	}

	person.Name = in.Name
	person.Phone = in.Phone
	person.TariffID = in.TariffID
	person.LevelID = in.LevelID
	person.OutstandingPayments = in.OutstandingPayments
	person.Status = in.Status
	if in.JoinDate != nil {
		person.JoinDate = *in.JoinDate
	}

	if err := s.personRepo.Update(ctx, person); err != nil {
		return nil, fmt.Errorf("update person: %w", err)
	}
	s.notifier.InvalidateAll(ctx)
	return person, nil
}

// Inactive people keep their roster slots but cannot enroll or book.
func (s *personService) SetStatus(ctx context.Context, id string, status models.PersonStatus) error {
	if status != models.PersonActive && status != models.PersonInactive {
		return service.Invalid("status", "must be %q or %q", models.PersonActive, models.PersonInactive)
	}

	person, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if person.Status == status {
		return nil
	}

	person.Status = status
	if err := s.personRepo.Update(ctx, person); err != nil {
		return fmt.Errorf("update person status: %w", err)
	}
	s.notifier.InvalidateAll(ctx)
	return nil
}

func (s *personService) Delete(ctx context.Context, id string) error {
	sessions, err := s.sessionRepo.ListByPerson(ctx, id)
	if err != nil {
		return fmt.Errorf("load sessions of person: %w", err)
	}

	if err := s.personRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete person %s: %w", id, err)
	}
	s.notifier.InvalidateAll(ctx)

	// Свободные места в группах, где кто-то ждёт
	today := s.now()
	for _, sess := range sessions {
		current, err := s.sessionRepo.GetByID(ctx, sess.ID)
		if err == nil && current == nil {
			err = repository.ErrNotFound
		}
		if err != nil {
			s.notifier.SlotCheckFailed(sess.ID, err)
			continue
		}
		snap, err := s.occupancy.Resolve(ctx, *current, today)
		if err != nil {
			s.notifier.SlotCheckFailed(sess.ID, err)
			continue
		}
		s.notifier.SlotOpened(snap)
	}
	return nil
}

func (s *personService) AddVacation(ctx context.Context, personID string, start, end time.Time) (*models.VacationPeriod, error) {
	if start.IsZero() || end.IsZero() {
		return nil, service.Invalid("dates", "start and end dates are required")
	}
	if occupancy.DateKey(start) > occupancy.DateKey(end) {
		return nil, service.Invalid("end_date", "must not be before start_date")
	}

	vacation := &models.VacationPeriod{
		ID:        uuid.NewString(),
		PersonID:  personID,
		StartDate: start,
		EndDate:   end,
	}
	if err := s.personRepo.AddVacation(ctx, vacation); err != nil {
		return nil, fmt.Errorf("add vacation for person %s: %w", personID, err)
	}
	s.notifier.InvalidateAll(ctx)
	return vacation, nil
}

// RemoveVacation is rejected while a one-time booking inside the period
// holds the slot the vacation opened.
func (s *personService) RemoveVacation(ctx context.Context, personID, vacationID string) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		sessions, err := s.lockSessionsOf(ctx, personID)
		if err != nil {
			return err
		}

		person, err := s.personRepo.LockByID(ctx, personID)
		if err != nil {
			return err
		}
		if person == nil {
			return fmt.Errorf("person %s: %w", personID, repository.ErrNotFound)
		}
		var vacation *models.VacationPeriod
		remaining := make([]models.VacationPeriod, 0, len(person.VacationPeriods))
		for i, v := range person.VacationPeriods {
			if v.ID == vacationID {
				vacation = &person.VacationPeriods[i]
				continue
			}
			remaining = append(remaining, v)
		}
		if vacation == nil {
			return fmt.Errorf("vacation %s: %w", vacationID, repository.ErrNotFound)
		}

		if err := s.checkVacationBookings(ctx, sessions, personID, *vacation, remaining); err != nil {
			return err
		}
		return s.personRepo.RemoveVacation(ctx, personID, vacationID)
	})
	if err != nil {
		return fmt.Errorf("remove vacation %s: %w", vacationID, err)
	}

	s.notifier.InvalidateAll(ctx)
	return nil
}

// lockSessionsOf locks every session the person is enrolled in, in id order.
func (s *personService) lockSessionsOf(ctx context.Context, personID string) ([]models.Session, error) {
	enrolled, err := s.sessionRepo.ListByPerson(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("load sessions of person: %w", err)
	}
	sort.Slice(enrolled, func(i, j int) bool { return enrolled[i].ID < enrolled[j].ID })

	locked := make([]models.Session, 0, len(enrolled))
	for _, sess := range enrolled {
		current, err := s.sessionRepo.LockByID(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		if current != nil {
			locked = append(locked, *current)
		}
	}
	return locked, nil
}

func (s *personService) checkVacationBookings(ctx context.Context, sessions []models.Session, personID string, vacation models.VacationPeriod, remaining []models.VacationPeriod) error {
	if len(sessions) == 0 {
		return nil
	}

	people, err := s.personRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("load people: %w", err)
	}
	for i := range people {
		if people[i].ID == personID {
			people[i].VacationPeriods = remaining
		}
	}

	startKey, endKey := occupancy.DateKey(vacation.StartDate), occupancy.DateKey(vacation.EndDate)
	for _, sess := range sessions {
		records, err := s.attendanceRepo.ListBySession(ctx, sess.ID, startKey)
		if err != nil {
			return fmt.Errorf("load attendance of session %s: %w", sess.ID, err)
		}
		covered := records[:0]
		for _, r := range records {
			if r.Date <= endKey {
				covered = append(covered, r)
			}
		}

		space, err := s.spaceRepo.GetByID(ctx, sess.SpaceID)
		if err != nil {
			return err
		}
		if dates := occupancy.OverbookedDates(sess, people, covered, space); len(dates) > 0 {
			return fmt.Errorf("%w: session %s on %s", service.ErrVacationHasBookings, sess.ID, dates[0])
		}
	}
	return nil
}

// validate normalizes in and checks references. selfID is empty on create.
func (s *personService) validate(ctx context.Context, selfID string, in *service.PersonInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.Name == "" {
		return service.Invalid("name", "is required")
	}
	if in.Phone == "" {
		return service.Invalid("phone", "is required")
	}
	if in.OutstandingPayments < 0 {
		return service.Invalid("outstanding_payments", "must not be negative")
	}
	if in.Status == "" {
		in.Status = models.PersonActive
	}
	if in.Status != models.PersonActive && in.Status != models.PersonInactive {
		return service.Invalid("status", "must be %q or %q", models.PersonActive, models.PersonInactive)
	}

	existing, err := s.personRepo.GetByPhone(ctx, in.Phone)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return fmt.Errorf("phone %s: %w", in.Phone, repository.ErrConflict)
	}

	if in.TariffID != nil {
		tariff, err := s.tariffRepo.GetByID(ctx, *in.TariffID)
		if err != nil {
			return err
		}
		if tariff == nil {
			return service.Invalid("tariff_id", "unknown tariff %s", *in.TariffID)
		}
	}
	if in.LevelID != nil {
		level, err := s.activityRepo.GetLevel(ctx, *in.LevelID)
		if err != nil {
			return err
		}
		if level == nil {
			return service.Invalid("level_id", "unknown level %s", *in.LevelID)
		}
	}
	return nil
}
