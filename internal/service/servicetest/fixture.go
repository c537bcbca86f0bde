// Package servicetest wires services over the in-memory store for tests.
package servicetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"studio-desk/internal/cache"
	"studio-desk/internal/events"
	"studio-desk/internal/models"
	"studio-desk/internal/repository/memory"
	"studio-desk/internal/service"
	occupancy_service "studio-desk/internal/service/occupancy"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type Fixture struct {
	Store     *memory.Store
	Bus       *events.LocalBus
	Notifier  *service.Notifier
	Occupancy service.OccupancyService

	mu         sync.Mutex
	slotEvents []events.SlotOpenedEvent
	seq        int
}

func New(t testing.TB) *Fixture {
	t.Helper()

	f := &Fixture{
		Store: memory.NewStore(),
		Bus:   events.NewLocalBus(),
	}
	logger := zap.NewNop()
	f.Notifier = service.NewNotifier(cache.NewNoopCache(), f.Bus, logger)
	f.Occupancy = occupancy_service.NewOccupancyService(
		f.Store.Sessions(), f.Store.People(), f.Store.Attendance(), f.Store.Spaces(),
		cache.NewNoopCache(), logger,
	)
	require.NoError(t, f.Bus.SubscribeSlotOpened(func(e events.SlotOpenedEvent) {
		f.mu.Lock()
		f.slotEvents = append(f.slotEvents, e)
		f.mu.Unlock()
	}))
	return f
}

// SlotEvents waits for pending deliveries first.
func (f *Fixture) SlotEvents() []events.SlotOpenedEvent {
	f.Bus.Wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.SlotOpenedEvent(nil), f.slotEvents...)
}

func (f *Fixture) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

// Day returns midnight UTC of the given date.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (f *Fixture) Space(t testing.TB, capacity int) models.Space {
	t.Helper()
	space := models.Space{ID: f.nextID("space-"), Name: "Room", Capacity: capacity}
	require.NoError(t, f.Store.Spaces().Create(context.Background(), &space))
	return space
}

func (f *Fixture) Person(t testing.TB, name string, opts ...func(*models.Person)) models.Person {
	t.Helper()
	p := models.Person{
		ID:       f.nextID("person-"),
		Name:     name,
		Phone:    f.nextID("+7900"),
		JoinDate: Day(2024, time.January, 1),
		Status:   models.PersonActive,
	}
	for _, opt := range opts {
		opt(&p)
	}
	vacations := p.VacationPeriods
	p.VacationPeriods = nil
	require.NoError(t, f.Store.People().Create(context.Background(), &p))
	for _, v := range vacations {
		v.PersonID = p.ID
		require.NoError(t, f.Store.People().AddVacation(context.Background(), &v))
	}

	got, err := f.Store.People().GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	return *got
}

func OnVacation(start, end time.Time) func(*models.Person) {
	return func(p *models.Person) {
		p.VacationPeriods = append(p.VacationPeriods, models.VacationPeriod{
			ID:        fmt.Sprintf("vac-%s", start.Format("20060102")),
			StartDate: start,
			EndDate:   end,
		})
	}
}

func Inactive(p *models.Person) {
	p.Status = models.PersonInactive
}

func WithTariff(tariffID string) func(*models.Person) {
	return func(p *models.Person) {
		p.TariffID = &tariffID
	}
}

// Session creates a session in space on day with the given fixed roster,
// creating its activity and instructor on the way.
func (f *Fixture) Session(t testing.TB, spaceID string, day models.Weekday, personIDs ...string) models.Session {
	t.Helper()
	ctx := context.Background()

	activity := models.Activity{ID: f.nextID("activity-"), Name: f.nextID("Pilates ")}
	require.NoError(t, f.Store.Activities().CreateActivity(ctx, &activity))
	instructor := models.Instructor{ID: f.nextID("instructor-"), Name: "Eva"}
	require.NoError(t, f.Store.Instructors().Create(ctx, &instructor))

	s := models.Session{
		ID:           f.nextID("session-"),
		ActivityID:   activity.ID,
		InstructorID: instructor.ID,
		SpaceID:      spaceID,
		DayOfWeek:    day,
		Time:         "18:00",
	}
	require.NoError(t, f.Store.Sessions().Create(ctx, &s))
	for _, id := range personIDs {
		require.NoError(t, f.Store.Sessions().AddPerson(ctx, s.ID, id))
	}

	got, err := f.Store.Sessions().GetByID(ctx, s.ID)
	require.NoError(t, err)
	return *got
}

func (f *Fixture) Mark(t testing.TB, sessionID string, date time.Time, personID string, status models.MarkStatus) {
	t.Helper()
	require.NoError(t, f.Store.Attendance().Upsert(context.Background(), &models.AttendanceMark{
		SessionID: sessionID,
		DateKey:   date.Format("2006-01-02"),
		PersonID:  personID,
		Status:    status,
	}))
}
