package person_service

import (
	"context"
	"testing"
	"time"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"
	"studio-desk/internal/service"
	"studio-desk/internal/service/servicetest"

	"github.com/stretchr/testify/require"
)

var today = servicetest.Day(2024, time.July, 1)

func newService(f *servicetest.Fixture) *personService {
	svc := NewPersonService(
		f.Store.People(), f.Store.Sessions(), f.Store.Attendance(), f.Store.Spaces(),
		f.Store.Tariffs(), f.Store.Activities(), f.Store.Transactor(),
		f.Occupancy, f.Notifier,
	).(*personService)
	svc.now = func() time.Time { return today }
	return svc
}

func TestCreate_Defaults(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)

	p, err := svc.Create(context.Background(), service.PersonInput{Name: "  Ana ", Phone: "555"})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Equal(t, "Ana", p.Name)
	require.Equal(t, models.PersonActive, p.Status)
	require.Equal(t, today, p.JoinDate)
	require.Empty(t, p.VacationPeriods)
}

func TestCreate_Validation(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	unknown := "missing"

	cases := map[string]service.PersonInput{
		"name":                 {Phone: "1"},
		"phone":                {Name: "Ana"},
		"status":               {Name: "Ana", Phone: "1", Status: "paused"},
		"outstanding_payments": {Name: "Ana", Phone: "1", OutstandingPayments: -1},
		"tariff_id":            {Name: "Ana", Phone: "1", TariffID: &unknown},
		"level_id":             {Name: "Ana", Phone: "1", LevelID: &unknown},
	}
	for field, in := range cases {
		t.Run(field, func(t *testing.T) {
			_, err := svc.Create(ctx, in)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, field, verr.Field)
		})
	}
}

func TestCreate_PhoneIsUnique(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()

	_, err := svc.Create(ctx, service.PersonInput{Name: "Ana", Phone: "555"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, service.PersonInput{Name: "Bea", Phone: "555"})
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestUpdate_KeepsOwnPhone(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()

	p, err := svc.Create(ctx, service.PersonInput{Name: "Ana", Phone: "555"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, p.ID, service.PersonInput{Name: "Ana Maria", Phone: "555", OutstandingPayments: 2})
	require.NoError(t, err)
	require.Equal(t, "Ana Maria", updated.Name)
	require.Equal(t, 2, updated.OutstandingPayments)
	require.Equal(t, p.JoinDate, updated.JoinDate)
}

func TestSetStatus(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	p := f.Person(t, "Ana")

	require.NoError(t, svc.SetStatus(ctx, p.ID, models.PersonInactive))
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive())

	var verr *service.ValidationError
	require.ErrorAs(t, svc.SetStatus(ctx, p.ID, "frozen"), &verr)
	require.ErrorIs(t, svc.SetStatus(ctx, "ghost", models.PersonActive), repository.ErrNotFound)
}

func TestDelete_CascadesAndAnnouncesSlots(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	leaving, staying, waiting := f.Person(t, "Leaving"), f.Person(t, "Staying"), f.Person(t, "Waiting")

	full := f.Session(t, f.Space(t, 2).ID, models.Monday, leaving.ID, staying.ID)
	require.NoError(t, f.Store.Sessions().AddWaitlistEntry(ctx, &models.WaitlistEntry{
		ID: "w1", SessionID: full.ID, PersonID: &waiting.ID,
	}))
	waitedOn := f.Session(t, f.Space(t, 2).ID, models.Tuesday)
	require.NoError(t, f.Store.Sessions().AddWaitlistEntry(ctx, &models.WaitlistEntry{
		ID: "w2", SessionID: waitedOn.ID, PersonID: &leaving.ID,
	}))

	require.NoError(t, svc.Delete(ctx, leaving.ID))

	got, err := f.Store.Sessions().GetByID(ctx, full.ID)
	require.NoError(t, err)
	require.Equal(t, []string{staying.ID}, got.PersonIDs)

	got, err = f.Store.Sessions().GetByID(ctx, waitedOn.ID)
	require.NoError(t, err)
	require.Empty(t, got.Waitlist)

	events := f.SlotEvents()
	require.Len(t, events, 1)
	require.Equal(t, full.ID, events[0].SessionID)

	require.ErrorIs(t, svc.Delete(ctx, leaving.ID), repository.ErrNotFound)
}

func TestVacations(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	p := f.Person(t, "Ana")

	_, err := svc.AddVacation(ctx, p.ID, servicetest.Day(2024, time.July, 10), servicetest.Day(2024, time.July, 1))
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)

	// single-day vacation
	v, err := svc.AddVacation(ctx, p.ID, today, today)
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.VacationPeriods, 1)
	require.Equal(t, v.ID, got.VacationPeriods[0].ID)

	require.NoError(t, svc.RemoveVacation(ctx, p.ID, v.ID))
	require.ErrorIs(t, svc.RemoveVacation(ctx, p.ID, v.ID), repository.ErrNotFound)

	_, err = svc.AddVacation(ctx, "ghost", today, today)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRemoveVacation_KeepsBookedOpening(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	a := f.Person(t, "A")
	b := f.Person(t, "B", servicetest.OnVacation(today, today))
	guest := f.Person(t, "Guest")
	s := f.Session(t, f.Space(t, 2).ID, models.Monday, a.ID, b.ID)
	f.Mark(t, s.ID, today, guest.ID, models.MarkOneTime)

	err := svc.RemoveVacation(ctx, b.ID, b.VacationPeriods[0].ID)
	require.ErrorIs(t, err, service.ErrVacationHasBookings)

	got, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, got.VacationPeriods, 1)

	snap, err := f.Occupancy.Snapshot(ctx, s.ID, today)
	require.NoError(t, err)
	require.LessOrEqual(t, snap.DailyOccupancy, snap.Capacity)

	// once the guest is gone the vacation can go too
	require.NoError(t, f.Store.Attendance().DeleteMark(ctx, s.ID, "2024-07-01", guest.ID))
	require.NoError(t, svc.RemoveVacation(ctx, b.ID, b.VacationPeriods[0].ID))
}

func TestRemoveVacation_FreeSlotStaysBookable(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	b := f.Person(t, "B", servicetest.OnVacation(today, today))
	guest := f.Person(t, "Guest")
	s := f.Session(t, f.Space(t, 2).ID, models.Monday, b.ID)
	f.Mark(t, s.ID, today, guest.ID, models.MarkOneTime)

	// the guest took the structural vacancy, not the opening
	require.NoError(t, svc.RemoveVacation(ctx, b.ID, b.VacationPeriods[0].ID))
}
