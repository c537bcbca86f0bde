package attendance_service

import (
	"context"
	"testing"
	"time"

	"studio-desk/internal/models"
	"studio-desk/internal/occupancy"
	"studio-desk/internal/repository"
	"studio-desk/internal/service"
	"studio-desk/internal/service/servicetest"

	"github.com/stretchr/testify/require"
)

var (
	monday     = servicetest.Day(2024, time.July, 1)
	nextMonday = servicetest.Day(2024, time.July, 8)
	tuesday    = servicetest.Day(2024, time.July, 2)
)

func newService(f *servicetest.Fixture) *attendanceService {
	svc := NewAttendanceService(
		f.Store.Attendance(), f.Store.Sessions(), f.Store.People(),
		f.Store.Transactor(), f.Occupancy, f.Notifier,
	).(*attendanceService)
	svc.now = func() time.Time { return monday.Add(10 * time.Hour) }
	return svc
}

func TestMark_JustifiedGrantsCredit(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	p := f.Person(t, "Ana")
	s := f.Session(t, f.Space(t, 3).ID, models.Monday, p.ID)

	require.NoError(t, svc.Mark(ctx, s.ID, monday, p.ID, models.MarkJustified))

	balance, err := svc.Balance(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 1, balance)
}

func TestMark_IsIdempotent(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	p := f.Person(t, "Ana")
	s := f.Session(t, f.Space(t, 3).ID, models.Monday, p.ID)

	require.NoError(t, svc.Mark(ctx, s.ID, monday, p.ID, models.MarkAbsent))
	require.NoError(t, svc.Mark(ctx, s.ID, monday, p.ID, models.MarkAbsent))

	rec, err := svc.Record(ctx, s.ID, monday)
	require.NoError(t, err)
	require.Equal(t, []string{p.ID}, rec.AbsentIDs)
	require.Empty(t, rec.PresentIDs)
	require.Empty(t, rec.JustifiedAbsenceIDs)
}

func TestMark_StatusesAreExclusive(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	p := f.Person(t, "Ana")
	s := f.Session(t, f.Space(t, 3).ID, models.Monday, p.ID)

	require.NoError(t, svc.Mark(ctx, s.ID, monday, p.ID, models.MarkAbsent))
	require.NoError(t, svc.Mark(ctx, s.ID, monday, p.ID, models.MarkPresent))

	rec, err := svc.Record(ctx, s.ID, monday)
	require.NoError(t, err)
	require.Equal(t, []string{p.ID}, rec.PresentIDs)
	require.Empty(t, rec.AbsentIDs)
}

func TestMark_Rules(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	enrolled := f.Person(t, "Enrolled")
	away := f.Person(t, "Away", servicetest.OnVacation(monday, nextMonday))
	outsider := f.Person(t, "Outsider")
	s := f.Session(t, f.Space(t, 3).ID, models.Monday, enrolled.ID, away.ID)

	t.Run("not enrolled", func(t *testing.T) {
		err := svc.Mark(ctx, s.ID, monday, outsider.ID, models.MarkPresent)
		require.ErrorIs(t, err, service.ErrNotEnrolled)
	})

	t.Run("on vacation", func(t *testing.T) {
		err := svc.Mark(ctx, s.ID, monday, away.ID, models.MarkJustified)
		require.ErrorIs(t, err, service.ErrOnVacation)
	})

	t.Run("wrong weekday", func(t *testing.T) {
		err := svc.Mark(ctx, s.ID, tuesday, enrolled.ID, models.MarkPresent)
		require.ErrorIs(t, err, occupancy.ErrWeekdayMismatch)
	})

	t.Run("one-time is not a mark", func(t *testing.T) {
		err := svc.Mark(ctx, s.ID, monday, enrolled.ID, models.MarkOneTime)
		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("unknown session", func(t *testing.T) {
		err := svc.Mark(ctx, "missing", monday, enrolled.ID, models.MarkPresent)
		require.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestMark_CannotUndoSpentCredit(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	space := f.Space(t, 3)
	p := f.Person(t, "Ana")
	own := f.Session(t, space.ID, models.Monday, p.ID)
	other := f.Session(t, space.ID, models.Monday)

	require.NoError(t, svc.Mark(ctx, own.ID, monday, p.ID, models.MarkJustified))
	require.NoError(t, svc.BookOneTime(ctx, other.ID, nextMonday, p.ID))

	err := svc.Mark(ctx, own.ID, monday, p.ID, models.MarkAbsent)
	require.ErrorIs(t, err, service.ErrCreditInUse)
	require.ErrorIs(t, svc.ClearMark(ctx, own.ID, monday, p.ID), service.ErrCreditInUse)

	require.NoError(t, svc.CancelOneTime(ctx, other.ID, nextMonday, p.ID))
	require.NoError(t, svc.Mark(ctx, own.ID, monday, p.ID, models.MarkAbsent))

	balance, err := svc.Balance(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 0, balance)
}

func TestBookOneTime_ConsumesCredit(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	space := f.Space(t, 3)
	p := f.Person(t, "Ana")
	own := f.Session(t, space.ID, models.Monday, p.ID)
	other := f.Session(t, space.ID, models.Monday)
	f.Mark(t, own.ID, monday, p.ID, models.MarkJustified)

	require.NoError(t, svc.BookOneTime(ctx, other.ID, nextMonday, p.ID))

	balance, err := svc.Balance(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 0, balance)

	rec, err := svc.Record(ctx, other.ID, nextMonday)
	require.NoError(t, err)
	require.Equal(t, []string{p.ID}, rec.OneTimeAttendees)

	err = svc.BookOneTime(ctx, other.ID, nextMonday, p.ID)
	require.ErrorIs(t, err, occupancy.ErrAlreadyMarked)
}

func TestBookOneTime_Rules(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()

	withCredit := func(t *testing.T, name string) models.Person {
		p := f.Person(t, name)
		f.Mark(t, "elsewhere", servicetest.Day(2024, time.June, 3), p.ID, models.MarkJustified)
		return p
	}

	t.Run("no credit", func(t *testing.T) {
		p := f.Person(t, "Broke")
		s := f.Session(t, f.Space(t, 3).ID, models.Monday)
		require.ErrorIs(t, svc.BookOneTime(ctx, s.ID, monday, p.ID), occupancy.ErrNoRecoveryCredit)
	})

	t.Run("fixed enrollee", func(t *testing.T) {
		p := withCredit(t, "Regular")
		s := f.Session(t, f.Space(t, 3).ID, models.Monday, p.ID)
		require.ErrorIs(t, svc.BookOneTime(ctx, s.ID, monday, p.ID), occupancy.ErrAlreadyEnrolled)
	})

	t.Run("date in the past", func(t *testing.T) {
		p := withCredit(t, "Late")
		s := f.Session(t, f.Space(t, 3).ID, models.Monday)
		past := servicetest.Day(2024, time.June, 24)
		require.ErrorIs(t, svc.BookOneTime(ctx, s.ID, past, p.ID), occupancy.ErrDateInPast)
	})

	t.Run("wrong weekday", func(t *testing.T) {
		p := withCredit(t, "Confused")
		s := f.Session(t, f.Space(t, 3).ID, models.Monday)
		require.ErrorIs(t, svc.BookOneTime(ctx, s.ID, tuesday, p.ID), occupancy.ErrWeekdayMismatch)
	})

	t.Run("full session", func(t *testing.T) {
		regular := f.Person(t, "Present")
		p := withCredit(t, "Hopeful")
		s := f.Session(t, f.Space(t, 1).ID, models.Monday, regular.ID)
		require.ErrorIs(t, svc.BookOneTime(ctx, s.ID, monday, p.ID), occupancy.ErrSessionFull)
	})

	t.Run("inactive person", func(t *testing.T) {
		p := f.Person(t, "Gone", servicetest.Inactive)
		s := f.Session(t, f.Space(t, 3).ID, models.Monday)
		require.ErrorIs(t, svc.BookOneTime(ctx, s.ID, monday, p.ID), occupancy.ErrPersonInactive)
	})
}

func TestBookOneTime_VacationOpeningIsBookable(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	present := f.Person(t, "Present")
	away := f.Person(t, "Away", servicetest.OnVacation(monday, monday))
	guest := f.Person(t, "Guest")
	f.Mark(t, "elsewhere", servicetest.Day(2024, time.June, 3), guest.ID, models.MarkJustified)
	s := f.Session(t, f.Space(t, 2).ID, models.Monday, present.ID, away.ID)

	require.NoError(t, svc.BookOneTime(ctx, s.ID, monday, guest.ID))

	snap, err := f.Occupancy.Snapshot(ctx, s.ID, monday)
	require.NoError(t, err)
	require.Equal(t, 2, snap.DailyOccupancy)
	require.True(t, snap.IsFullToday)
	require.Equal(t, 0, snap.AvailableSlots.Temporary)
}

func TestClearMark(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	p := f.Person(t, "Ana")
	s := f.Session(t, f.Space(t, 3).ID, models.Monday, p.ID)

	require.ErrorIs(t, svc.ClearMark(ctx, s.ID, monday, p.ID), repository.ErrNotFound)

	require.NoError(t, svc.Mark(ctx, s.ID, monday, p.ID, models.MarkJustified))
	require.NoError(t, svc.ClearMark(ctx, s.ID, monday, p.ID))

	rec, err := svc.Record(ctx, s.ID, monday)
	require.NoError(t, err)
	require.Empty(t, rec.JustifiedAbsenceIDs)
}

func TestBalanceByPhone(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	p := f.Person(t, "Ana")
	f.Mark(t, "s-old", servicetest.Day(2024, time.June, 3), p.ID, models.MarkJustified)
	f.Mark(t, "s-old", servicetest.Day(2024, time.June, 10), p.ID, models.MarkJustified)

	found, balance, err := svc.BalanceByPhone(ctx, p.Phone)
	require.NoError(t, err)
	require.Equal(t, p.ID, found.ID)
	require.Equal(t, 2, balance)

	_, _, err = svc.BalanceByPhone(ctx, "000")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

// lockLog records row locks in the order they are taken.
type lockLog struct {
	taken []string
}

type lockingPeople struct {
	repository.PersonRepository
	log *lockLog
}

func (r lockingPeople) LockByID(ctx context.Context, id string) (*models.Person, error) {
	r.log.taken = append(r.log.taken, "person:"+id)
	return r.PersonRepository.LockByID(ctx, id)
}

type lockingSessions struct {
	repository.SessionRepository
	log *lockLog
}

func (r lockingSessions) LockByID(ctx context.Context, id string) (*models.Session, error) {
	r.log.taken = append(r.log.taken, "session:"+id)
	return r.SessionRepository.LockByID(ctx, id)
}

func TestCreditChanges_LockThePerson(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	space := f.Space(t, 3)
	p := f.Person(t, "Ana")
	own := f.Session(t, space.ID, models.Monday, p.ID)
	other := f.Session(t, space.ID, models.Monday)

	log := &lockLog{}
	svc.personRepo = lockingPeople{f.Store.People(), log}
	svc.sessionRepo = lockingSessions{f.Store.Sessions(), log}

	require.NoError(t, svc.Mark(ctx, own.ID, monday, p.ID, models.MarkJustified))
	require.NoError(t, svc.BookOneTime(ctx, other.ID, nextMonday, p.ID))
	require.NoError(t, svc.CancelOneTime(ctx, other.ID, nextMonday, p.ID))
	require.NoError(t, svc.ClearMark(ctx, own.ID, monday, p.ID))

	require.Equal(t, []string{
		"session:" + own.ID, "person:" + p.ID,
		"session:" + other.ID, "person:" + p.ID,
		"session:" + other.ID,
		"session:" + own.ID, "person:" + p.ID,
	}, log.taken)
}

func TestMark_DoesNotOverwriteOneTimeBooking(t *testing.T) {
	f := servicetest.New(t)
	svc := newService(f)
	ctx := context.Background()
	space := f.Space(t, 3)
	g := f.Person(t, "Guest")
	own := f.Session(t, space.ID, models.Tuesday, g.ID)
	s := f.Session(t, space.ID, models.Monday)
	f.Mark(t, own.ID, tuesday, g.ID, models.MarkJustified)
	require.NoError(t, svc.BookOneTime(ctx, s.ID, nextMonday, g.ID))

	// roster edited behind the service's back
	require.NoError(t, f.Store.Sessions().AddPerson(ctx, s.ID, g.ID))

	err := svc.Mark(ctx, s.ID, nextMonday, g.ID, models.MarkAbsent)
	require.ErrorIs(t, err, occupancy.ErrAlreadyMarked)

	balance, err := svc.Balance(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, 0, balance)
}
