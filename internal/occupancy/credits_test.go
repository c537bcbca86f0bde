package occupancy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studio-desk/internal/models"
)

func TestRecoveryBalance_IsGlobal(t *testing.T) {
	records := []models.AttendanceRecord{
		{SessionID: "s1", Date: "2024-07-01", JustifiedAbsenceIDs: []string{"P", "Q"}},
		{SessionID: "s2", Date: "2024-07-03", JustifiedAbsenceIDs: []string{"P"}},
		{SessionID: "s3", Date: "2024-07-05", OneTimeAttendees: []string{"P"}},
	}
	require.Equal(t, 1, RecoveryBalance("P", records))
	require.Equal(t, 1, RecoveryBalance("Q", records))
	require.Equal(t, 0, RecoveryBalance("R", records))
}

func bookingFor(p models.Person, records []models.AttendanceRecord, date string) Booking {
	sess := monday("A")
	d := day(date)
	return Booking{
		Person:   p,
		Session:  sess,
		Date:     d,
		Now:      day("2024-07-01").Add(9 * time.Hour),
		Balance:  RecoveryBalance(p.ID, records),
		Snapshot: Compute(Input{Session: sess, Date: d, People: []models.Person{person("A"), p}, Records: records, Space: space(3)}),
		Record:   FindRecord(records, sess.ID, DateKey(d)),
	}
}

func TestCheckOneTimeBooking_SingleCreditSingleBooking(t *testing.T) {
	p := person("P")
	records := []models.AttendanceRecord{
		{SessionID: "other", Date: "2024-06-20", JustifiedAbsenceIDs: []string{"P"}},
	}

	require.NoError(t, CheckOneTimeBooking(bookingFor(p, records, "2024-07-08")))

	records = append(records, models.AttendanceRecord{SessionID: "s1", Date: "2024-07-08", OneTimeAttendees: []string{"P"}})
	require.Equal(t, 0, RecoveryBalance("P", records))
	require.ErrorIs(t, CheckOneTimeBooking(bookingFor(p, records, "2024-07-15")), ErrNoRecoveryCredit)
}

func TestCheckOneTimeBooking_Rules(t *testing.T) {
	credit := []models.AttendanceRecord{{SessionID: "other", Date: "2024-06-20", JustifiedAbsenceIDs: []string{"P"}}}

	t.Run("weekday", func(t *testing.T) {
		require.ErrorIs(t, CheckOneTimeBooking(bookingFor(person("P"), credit, "2024-07-09")), ErrWeekdayMismatch)
	})
	t.Run("past", func(t *testing.T) {
		require.ErrorIs(t, CheckOneTimeBooking(bookingFor(person("P"), credit, "2024-06-24")), ErrDateInPast)
	})
	t.Run("today is allowed", func(t *testing.T) {
		require.NoError(t, CheckOneTimeBooking(bookingFor(person("P"), credit, "2024-07-01")))
	})
	t.Run("fixed enrollee", func(t *testing.T) {
		credit := []models.AttendanceRecord{{SessionID: "other", Date: "2024-06-20", JustifiedAbsenceIDs: []string{"A"}}}
		require.ErrorIs(t, CheckOneTimeBooking(bookingFor(person("A"), credit, "2024-07-08")), ErrAlreadyEnrolled)
	})
	t.Run("already booked", func(t *testing.T) {
		records := append(credit,
			models.AttendanceRecord{SessionID: "other", Date: "2024-06-21", JustifiedAbsenceIDs: []string{"P"}},
			models.AttendanceRecord{SessionID: "s1", Date: "2024-07-08", OneTimeAttendees: []string{"P"}},
		)
		require.ErrorIs(t, CheckOneTimeBooking(bookingFor(person("P"), records, "2024-07-08")), ErrAlreadyMarked)
	})
	t.Run("inactive", func(t *testing.T) {
		p := person("P")
		p.Status = models.PersonInactive
		require.ErrorIs(t, CheckOneTimeBooking(bookingFor(p, credit, "2024-07-08")), ErrPersonInactive)
	})
	t.Run("full", func(t *testing.T) {
		b := bookingFor(person("P"), credit, "2024-07-08")
		b.Snapshot = Compute(Input{Session: b.Session, Date: b.Date, People: []models.Person{person("A")}, Space: space(1)})
		require.ErrorIs(t, CheckOneTimeBooking(b), ErrSessionFull)
	})
	t.Run("zero capacity", func(t *testing.T) {
		b := bookingFor(person("P"), credit, "2024-07-08")
		b.Snapshot = Compute(Input{Session: b.Session, Date: b.Date})
		require.ErrorIs(t, CheckOneTimeBooking(b), ErrSessionFull)
	})
}

func TestCheckOneTimeBooking_VacationOpeningIsBookable(t *testing.T) {
	a := person("A", vacation("2024-07-08", "2024-07-08"))
	p := person("P")
	sess := monday("A")
	d := day("2024-07-08")
	credit := []models.AttendanceRecord{{SessionID: "other", Date: "2024-06-20", JustifiedAbsenceIDs: []string{"P"}}}

	err := CheckOneTimeBooking(Booking{
		Person:   p,
		Session:  sess,
		Date:     d,
		Now:      day("2024-07-01"),
		Balance:  RecoveryBalance("P", credit),
		Snapshot: Compute(Input{Session: sess, Date: d, People: []models.Person{a, p}, Records: credit, Space: space(1)}),
	})
	require.NoError(t, err)
}

func TestDateKeyAndParse(t *testing.T) {
	loc := time.FixedZone("studio", 3*3600)
	d, err := ParseDateKey("2024-07-01", loc)
	require.NoError(t, err)
	require.Equal(t, "2024-07-01", DateKey(d))
	require.Equal(t, models.Monday, models.WeekdayOf(d))

	_, err = ParseDateKey("01/07/2024", loc)
	require.Error(t, err)
}
