package occupancy

import (
	"errors"
	"time"

	"studio-desk/internal/models"
)

var (
	ErrNoRecoveryCredit = errors.New("no recovery credit available")
	ErrWeekdayMismatch  = errors.New("date does not fall on the session weekday")
	ErrDateInPast       = errors.New("date is in the past")
	ErrAlreadyEnrolled  = errors.New("person is a fixed enrollee of this session")
	ErrAlreadyMarked    = errors.New("person already has attendance recorded for this session and date")
	ErrSessionFull      = errors.New("session is full")
	ErrPersonInactive   = errors.New("person is inactive")
)

// RecoveryBalance is the global credit balance of a person: justified
// absences minus one-time attendances, across every session and date.
func RecoveryBalance(personID string, records []models.AttendanceRecord) int {
	justified, used := 0, 0
	for _, r := range records {
		for _, id := range r.JustifiedAbsenceIDs {
			if id == personID {
				justified++
			}
		}
		for _, id := range r.OneTimeAttendees {
			if id == personID {
				used++
			}
		}
	}
	return justified - used
}

// Booking describes a requested one-time attendance.
type Booking struct {
	Person   models.Person
	Session  models.Session
	Date     time.Time
	Now      time.Time
	Balance  int
	Snapshot Snapshot // occupancy of Session on Date
	Record   *models.AttendanceRecord
}

// CheckOneTimeBooking returns the first rule the booking violates, or nil.
func CheckOneTimeBooking(b Booking) error {
	if !b.Person.IsActive() {
		return ErrPersonInactive
	}
	if models.WeekdayOf(b.Date) != b.Session.DayOfWeek {
		return ErrWeekdayMismatch
	}
	if DateKey(b.Date) < DateKey(b.Now.In(b.Date.Location())) {
		return ErrDateInPast
	}
	if b.Session.HasPerson(b.Person.ID) {
		return ErrAlreadyEnrolled
	}
	if b.Record != nil && b.Record.StatusOf(b.Person.ID) != "" {
		return ErrAlreadyMarked
	}
	if b.Snapshot.Capacity <= 0 || b.Snapshot.IsFullToday {
		return ErrSessionFull
	}
	if b.Balance <= 0 {
		return ErrNoRecoveryCredit
	}
	return nil
}
