package models

import (
	"fmt"
	"time"
)

// Weekday - 1=Monday .. 7=Sunday
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// WeekdayOf maps a time.Weekday (Sunday=0) onto the studio numbering.
func WeekdayOf(t time.Time) Weekday {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return Weekday(wd)
}

// Session - recurring weekly class slot
type Session struct {
	ID           string          `db:"id" json:"id"`
	ActivityID   string          `db:"activity_id" json:"activity_id"`
	InstructorID string          `db:"instructor_id" json:"instructor_id"`
	SpaceID      string          `db:"space_id" json:"space_id"`
	DayOfWeek    Weekday         `db:"day_of_week" json:"day_of_week"`
	Time         string          `db:"start_time" json:"time"` // "18:30"
	PersonIDs    []string        `db:"-" json:"person_ids"`
	Waitlist     []WaitlistEntry `db:"-" json:"waitlist"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`

	// Joined fields
	ActivityName   string `db:"activity_name" json:"activity_name,omitempty"`
	InstructorName string `db:"instructor_name" json:"instructor_name,omitempty"`
}

func (s *Session) HasPerson(personID string) bool {
	for _, id := range s.PersonIDs {
		if id == personID {
			return true
		}
	}
	return false
}

// WaitlistEntry is either a reference to an existing person or an
// unregistered prospect with name and phone.
type WaitlistEntry struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"-"`
	PersonID  *string   `db:"person_id" json:"person_id,omitempty"`
	Name      string    `db:"name" json:"name,omitempty"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (e WaitlistEntry) IsProspect() bool {
	return e.PersonID == nil
}
