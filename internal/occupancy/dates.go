package occupancy

import (
	"fmt"
	"time"

	"studio-desk/internal/models"
)

// DateLayout is the attendance bucket key format.
const DateLayout = "2006-01-02"

// DateKey returns the local calendar date of t as yyyy-MM-dd.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey parses a yyyy-MM-dd key as midnight in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected yyyy-mm-dd: %w", key, err)
	}
	return t, nil
}

// InPeriod reports whether date falls inside the inclusive [start, end] range,
// compared at day granularity.
func InPeriod(v models.VacationPeriod, date time.Time) bool {
	key := DateKey(date)
	return DateKey(v.StartDate) <= key && key <= DateKey(v.EndDate)
}

// OnVacation reports whether any of the person's vacation periods covers date.
func OnVacation(p models.Person, date time.Time) bool {
	for _, v := range p.VacationPeriods {
		if InPeriod(v, date) {
			return true
		}
	}
	return false
}
