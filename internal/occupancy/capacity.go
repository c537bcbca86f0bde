package occupancy

import (
	"time"

	"studio-desk/internal/models"
)

// OverbookedDates returns the date keys of records on which session would
// hold more people than space allows. Records of other sessions are ignored.
func OverbookedDates(session models.Session, people []models.Person, records []models.AttendanceRecord, space *models.Space) []string {
	var dates []string
	for _, r := range records {
		if r.SessionID != session.ID {
			continue
		}
		date, err := ParseDateKey(r.Date, time.UTC)
		if err != nil {
			continue
		}
		snap := Compute(Input{
			Session: session,
			Date:    date,
			People:  people,
			Records: []models.AttendanceRecord{r},
			Space:   space,
		})
		if snap.DailyOccupancy > snap.Capacity {
			dates = append(dates, r.Date)
		}
	}
	return dates
}
