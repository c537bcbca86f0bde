// Package occupancy derives the daily roster and slot availability of a
// recurring session. Everything here is a pure function of its inputs.
package occupancy

import (
	"time"

	"studio-desk/internal/models"
)

// RosterStatus is the per person, per session, per date state.
type RosterStatus string

const (
	FixedPresent   RosterStatus = "fixed-present"
	FixedAbsent    RosterStatus = "fixed-absent"
	FixedJustified RosterStatus = "fixed-justified-absent"
	OneTimePresent RosterStatus = "one-time-present"
	// Vacation is not a recorded status: the person keeps the slot but is
	// not counted for the date.
	Vacation RosterStatus = "vacation"
)

type Input struct {
	Session models.Session
	Date    time.Time
	People  []models.Person
	Records []models.AttendanceRecord
	Space   *models.Space // nil means capacity 0
}

type Slots struct {
	Fixed     int `json:"fixed"`
	Temporary int `json:"temporary"`
	Total     int `json:"total"`
}

type RosterEntry struct {
	Person models.Person `json:"person"`
	Status RosterStatus  `json:"status"`
}

type WaitlistCandidate struct {
	Entry  models.WaitlistEntry `json:"entry"`
	Person *models.Person       `json:"person,omitempty"` // nil for prospects
}

type Snapshot struct {
	SessionID           string              `json:"session_id"`
	Date                string              `json:"date"`
	Capacity            int                 `json:"capacity"`
	ActiveFixedPeople   []models.Person     `json:"active_fixed_people"`
	VacationingPeople   []models.Person     `json:"vacationing_people"`
	OneTimeAttendees    []models.Person     `json:"one_time_attendees"`
	DailyOccupancy      int                 `json:"daily_occupancy"`
	AvailableSlots      Slots               `json:"available_slots"`
	IsStructurallyFull  bool                `json:"is_structurally_full"`
	IsFullToday         bool                `json:"is_full_today"`
	Roster              []RosterEntry       `json:"roster"`
	Waitlist            []WaitlistCandidate `json:"waitlist"`
	WaitlistOpportunity bool                `json:"waitlist_opportunity"`
}

// Compute resolves who attends in.Session on in.Date and how many slots are
// left. It never mutates its inputs.
func Compute(in Input) Snapshot {
	dateKey := DateKey(in.Date)

	capacity := 0
	if in.Space != nil && in.Space.Capacity > 0 {
		capacity = in.Space.Capacity
	}

	people := make(map[string]models.Person, len(in.People))
	for _, p := range in.People {
		people[p.ID] = p
	}

	record := FindRecord(in.Records, in.Session.ID, dateKey)

	snap := Snapshot{
		SessionID:         in.Session.ID,
		Date:              dateKey,
		Capacity:          capacity,
		ActiveFixedPeople: []models.Person{},
		VacationingPeople: []models.Person{},
		OneTimeAttendees:  []models.Person{},
		Roster:            []RosterEntry{},
		Waitlist:          []WaitlistCandidate{},
	}

	for _, id := range in.Session.PersonIDs {
		p, ok := people[id]
		if !ok {
			continue
		}
		if OnVacation(p, in.Date) {
			snap.VacationingPeople = append(snap.VacationingPeople, p)
			snap.Roster = append(snap.Roster, RosterEntry{Person: p, Status: Vacation})
			continue
		}
		snap.ActiveFixedPeople = append(snap.ActiveFixedPeople, p)
		snap.Roster = append(snap.Roster, RosterEntry{Person: p, Status: fixedStatus(record, id)})
	}

	if record != nil {
		for _, id := range record.OneTimeAttendees {
			p, ok := people[id]
			if !ok || in.Session.HasPerson(id) {
				continue
			}
			snap.OneTimeAttendees = append(snap.OneTimeAttendees, p)
			snap.Roster = append(snap.Roster, RosterEntry{Person: p, Status: OneTimePresent})
		}
	}

	fixedCount := len(in.Session.PersonIDs)
	snap.DailyOccupancy = len(snap.ActiveFixedPeople) + len(snap.OneTimeAttendees)
	snap.IsStructurallyFull = fixedCount >= capacity
	snap.IsFullToday = snap.DailyOccupancy >= capacity

	if capacity > 0 {
		snap.AvailableSlots.Fixed = max(0, capacity-fixedCount)
		snap.AvailableSlots.Total = max(0, capacity-snap.DailyOccupancy)
		// one-time attendees fill structural vacancies before vacation openings
		usedOfOpenings := max(0, len(snap.OneTimeAttendees)-snap.AvailableSlots.Fixed)
		snap.AvailableSlots.Temporary = max(0, len(snap.VacationingPeople)-usedOfOpenings)
	}

	for _, e := range in.Session.Waitlist {
		if e.IsProspect() {
			snap.Waitlist = append(snap.Waitlist, WaitlistCandidate{Entry: e})
			continue
		}
		p, ok := people[*e.PersonID]
		if !ok {
			continue
		}
		snap.Waitlist = append(snap.Waitlist, WaitlistCandidate{Entry: e, Person: &p})
	}
	snap.WaitlistOpportunity = snap.AvailableSlots.Fixed > 0 && len(snap.Waitlist) > 0

	return snap
}

// FindRecord returns the record for (sessionID, dateKey) or nil.
func FindRecord(records []models.AttendanceRecord, sessionID, dateKey string) *models.AttendanceRecord {
	for i := range records {
		if records[i].SessionID == sessionID && records[i].Date == dateKey {
			return &records[i]
		}
	}
	return nil
}

// present unless marked otherwise
func fixedStatus(record *models.AttendanceRecord, personID string) RosterStatus {
	if record == nil {
		return FixedPresent
	}
	switch record.StatusOf(personID) {
	case models.MarkAbsent:
		return FixedAbsent
	case models.MarkJustified:
		return FixedJustified
	}
	return FixedPresent
}
