package models

import "time"

type MarkStatus string

const (
	MarkPresent   MarkStatus = "present"
	MarkAbsent    MarkStatus = "absent"
	MarkJustified MarkStatus = "justified"
	MarkOneTime   MarkStatus = "one_time"
)

func (s MarkStatus) Valid() bool {
	switch s {
	case MarkPresent, MarkAbsent, MarkJustified, MarkOneTime:
		return true
	}
	return false
}

// AttendanceMark - one row per (session, date, person)
type AttendanceMark struct {
	SessionID  string     `db:"session_id" json:"session_id"`
	DateKey    string     `db:"date_key" json:"date"`
	PersonID   string     `db:"person_id" json:"person_id"`
	Status     MarkStatus `db:"status" json:"status"`
	RecordedAt time.Time  `db:"recorded_at" json:"recorded_at"`
}

// AttendanceRecord - everything recorded for a session on one date.
// Fixed enrollees without a mark are implicitly present.
type AttendanceRecord struct {
	SessionID           string   `json:"session_id"`
	Date                string   `json:"date"` // "2006-01-02"
	PresentIDs          []string `json:"present_ids"`
	AbsentIDs           []string `json:"absent_ids"`
	JustifiedAbsenceIDs []string `json:"justified_absence_ids"`
	OneTimeAttendees    []string `json:"one_time_attendees"`
}

// RecordFromMarks groups marks of a single (session, date) into a record.
func RecordFromMarks(sessionID, dateKey string, marks []AttendanceMark) AttendanceRecord {
	rec := AttendanceRecord{
		SessionID:           sessionID,
		Date:                dateKey,
		PresentIDs:          []string{},
		AbsentIDs:           []string{},
		JustifiedAbsenceIDs: []string{},
		OneTimeAttendees:    []string{},
	}
	for _, m := range marks {
		switch m.Status {
		case MarkPresent:
			rec.PresentIDs = append(rec.PresentIDs, m.PersonID)
		case MarkAbsent:
			rec.AbsentIDs = append(rec.AbsentIDs, m.PersonID)
		case MarkJustified:
			rec.JustifiedAbsenceIDs = append(rec.JustifiedAbsenceIDs, m.PersonID)
		case MarkOneTime:
			rec.OneTimeAttendees = append(rec.OneTimeAttendees, m.PersonID)
		}
	}
	return rec
}

// RecordsFromMarks groups marks by (session, date), keeping first-seen order.
func RecordsFromMarks(marks []AttendanceMark) []AttendanceRecord {
	type key struct{ session, date string }
	var order []key
	grouped := make(map[key][]AttendanceMark)
	for _, m := range marks {
		k := key{m.SessionID, m.DateKey}
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], m)
	}

	records := make([]AttendanceRecord, 0, len(order))
	for _, k := range order {
		records = append(records, RecordFromMarks(k.session, k.date, grouped[k]))
	}
	return records
}

// StatusOf returns the recorded status of a person, or "" when unmarked.
func (r *AttendanceRecord) StatusOf(personID string) MarkStatus {
	switch {
	case contains(r.PresentIDs, personID):
		return MarkPresent
	case contains(r.AbsentIDs, personID):
		return MarkAbsent
	case contains(r.JustifiedAbsenceIDs, personID):
		return MarkJustified
	case contains(r.OneTimeAttendees, personID):
		return MarkOneTime
	}
	return ""
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
