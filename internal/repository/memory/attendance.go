package memory

import (
	"context"
	"sort"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"
)

type attendanceRepo struct{ s *Store }

func (r attendanceRepo) collect(keep func(models.AttendanceMark) bool) []models.AttendanceMark {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	marks := []models.AttendanceMark{}
	for _, m := range r.s.marks {
		if keep(m) {
			marks = append(marks, m)
		}
	}
	sort.Slice(marks, func(i, j int) bool {
		a, b := marks[i], marks[j]
		if a.DateKey != b.DateKey {
			return a.DateKey < b.DateKey
		}
		if a.SessionID != b.SessionID {
			return a.SessionID < b.SessionID
		}
		return a.RecordedAt.Before(b.RecordedAt)
	})
	return marks
}

func (r attendanceRepo) Get(_ context.Context, sessionID, dateKey string) (*models.AttendanceRecord, error) {
	marks := r.collect(func(m models.AttendanceMark) bool {
		return m.SessionID == sessionID && m.DateKey == dateKey
	})
	if len(marks) == 0 {
		return nil, nil
	}
	rec := models.RecordFromMarks(sessionID, dateKey, marks)
	return &rec, nil
}

func (r attendanceRepo) GetMark(_ context.Context, sessionID, dateKey, personID string) (*models.AttendanceMark, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.marks[markKey{sessionID, dateKey, personID}]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r attendanceRepo) ListByDate(_ context.Context, dateKey string) ([]models.AttendanceRecord, error) {
	return models.RecordsFromMarks(r.collect(func(m models.AttendanceMark) bool { return m.DateKey == dateKey })), nil
}

func (r attendanceRepo) ListBySession(_ context.Context, sessionID, fromKey string) ([]models.AttendanceRecord, error) {
	return models.RecordsFromMarks(r.collect(func(m models.AttendanceMark) bool {
		return m.SessionID == sessionID && m.DateKey >= fromKey
	})), nil
}

func (r attendanceRepo) ListByPerson(_ context.Context, personID string) ([]models.AttendanceRecord, error) {
	return models.RecordsFromMarks(r.collect(func(m models.AttendanceMark) bool { return m.PersonID == personID })), nil
}

func (r attendanceRepo) Upsert(_ context.Context, m *models.AttendanceMark) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m.RecordedAt = r.s.tick()
	r.s.marks[markKey{m.SessionID, m.DateKey, m.PersonID}] = *m
	return nil
}

func (r attendanceRepo) DeleteMark(_ context.Context, sessionID, dateKey, personID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := markKey{sessionID, dateKey, personID}
	if _, ok := r.s.marks[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.marks, key)
	return nil
}
