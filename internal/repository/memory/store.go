// Package memory keeps every studio relation in process memory. It backs the
// service tests and mirrors the Postgres repositories' observable behavior.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"
)

type Store struct {
	mu sync.Mutex

	people      map[string]models.Person
	sessions    map[string]models.Session
	marks       map[markKey]models.AttendanceMark
	spaces      map[string]models.Space
	instructors map[string]models.Instructor
	activities  map[string]models.Activity
	levels      map[string]models.Level
	tariffs     map[string]models.Tariff
	payments    []models.Payment

	seq int64
}

type markKey struct {
	sessionID, dateKey, personID string
}

func NewStore() *Store {
	return &Store{
		people:      make(map[string]models.Person),
		sessions:    make(map[string]models.Session),
		marks:       make(map[markKey]models.AttendanceMark),
		spaces:      make(map[string]models.Space),
		instructors: make(map[string]models.Instructor),
		activities:  make(map[string]models.Activity),
		levels:      make(map[string]models.Level),
		tariffs:     make(map[string]models.Tariff),
	}
}

// tick returns strictly increasing timestamps so insertion order is stable.
func (s *Store) tick() time.Time {
	s.seq++
	return time.Unix(0, 0).Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *Store) People() repository.PersonRepository { return personRepo{s} }
func (s *Store) Sessions() repository.SessionRepository { return sessionRepo{s} }
func (s *Store) Attendance() repository.AttendanceRepository { return attendanceRepo{s} }
func (s *Store) Spaces() repository.SpaceRepository { return spaceRepo{s} }
func (s *Store) Instructors() repository.InstructorRepository { return instructorRepo{s} }
func (s *Store) Activities() repository.ActivityRepository { return activityRepo{s} }
func (s *Store) Tariffs() repository.TariffRepository { return tariffRepo{s} }
func (s *Store) Payments() repository.PaymentRepository { return paymentRepo{s} }
func (s *Store) Transactor() repository.Transactor { return transactor{} }

type transactor struct{}

// InTx runs fn directly. Every store method is atomic on its own.
func (transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func clonePerson(p models.Person) models.Person {
	p.VacationPeriods = append([]models.VacationPeriod{}, p.VacationPeriods...)
	return p
}

func cloneSession(s models.Session) models.Session {
	s.PersonIDs = append([]string{}, s.PersonIDs...)
	s.Waitlist = append([]models.WaitlistEntry{}, s.Waitlist...)
	return s
}

func removeString(list []string, v string) ([]string, bool) {
	for i, id := range list {
		if id == v {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}

func sortedValues[V any](m map[string]V, less func(a, b V) bool) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
