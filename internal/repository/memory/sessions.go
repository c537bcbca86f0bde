package memory

import (
	"context"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"
)

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(_ context.Context, sess *models.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[sess.ID]; ok {
		return repository.ErrConflict
	}
	sess.CreatedAt = r.s.tick()
	sess.UpdatedAt = sess.CreatedAt
	if sess.PersonIDs == nil {
		sess.PersonIDs = []string{}
	}
	if sess.Waitlist == nil {
		sess.Waitlist = []models.WaitlistEntry{}
	}
	r.s.sessions[sess.ID] = cloneSession(*sess)
	return nil
}

func (r sessionRepo) GetByID(_ context.Context, id string) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, nil
	}
	sess = r.s.joined(sess)
	return &sess, nil
}

func (r sessionRepo) LockByID(ctx context.Context, id string) (*models.Session, error) {
	return r.GetByID(ctx, id)
}

// joined fills the activity and instructor names the way the SQL join does.
func (s *Store) joined(sess models.Session) models.Session {
	sess = cloneSession(sess)
	sess.ActivityName = s.activities[sess.ActivityID].Name
	sess.InstructorName = s.instructors[sess.InstructorID].Name
	return sess
}

func (r sessionRepo) filter(keep func(models.Session) bool) []models.Session {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := sortedValues(r.s.sessions, func(a, b models.Session) bool {
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.ID < b.ID
	})
	out := []models.Session{}
	for _, sess := range all {
		if keep(sess) {
			out = append(out, r.s.joined(sess))
		}
	}
	return out
}

func (r sessionRepo) List(_ context.Context) ([]models.Session, error) {
	return r.filter(func(models.Session) bool { return true }), nil
}

func (r sessionRepo) ListByDay(_ context.Context, day models.Weekday) ([]models.Session, error) {
	return r.filter(func(s models.Session) bool { return s.DayOfWeek == day }), nil
}

func (r sessionRepo) ListByPerson(_ context.Context, personID string) ([]models.Session, error) {
	return r.filter(func(s models.Session) bool { return s.HasPerson(personID) }), nil
}

func (r sessionRepo) Update(_ context.Context, sess *models.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.sessions[sess.ID]
	if !ok {
		return repository.ErrNotFound
	}
	current.ActivityID = sess.ActivityID
	current.InstructorID = sess.InstructorID
	current.SpaceID = sess.SpaceID
	current.DayOfWeek = sess.DayOfWeek
	current.Time = sess.Time
	current.UpdatedAt = r.s.tick()
	r.s.sessions[sess.ID] = current
	return nil
}

func (r sessionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if len(sess.PersonIDs) > 0 {
		return repository.ErrSessionHasPeople
	}
	delete(r.s.sessions, id)
	return nil
}

func (r sessionRepo) AddPerson(_ context.Context, sessionID, personID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[sessionID]
	if !ok {
		return repository.ErrInUse
	}
	if _, ok := r.s.people[personID]; !ok {
		return repository.ErrInUse
	}
	if sess.HasPerson(personID) {
		return repository.ErrConflict
	}
	sess = cloneSession(sess)
	sess.PersonIDs = append(sess.PersonIDs, personID)
	r.s.sessions[sessionID] = sess
	return nil
}

func (r sessionRepo) RemovePerson(_ context.Context, sessionID, personID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[sessionID]
	if !ok {
		return repository.ErrNotFound
	}
	sess = cloneSession(sess)
	var removed bool
	if sess.PersonIDs, removed = removeString(sess.PersonIDs, personID); !removed {
		return repository.ErrNotFound
	}
	r.s.sessions[sessionID] = sess
	return nil
}

func (r sessionRepo) AddWaitlistEntry(_ context.Context, e *models.WaitlistEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[e.SessionID]
	if !ok {
		return repository.ErrInUse
	}
	for _, existing := range sess.Waitlist {
		if e.PersonID != nil && existing.PersonID != nil && *existing.PersonID == *e.PersonID {
			return repository.ErrConflict
		}
	}
	e.CreatedAt = r.s.tick()
	sess = cloneSession(sess)
	sess.Waitlist = append(sess.Waitlist, *e)
	r.s.sessions[e.SessionID] = sess
	return nil
}

func (r sessionRepo) GetWaitlistEntry(_ context.Context, sessionID, entryID string) (*models.WaitlistEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.sessions[sessionID].Waitlist {
		if e.ID == entryID {
			return &e, nil
		}
	}
	return nil, nil
}

func (r sessionRepo) RemoveWaitlistEntry(_ context.Context, sessionID, entryID string) error {
	return r.removeWaitlist(sessionID, func(e models.WaitlistEntry) bool { return e.ID == entryID }, true)
}

func (r sessionRepo) RemoveWaitlistPerson(_ context.Context, sessionID, personID string) error {
	return r.removeWaitlist(sessionID, func(e models.WaitlistEntry) bool {
		return e.PersonID != nil && *e.PersonID == personID
	}, false)
}

func (r sessionRepo) removeWaitlist(sessionID string, match func(models.WaitlistEntry) bool, mustExist bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[sessionID]
	if !ok {
		if mustExist {
			return repository.ErrNotFound
		}
		return nil
	}
	kept := []models.WaitlistEntry{}
	for _, e := range sess.Waitlist {
		if !match(e) {
			kept = append(kept, e)
		}
	}
	if mustExist && len(kept) == len(sess.Waitlist) {
		return repository.ErrNotFound
	}
	sess.Waitlist = kept
	r.s.sessions[sessionID] = sess
	return nil
}
