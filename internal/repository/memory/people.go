package memory

import (
	"context"
	"sort"
	"time"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"
)

type personRepo struct{ s *Store }

func (r personRepo) Create(_ context.Context, p *models.Person) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.people[p.ID]; ok {
		return repository.ErrConflict
	}
	for _, other := range r.s.people {
		if other.Phone == p.Phone {
			return repository.ErrConflict
		}
	}
	p.CreatedAt = r.s.tick()
	p.UpdatedAt = p.CreatedAt
	if p.VacationPeriods == nil {
		p.VacationPeriods = []models.VacationPeriod{}
	}
	r.s.people[p.ID] = clonePerson(*p)
	return nil
}

func (r personRepo) GetByID(_ context.Context, id string) (*models.Person, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.people[id]
	if !ok {
		return nil, nil
	}
	p = clonePerson(p)
	return &p, nil
}

// LockByID has nothing to lock: every store call holds the store mutex.
func (r personRepo) LockByID(ctx context.Context, id string) (*models.Person, error) {
	return r.GetByID(ctx, id)
}

func (r personRepo) GetByPhone(_ context.Context, phone string) (*models.Person, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.people {
		if p.Phone == phone {
			p = clonePerson(p)
			return &p, nil
		}
	}
	return nil, nil
}

func (r personRepo) List(_ context.Context) ([]models.Person, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	people := sortedValues(r.s.people, func(a, b models.Person) bool { return a.Name < b.Name })
	for i := range people {
		people[i] = clonePerson(people[i])
	}
	return people, nil
}

func (r personRepo) Update(_ context.Context, p *models.Person) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.people[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range r.s.people {
		if other.ID != p.ID && other.Phone == p.Phone {
			return repository.ErrConflict
		}
	}
	updated := clonePerson(*p)
	updated.VacationPeriods = current.VacationPeriods
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = r.s.tick()
	r.s.people[p.ID] = updated
	return nil
}

func (r personRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.people[id]; !ok {
		return repository.ErrNotFound
	}
	for sid, sess := range r.s.sessions {
		sess.PersonIDs, _ = removeString(sess.PersonIDs, id)
		waitlist := sess.Waitlist[:0:0]
		for _, e := range sess.Waitlist {
			if e.PersonID == nil || *e.PersonID != id {
				waitlist = append(waitlist, e)
			}
		}
		sess.Waitlist = waitlist
		r.s.sessions[sid] = sess
	}
	delete(r.s.people, id)
	return nil
}

func (r personRepo) AddVacation(_ context.Context, v *models.VacationPeriod) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.people[v.PersonID]
	if !ok {
		return repository.ErrNotFound
	}
	p = clonePerson(p)
	p.VacationPeriods = append(p.VacationPeriods, *v)
	sort.Slice(p.VacationPeriods, func(i, j int) bool {
		return p.VacationPeriods[i].StartDate.Before(p.VacationPeriods[j].StartDate)
	})
	r.s.people[p.ID] = p
	return nil
}

func (r personRepo) RemoveVacation(_ context.Context, personID, vacationID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.people[personID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, v := range p.VacationPeriods {
		if v.ID == vacationID {
			p = clonePerson(p)
			p.VacationPeriods = append(p.VacationPeriods[:i], p.VacationPeriods[i+1:]...)
			r.s.people[personID] = p
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r personRepo) RegisterPayment(_ context.Context, personID string, paidAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.people[personID]
	if !ok {
		return repository.ErrNotFound
	}
	p.LastPaymentDate = &paidAt
	if p.OutstandingPayments > 0 {
		p.OutstandingPayments--
	}
	r.s.people[personID] = p
	return nil
}
