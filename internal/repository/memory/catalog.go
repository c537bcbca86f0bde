package memory

import (
	"context"
	"sort"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"
)

type spaceRepo struct{ s *Store }

func (r spaceRepo) Create(_ context.Context, sp *models.Space) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sp.CreatedAt = r.s.tick()
	r.s.spaces[sp.ID] = *sp
	return nil
}

func (r spaceRepo) GetByID(_ context.Context, id string) (*models.Space, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sp, ok := r.s.spaces[id]
	if !ok {
		return nil, nil
	}
	return &sp, nil
}

func (r spaceRepo) List(_ context.Context) ([]models.Space, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return sortedValues(r.s.spaces, func(a, b models.Space) bool { return a.Name < b.Name }), nil
}

func (r spaceRepo) Update(_ context.Context, sp *models.Space) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.spaces[sp.ID]
	if !ok {
		return repository.ErrNotFound
	}
	current.Name, current.Capacity = sp.Name, sp.Capacity
	r.s.spaces[sp.ID] = current
	return nil
}

func (r spaceRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.spaces[id]; !ok {
		return repository.ErrNotFound
	}
	for _, sess := range r.s.sessions {
		if sess.SpaceID == id {
			return repository.ErrInUse
		}
	}
	delete(r.s.spaces, id)
	return nil
}

type instructorRepo struct{ s *Store }

func (r instructorRepo) Create(_ context.Context, i *models.Instructor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i.CreatedAt = r.s.tick()
	i.UpdatedAt = i.CreatedAt
	r.s.instructors[i.ID] = *i
	return nil
}

func (r instructorRepo) GetByID(_ context.Context, id string) (*models.Instructor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.instructors[id]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

func (r instructorRepo) List(_ context.Context) ([]models.Instructor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return sortedValues(r.s.instructors, func(a, b models.Instructor) bool { return a.Name < b.Name }), nil
}

func (r instructorRepo) Update(_ context.Context, i *models.Instructor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.instructors[i.ID]
	if !ok {
		return repository.ErrNotFound
	}
	current.Name, current.Phone, current.Specialty = i.Name, i.Phone, i.Specialty
	current.UpdatedAt = r.s.tick()
	r.s.instructors[i.ID] = current
	return nil
}

func (r instructorRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.instructors[id]; !ok {
		return repository.ErrNotFound
	}
	for _, sess := range r.s.sessions {
		if sess.InstructorID == id {
			return repository.ErrInUse
		}
	}
	delete(r.s.instructors, id)
	return nil
}

type activityRepo struct{ s *Store }

func (r activityRepo) CreateActivity(_ context.Context, a *models.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.activities {
		if other.Name == a.Name {
			return repository.ErrConflict
		}
	}
	a.CreatedAt = r.s.tick()
	r.s.activities[a.ID] = *a
	return nil
}

func (r activityRepo) GetActivity(_ context.Context, id string) (*models.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.activities[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r activityRepo) ListActivities(_ context.Context) ([]models.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return sortedValues(r.s.activities, func(a, b models.Activity) bool { return a.Name < b.Name }), nil
}

func (r activityRepo) UpdateActivity(_ context.Context, a *models.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.activities[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	current.Name = a.Name
	r.s.activities[a.ID] = current
	return nil
}

func (r activityRepo) DeleteActivity(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.activities[id]; !ok {
		return repository.ErrNotFound
	}
	for _, sess := range r.s.sessions {
		if sess.ActivityID == id {
			return repository.ErrInUse
		}
	}
	delete(r.s.activities, id)
	return nil
}

func (r activityRepo) CreateLevel(_ context.Context, l *models.Level) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.levels {
		if other.Name == l.Name {
			return repository.ErrConflict
		}
	}
	l.CreatedAt = r.s.tick()
	r.s.levels[l.ID] = *l
	return nil
}

func (r activityRepo) GetLevel(_ context.Context, id string) (*models.Level, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.levels[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r activityRepo) ListLevels(_ context.Context) ([]models.Level, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return sortedValues(r.s.levels, func(a, b models.Level) bool { return a.Name < b.Name }), nil
}

func (r activityRepo) UpdateLevel(_ context.Context, l *models.Level) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.levels[l.ID]
	if !ok {
		return repository.ErrNotFound
	}
	current.Name = l.Name
	r.s.levels[l.ID] = current
	return nil
}

func (r activityRepo) DeleteLevel(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.levels[id]; !ok {
		return repository.ErrNotFound
	}
	for _, p := range r.s.people {
		if p.LevelID != nil && *p.LevelID == id {
			return repository.ErrInUse
		}
	}
	delete(r.s.levels, id)
	return nil
}

type tariffRepo struct{ s *Store }

func (r tariffRepo) Create(_ context.Context, t *models.Tariff) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.CreatedAt = r.s.tick()
	r.s.tariffs[t.ID] = *t
	return nil
}

func (r tariffRepo) GetByID(_ context.Context, id string) (*models.Tariff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tariffs[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r tariffRepo) List(_ context.Context) ([]models.Tariff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return sortedValues(r.s.tariffs, func(a, b models.Tariff) bool {
		if !a.Price.Equal(b.Price) {
			return a.Price.LessThan(b.Price)
		}
		return a.Name < b.Name
	}), nil
}

func (r tariffRepo) Update(_ context.Context, t *models.Tariff) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.tariffs[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	current.Name, current.Price, current.WeeklyLimit = t.Name, t.Price, t.WeeklyLimit
	r.s.tariffs[t.ID] = current
	return nil
}

func (r tariffRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tariffs[id]; !ok {
		return repository.ErrNotFound
	}
	for _, p := range r.s.people {
		if p.TariffID != nil && *p.TariffID == id {
			return repository.ErrInUse
		}
	}
	delete(r.s.tariffs, id)
	return nil
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.people[p.PersonID]; !ok {
		return repository.ErrInUse
	}
	r.s.payments = append(r.s.payments, *p)
	return nil
}

func (r paymentRepo) ListByPerson(_ context.Context, personID string) ([]models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Payment{}
	for _, p := range r.s.payments {
		if p.PersonID == personID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaidAt.After(out[j].PaidAt) })
	return out, nil
}
