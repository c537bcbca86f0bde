package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

const selectSession = `
	SELECT s.id, s.activity_id, s.instructor_id, s.space_id, s.day_of_week, s.start_time,
	       s.created_at, s.updated_at,
	       COALESCE(a.name, '') AS activity_name,
	       COALESCE(i.name, '') AS instructor_name
	FROM studio.sessions s
	LEFT JOIN studio.activities a ON a.id = s.activity_id
	LEFT JOIN studio.instructors i ON i.id = s.instructor_id
`

func (r *sessionRepository) Create(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO studio.sessions (id, activity_id, instructor_id, space_id, day_of_week, start_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := repository.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		s.ID, s.ActivityID, s.InstructorID, s.SpaceID, s.DayOfWeek, s.Time,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return repository.MapError(err)
	}
	if s.PersonIDs == nil {
		s.PersonIDs = []string{}
	}
	if s.Waitlist == nil {
		s.Waitlist = []models.WaitlistEntry{}
	}
	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	return r.getOne(ctx, selectSession+` WHERE s.id = $1`, id)
}

// LockByID must run inside Transactor.InTx, otherwise the lock is released
// as soon as the statement finishes.
func (r *sessionRepository) LockByID(ctx context.Context, id string) (*models.Session, error) {
	return r.getOne(ctx, selectSession+` WHERE s.id = $1 FOR UPDATE OF s`, id)
}

func (r *sessionRepository) getOne(ctx context.Context, query string, id string) (*models.Session, error) {
	q := repository.Conn(ctx, r.db)

	var s models.Session
	if err := q.GetContext(ctx, &s, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	sessions := []models.Session{s}
	if err := attachMembers(ctx, q, sessions); err != nil {
		return nil, err
	}
	return &sessions[0], nil
}

func (r *sessionRepository) List(ctx context.Context) ([]models.Session, error) {
	return r.list(ctx, selectSession+` ORDER BY s.day_of_week, s.start_time`)
}

func (r *sessionRepository) ListByDay(ctx context.Context, day models.Weekday) ([]models.Session, error) {
	return r.list(ctx, selectSession+` WHERE s.day_of_week = $1 ORDER BY s.start_time`, day)
}

func (r *sessionRepository) ListByPerson(ctx context.Context, personID string) ([]models.Session, error) {
	return r.list(ctx, selectSession+`
		JOIN studio.session_people sp ON sp.session_id = s.id
		WHERE sp.person_id = $1
		ORDER BY s.day_of_week, s.start_time
	`, personID)
}

func (r *sessionRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Session, error) {
	q := repository.Conn(ctx, r.db)

	sessions := []models.Session{}
	if err := q.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, err
	}
	if err := attachMembers(ctx, q, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// attachMembers loads rosters and waitlists for all sessions in two queries.
func attachMembers(ctx context.Context, q repository.Querier, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	ids := make([]string, len(sessions))
	index := make(map[string]int, len(sessions))
	for i := range sessions {
		ids[i] = sessions[i].ID
		index[sessions[i].ID] = i
		sessions[i].PersonIDs = []string{}
		sessions[i].Waitlist = []models.WaitlistEntry{}
	}

	var members []struct {
		SessionID string `db:"session_id"`
		PersonID  string `db:"person_id"`
	}
	err := q.SelectContext(ctx, &members, `
		SELECT session_id, person_id
		FROM studio.session_people
		WHERE session_id = ANY($1)
		ORDER BY enrolled_at, person_id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load rosters: %w", err)
	}
	for _, m := range members {
		i := index[m.SessionID]
		sessions[i].PersonIDs = append(sessions[i].PersonIDs, m.PersonID)
	}

	var entries []models.WaitlistEntry
	err = q.SelectContext(ctx, &entries, `
		SELECT id, session_id, person_id, name, phone, created_at
		FROM studio.waitlist_entries
		WHERE session_id = ANY($1)
		ORDER BY created_at, id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load waitlists: %w", err)
	}
	for _, e := range entries {
		i := index[e.SessionID]
		sessions[i].Waitlist = append(sessions[i].Waitlist, e)
	}
	return nil
}

func (r *sessionRepository) Update(ctx context.Context, s *models.Session) error {
	query := `
		UPDATE studio.sessions
		SET activity_id = $2, instructor_id = $3, space_id = $4, day_of_week = $5,
		    start_time = $6, updated_at = NOW()
		WHERE id = $1
	`
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx, query,
		s.ID, s.ActivityID, s.InstructorID, s.SpaceID, s.DayOfWeek, s.Time,
	)
	if err != nil {
		return repository.MapError(err)
	}
	return repository.ExpectAffected(res.RowsAffected())
}

// Delete is rejected while the roster is nonempty.
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return repository.WithTx(ctx, r.db, func(ctx context.Context, q repository.Querier) error {
		var locked string
		err := q.QueryRowxContext(ctx, `SELECT id FROM studio.sessions WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return repository.ErrNotFound
			}
			return err
		}

		var enrolled int
		if err := q.GetContext(ctx, &enrolled, `SELECT COUNT(*) FROM studio.session_people WHERE session_id = $1`, id); err != nil {
			return err
		}
		if enrolled > 0 {
			return repository.ErrSessionHasPeople
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM studio.waitlist_entries WHERE session_id = $1`, id); err != nil {
			return err
		}
		_, err = q.ExecContext(ctx, `DELETE FROM studio.sessions WHERE id = $1`, id)
		return err
	})
}

func (r *sessionRepository) AddPerson(ctx context.Context, sessionID, personID string) error {
	_, err := repository.Conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO studio.session_people (session_id, person_id) VALUES ($1, $2)`,
		sessionID, personID,
	)
	return repository.MapError(err)
}

func (r *sessionRepository) RemovePerson(ctx context.Context, sessionID, personID string) error {
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM studio.session_people WHERE session_id = $1 AND person_id = $2`,
		sessionID, personID,
	)
	if err != nil {
		return err
	}
	return repository.ExpectAffected(res.RowsAffected())
}

func (r *sessionRepository) AddWaitlistEntry(ctx context.Context, e *models.WaitlistEntry) error {
	query := `
		INSERT INTO studio.waitlist_entries (id, session_id, person_id, name, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := repository.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		e.ID, e.SessionID, e.PersonID, e.Name, e.Phone,
	).Scan(&e.CreatedAt)
	return repository.MapError(err)
}

func (r *sessionRepository) GetWaitlistEntry(ctx context.Context, sessionID, entryID string) (*models.WaitlistEntry, error) {
	var e models.WaitlistEntry
	err := repository.Conn(ctx, r.db).GetContext(ctx, &e, `
		SELECT id, session_id, person_id, name, phone, created_at
		FROM studio.waitlist_entries
		WHERE id = $1 AND session_id = $2
	`, entryID, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *sessionRepository) RemoveWaitlistEntry(ctx context.Context, sessionID, entryID string) error {
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM studio.waitlist_entries WHERE id = $1 AND session_id = $2`,
		entryID, sessionID,
	)
	if err != nil {
		return err
	}
	return repository.ExpectAffected(res.RowsAffected())
}

// RemoveWaitlistPerson is a no-op when the person is not waitlisted.
func (r *sessionRepository) RemoveWaitlistPerson(ctx context.Context, sessionID, personID string) error {
	_, err := repository.Conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM studio.waitlist_entries WHERE session_id = $1 AND person_id = $2`,
		sessionID, personID,
	)
	return err
}
