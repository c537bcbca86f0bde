package attendance

import (
	"context"
	"database/sql"
	"errors"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"

	"github.com/jmoiron/sqlx"
)

type attendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) repository.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const selectMarks = `
	SELECT session_id, date_key, person_id, status, recorded_at
	FROM studio.attendance_marks
`

func (r *attendanceRepository) Get(ctx context.Context, sessionID, dateKey string) (*models.AttendanceRecord, error) {
	var marks []models.AttendanceMark
	err := repository.Conn(ctx, r.db).SelectContext(ctx, &marks,
		selectMarks+` WHERE session_id = $1 AND date_key = $2 ORDER BY recorded_at, person_id`,
		sessionID, dateKey,
	)
	if err != nil {
		return nil, err
	}
	if len(marks) == 0 {
		return nil, nil
	}

	record := models.RecordFromMarks(sessionID, dateKey, marks)
	return &record, nil
}

func (r *attendanceRepository) GetMark(ctx context.Context, sessionID, dateKey, personID string) (*models.AttendanceMark, error) {
	var mark models.AttendanceMark
	err := repository.Conn(ctx, r.db).GetContext(ctx, &mark,
		selectMarks+` WHERE session_id = $1 AND date_key = $2 AND person_id = $3`,
		sessionID, dateKey, personID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &mark, nil
}

func (r *attendanceRepository) ListByDate(ctx context.Context, dateKey string) ([]models.AttendanceRecord, error) {
	var marks []models.AttendanceMark
	err := repository.Conn(ctx, r.db).SelectContext(ctx, &marks,
		selectMarks+` WHERE date_key = $1 ORDER BY session_id, recorded_at, person_id`,
		dateKey,
	)
	if err != nil {
		return nil, err
	}
	return models.RecordsFromMarks(marks), nil
}

func (r *attendanceRepository) ListBySession(ctx context.Context, sessionID, fromKey string) ([]models.AttendanceRecord, error) {
	var marks []models.AttendanceMark
	err := repository.Conn(ctx, r.db).SelectContext(ctx, &marks,
		selectMarks+` WHERE session_id = $1 AND date_key >= $2 ORDER BY date_key, recorded_at, person_id`,
		sessionID, fromKey,
	)
	if err != nil {
		return nil, err
	}
	return models.RecordsFromMarks(marks), nil
}

func (r *attendanceRepository) ListByPerson(ctx context.Context, personID string) ([]models.AttendanceRecord, error) {
	var marks []models.AttendanceMark
	err := repository.Conn(ctx, r.db).SelectContext(ctx, &marks,
		selectMarks+` WHERE person_id = $1 ORDER BY date_key, session_id`,
		personID,
	)
	if err != nil {
		return nil, err
	}
	return models.RecordsFromMarks(marks), nil
}

// Upsert is idempotent: the (session, date, person) key holds one status.
func (r *attendanceRepository) Upsert(ctx context.Context, m *models.AttendanceMark) error {
	query := `
		INSERT INTO studio.attendance_marks (session_id, date_key, person_id, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, date_key, person_id)
		DO UPDATE SET status = EXCLUDED.status, recorded_at = NOW()
		RETURNING recorded_at
	`
	return repository.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		m.SessionID, m.DateKey, m.PersonID, m.Status,
	).Scan(&m.RecordedAt)
}

func (r *attendanceRepository) DeleteMark(ctx context.Context, sessionID, dateKey, personID string) error {
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM studio.attendance_marks WHERE session_id = $1 AND date_key = $2 AND person_id = $3`,
		sessionID, dateKey, personID,
	)
	if err != nil {
		return err
	}
	return repository.ExpectAffected(res.RowsAffected())
}
