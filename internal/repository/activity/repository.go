package activity

import (
	"context"
	"database/sql"
	"errors"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"

	"github.com/jmoiron/sqlx"
)

// activityRepository keeps both catalogs: activities and levels.
type activityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) CreateActivity(ctx context.Context, a *models.Activity) error {
	err := repository.Conn(ctx, r.db).QueryRowxContext(ctx,
		`INSERT INTO studio.activities (id, name) VALUES ($1, $2) RETURNING created_at`,
		a.ID, a.Name,
	).Scan(&a.CreatedAt)
	return repository.MapError(err)
}

func (r *activityRepository) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	var a models.Activity
	err := repository.Conn(ctx, r.db).GetContext(ctx, &a,
		`SELECT id, name, created_at FROM studio.activities WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *activityRepository) ListActivities(ctx context.Context) ([]models.Activity, error) {
	activities := []models.Activity{}
	err := repository.Conn(ctx, r.db).SelectContext(ctx, &activities,
		`SELECT id, name, created_at FROM studio.activities ORDER BY name`)
	return activities, err
}

func (r *activityRepository) UpdateActivity(ctx context.Context, a *models.Activity) error {
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE studio.activities SET name = $2 WHERE id = $1`, a.ID, a.Name)
	if err != nil {
		return repository.MapError(err)
	}
	return repository.ExpectAffected(res.RowsAffected())
}

func (r *activityRepository) DeleteActivity(ctx context.Context, id string) error {
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM studio.activities WHERE id = $1`, id)
	if err != nil {
		return repository.MapError(err)
	}
	return repository.ExpectAffected(res.RowsAffected())
}

func (r *activityRepository) CreateLevel(ctx context.Context, l *models.Level) error {
	err := repository.Conn(ctx, r.db).QueryRowxContext(ctx,
		`INSERT INTO studio.levels (id, name) VALUES ($1, $2) RETURNING created_at`,
		l.ID, l.Name,
	).Scan(&l.CreatedAt)
	return repository.MapError(err)
}

func (r *activityRepository) GetLevel(ctx context.Context, id string) (*models.Level, error) {
	var l models.Level
	err := repository.Conn(ctx, r.db).GetContext(ctx, &l,
		`SELECT id, name, created_at FROM studio.levels WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *activityRepository) ListLevels(ctx context.Context) ([]models.Level, error) {
	levels := []models.Level{}
	err := repository.Conn(ctx, r.db).SelectContext(ctx, &levels,
		`SELECT id, name, created_at FROM studio.levels ORDER BY name`)
	return levels, err
}

func (r *activityRepository) UpdateLevel(ctx context.Context, l *models.Level) error {
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE studio.levels SET name = $2 WHERE id = $1`, l.ID, l.Name)
	if err != nil {
		return repository.MapError(err)
	}
	return repository.ExpectAffected(res.RowsAffected())
}

func (r *activityRepository) DeleteLevel(ctx context.Context, id string) error {
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM studio.levels WHERE id = $1`, id)
	if err != nil {
		return repository.MapError(err)
	}
	return repository.ExpectAffected(res.RowsAffected())
}
