package space

import (
	"context"
	"database/sql"
	"errors"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"

	"github.com/jmoiron/sqlx"
)

type spaceRepository struct {
	db *sqlx.DB
}

func NewSpaceRepository(db *sqlx.DB) repository.SpaceRepository {
	return &spaceRepository{db: db}
}

func (r *spaceRepository) Create(ctx context.Context, s *models.Space) error {
	query := `
		INSERT INTO studio.spaces (id, name, capacity)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	err := repository.Conn(ctx, r.db).QueryRowxContext(ctx, query, s.ID, s.Name, s.Capacity).Scan(&s.CreatedAt)
	return repository.MapError(err)
}

func (r *spaceRepository) GetByID(ctx context.Context, id string) (*models.Space, error) {
	var s models.Space
	err := repository.Conn(ctx, r.db).GetContext(ctx, &s,
		`SELECT id, name, capacity, created_at FROM studio.spaces WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // зал не найден
		}
		return nil, err
	}
	return &s, nil
}

func (r *spaceRepository) List(ctx context.Context) ([]models.Space, error) {
	spaces := []models.Space{}
	err := repository.Conn(ctx, r.db).SelectContext(ctx, &spaces,
		`SELECT id, name, capacity, created_at FROM studio.spaces ORDER BY name`)
	return spaces, err
}

func (r *spaceRepository) Update(ctx context.Context, s *models.Space) error {
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE studio.spaces SET name = $2, capacity = $3 WHERE id = $1`,
		s.ID, s.Name, s.Capacity,
	)
	if err != nil {
		return repository.MapError(err)
	}
	return repository.ExpectAffected(res.RowsAffected())
}

func (r *spaceRepository) Delete(ctx context.Context, id string) error {
	return repository.WithTx(ctx, r.db, func(ctx context.Context, q repository.Querier) error {
		var inUse bool
		err := q.GetContext(ctx, &inUse,
			`SELECT EXISTS (SELECT 1 FROM studio.sessions WHERE space_id = $1)`, id)
		if err != nil {
			return err
		}
		if inUse {
			return repository.ErrInUse
		}

		res, err := q.ExecContext(ctx, `DELETE FROM studio.spaces WHERE id = $1`, id)
		if err != nil {
			return repository.MapError(err)
		}
		return repository.ExpectAffected(res.RowsAffected())
	})
}
