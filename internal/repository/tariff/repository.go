package tariff

import (
	"context"
	"database/sql"
	"errors"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"

	"github.com/jmoiron/sqlx"
)

type tariffRepository struct {
	db *sqlx.DB
}

func NewTariffRepository(db *sqlx.DB) repository.TariffRepository {
	return &tariffRepository{db: db}
}

func (r *tariffRepository) Create(ctx context.Context, t *models.Tariff) error {
	query := `
		INSERT INTO studio.tariffs (id, name, price, weekly_limit)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := repository.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		t.ID, t.Name, t.Price, t.WeeklyLimit,
	).Scan(&t.CreatedAt)
	return repository.MapError(err)
}

func (r *tariffRepository) GetByID(ctx context.Context, id string) (*models.Tariff, error) {
	var t models.Tariff
	err := repository.Conn(ctx, r.db).GetContext(ctx, &t,
		`SELECT id, name, price, weekly_limit, created_at FROM studio.tariffs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *tariffRepository) List(ctx context.Context) ([]models.Tariff, error) {
	tariffs := []models.Tariff{}
	err := repository.Conn(ctx, r.db).SelectContext(ctx, &tariffs,
		`SELECT id, name, price, weekly_limit, created_at FROM studio.tariffs ORDER BY price, name`)
	return tariffs, err
}

func (r *tariffRepository) Update(ctx context.Context, t *models.Tariff) error {
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE studio.tariffs SET name = $2, price = $3, weekly_limit = $4 WHERE id = $1`,
		t.ID, t.Name, t.Price, t.WeeklyLimit,
	)
	if err != nil {
		return repository.MapError(err)
	}
	return repository.ExpectAffected(res.RowsAffected())
}

func (r *tariffRepository) Delete(ctx context.Context, id string) error {
	return repository.WithTx(ctx, r.db, func(ctx context.Context, q repository.Querier) error {
		var inUse bool
		err := q.GetContext(ctx, &inUse,
			`SELECT EXISTS (SELECT 1 FROM studio.people WHERE tariff_id = $1)`, id)
		if err != nil {
			return err
		}
		if inUse {
			return repository.ErrInUse
		}

		res, err := q.ExecContext(ctx, `DELETE FROM studio.tariffs WHERE id = $1`, id)
		if err != nil {
			return repository.MapError(err)
		}
		return repository.ExpectAffected(res.RowsAffected())
	})
}
