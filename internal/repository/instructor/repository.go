package instructor

import (
	"context"
	"database/sql"
	"errors"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"

	"github.com/jmoiron/sqlx"
)

type instructorRepository struct {
	db *sqlx.DB
}

func NewInstructorRepository(db *sqlx.DB) repository.InstructorRepository {
	return &instructorRepository{db: db}
}

func (r *instructorRepository) Create(ctx context.Context, i *models.Instructor) error {
	query := `
		INSERT INTO studio.instructors (id, name, phone, specialty)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := repository.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		i.ID, i.Name, i.Phone, i.Specialty,
	).Scan(&i.CreatedAt, &i.UpdatedAt)
	return repository.MapError(err)
}

func (r *instructorRepository) GetByID(ctx context.Context, id string) (*models.Instructor, error) {
	var i models.Instructor
	err := repository.Conn(ctx, r.db).GetContext(ctx, &i, `SELECT * FROM studio.instructors WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

func (r *instructorRepository) List(ctx context.Context) ([]models.Instructor, error) {
	instructors := []models.Instructor{}
	err := repository.Conn(ctx, r.db).SelectContext(ctx, &instructors,
		`SELECT * FROM studio.instructors ORDER BY name`)
	return instructors, err
}

func (r *instructorRepository) Update(ctx context.Context, i *models.Instructor) error {
	query := `
		UPDATE studio.instructors
		SET name = $2, phone = $3, specialty = $4, updated_at = NOW()
		WHERE id = $1
	`
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx, query, i.ID, i.Name, i.Phone, i.Specialty)
	if err != nil {
		return err
	}
	return repository.ExpectAffected(res.RowsAffected())
}

// Delete relies on the sessions FK to refuse instructors still teaching.
func (r *instructorRepository) Delete(ctx context.Context, id string) error {
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM studio.instructors WHERE id = $1`, id)
	if err != nil {
		return repository.MapError(err)
	}
	return repository.ExpectAffected(res.RowsAffected())
}
