package person

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"

	"github.com/jmoiron/sqlx"
)

type personRepository struct {
	db *sqlx.DB
}

func NewPersonRepository(db *sqlx.DB) repository.PersonRepository {
	return &personRepository{db: db}
}

const selectPerson = `
	SELECT id, name, phone, tariff_id, level_id, join_date, last_payment_date,
	       outstanding_payments, status, created_at, updated_at
	FROM studio.people
`

func (r *personRepository) Create(ctx context.Context, p *models.Person) error {
	query := `
		INSERT INTO studio.people
		(id, name, phone, tariff_id, level_id, join_date, last_payment_date, outstanding_payments, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := repository.Conn(ctx, r.db).QueryRowxContext(ctx, query,
		p.ID, p.Name, p.Phone, p.TariffID, p.LevelID, p.JoinDate,
		p.LastPaymentDate, p.OutstandingPayments, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return repository.MapError(err)
	}
	return nil
}

func (r *personRepository) GetByID(ctx context.Context, id string) (*models.Person, error) {
	return r.getOne(ctx, selectPerson+` WHERE id = $1`, id)
}

// LockByID must run inside Transactor.InTx.
func (r *personRepository) LockByID(ctx context.Context, id string) (*models.Person, error) {
	return r.getOne(ctx, selectPerson+` WHERE id = $1 FOR UPDATE`, id)
}

func (r *personRepository) GetByPhone(ctx context.Context, phone string) (*models.Person, error) {
	return r.getOne(ctx, selectPerson+` WHERE phone = $1`, phone)
}

func (r *personRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Person, error) {
	q := repository.Conn(ctx, r.db)

	var p models.Person
	if err := q.GetContext(ctx, &p, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	vacations := []models.VacationPeriod{}
	err := q.SelectContext(ctx, &vacations, `
		SELECT id, person_id, start_date, end_date
		FROM studio.vacation_periods
		WHERE person_id = $1
		ORDER BY start_date
	`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load vacations: %w", err)
	}
	p.VacationPeriods = vacations
	return &p, nil
}

func (r *personRepository) List(ctx context.Context) ([]models.Person, error) {
	q := repository.Conn(ctx, r.db)

	var people []models.Person
	if err := q.SelectContext(ctx, &people, selectPerson+` ORDER BY name`); err != nil {
		return nil, err
	}

	var vacations []models.VacationPeriod
	err := q.SelectContext(ctx, &vacations, `
		SELECT id, person_id, start_date, end_date
		FROM studio.vacation_periods
		ORDER BY start_date
	`)
	if err != nil {
		return nil, fmt.Errorf("load vacations: %w", err)
	}

	byPerson := make(map[string][]models.VacationPeriod)
	for _, v := range vacations {
		byPerson[v.PersonID] = append(byPerson[v.PersonID], v)
	}
	for i := range people {
		people[i].VacationPeriods = byPerson[people[i].ID]
		if people[i].VacationPeriods == nil {
			people[i].VacationPeriods = []models.VacationPeriod{}
		}
	}
	return people, nil
}

func (r *personRepository) Update(ctx context.Context, p *models.Person) error {
	query := `
		UPDATE studio.people
		SET name = $2, phone = $3, tariff_id = $4, level_id = $5, join_date = $6,
		    last_payment_date = $7, outstanding_payments = $8, status = $9, updated_at = NOW()
		WHERE id = $1
	`
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx, query,
		p.ID, p.Name, p.Phone, p.TariffID, p.LevelID, p.JoinDate,
		p.LastPaymentDate, p.OutstandingPayments, p.Status,
	)
	if err != nil {
		return repository.MapError(err)
	}
	return repository.ExpectAffected(res.RowsAffected())
}

// Delete cascades over rosters and waitlists in one transaction.
func (r *personRepository) Delete(ctx context.Context, id string) error {
	return repository.WithTx(ctx, r.db, func(ctx context.Context, q repository.Querier) error {
		steps := []string{
			`DELETE FROM studio.session_people WHERE person_id = $1`,
			`DELETE FROM studio.waitlist_entries WHERE person_id = $1`,
			`DELETE FROM studio.vacation_periods WHERE person_id = $1`,
		}
		for _, stmt := range steps {
			if _, err := q.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("cascade delete person %s: %w", id, err)
			}
		}

		res, err := q.ExecContext(ctx, `DELETE FROM studio.people WHERE id = $1`, id)
		if err != nil {
			return err
		}
		return repository.ExpectAffected(res.RowsAffected())
	})
}

func (r *personRepository) AddVacation(ctx context.Context, v *models.VacationPeriod) error {
	query := `
		INSERT INTO studio.vacation_periods (id, person_id, start_date, end_date)
		SELECT $1, $2, $3, $4
		WHERE EXISTS (SELECT 1 FROM studio.people WHERE id = $2)
	`
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx, query, v.ID, v.PersonID, v.StartDate, v.EndDate)
	if err != nil {
		return err
	}
	return repository.ExpectAffected(res.RowsAffected())
}

func (r *personRepository) RemoveVacation(ctx context.Context, personID, vacationID string) error {
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM studio.vacation_periods WHERE id = $1 AND person_id = $2`,
		vacationID, personID,
	)
	if err != nil {
		return err
	}
	return repository.ExpectAffected(res.RowsAffected())
}

func (r *personRepository) RegisterPayment(ctx context.Context, personID string, paidAt time.Time) error {
	query := `
		UPDATE studio.people
		SET last_payment_date = $2,
		    outstanding_payments = GREATEST(outstanding_payments - 1, 0),
		    updated_at = NOW()
		WHERE id = $1
	`
	res, err := repository.Conn(ctx, r.db).ExecContext(ctx, query, personID, paidAt)
	if err != nil {
		return err
	}
	return repository.ExpectAffected(res.RowsAffected())
}
