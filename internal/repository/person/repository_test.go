package person_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"
	"studio-desk/internal/repository/person"
)

var personColumns = []string{
	"id", "name", "phone", "tariff_id", "level_id", "join_date", "last_payment_date",
	"outstanding_payments", "status", "created_at", "updated_at",
}

func newRepo(t *testing.T) (repository.PersonRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return person.NewPersonRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestPersonRepository_Create(t *testing.T) {
	r, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO studio.people`)).
		WithArgs("p1", "Ana", "555", nil, nil, sqlmock.AnyArg(), nil, 0, models.PersonActive).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	p := &models.Person{ID: "p1", Name: "Ana", Phone: "555", JoinDate: now, Status: models.PersonActive}
	require.NoError(t, r.Create(context.Background(), p))
	require.Equal(t, now, p.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepository_GetByID_LoadsVacations(t *testing.T) {
	r, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM studio.people`)).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(personColumns).
			AddRow("p1", "Ana", "555", nil, nil, now, nil, 2, "active", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM studio.vacation_periods`)).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "person_id", "start_date", "end_date"}).
			AddRow("v1", "p1", now, now.AddDate(0, 0, 7)))

	p, err := r.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Ana", p.Name)
	require.Equal(t, 2, p.OutstandingPayments)
	require.Len(t, p.VacationPeriods, 1)
	require.Equal(t, "v1", p.VacationPeriods[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepository_GetByID_NoRows(t *testing.T) {
	r, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM studio.people`)).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	p, err := r.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, p)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepository_Delete_CascadesInOneTransaction(t *testing.T) {
	r, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM studio.session_people WHERE person_id = $1`)).
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM studio.waitlist_entries WHERE person_id = $1`)).
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM studio.vacation_periods WHERE person_id = $1`)).
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM studio.people WHERE id = $1`)).
		WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, r.Delete(context.Background(), "p1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepository_Delete_MissingRollsBack(t *testing.T) {
	r, mock := newRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM studio.session_people`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM studio.waitlist_entries`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM studio.vacation_periods`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM studio.people`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := r.Delete(context.Background(), "ghost")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepository_RegisterPayment(t *testing.T) {
	r, mock := newRepo(t)
	paid := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`GREATEST(outstanding_payments - 1, 0)`)).
		WithArgs("p1", paid).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.RegisterPayment(context.Background(), "p1", paid))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepository_LockByID_InsideTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	r := person.NewPersonRepository(sqlxDB)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 FOR UPDATE`)).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(personColumns).
			AddRow("p1", "Ana", "555", nil, nil, now, nil, 0, "active", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM studio.vacation_periods`)).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "person_id", "start_date", "end_date"}))
	mock.ExpectCommit()

	err = repository.NewTransactor(sqlxDB).InTx(context.Background(), func(ctx context.Context) error {
		p, err := r.LockByID(ctx, "p1")
		require.NoError(t, err)
		require.Equal(t, "Ana", p.Name)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
