package payment

import (
	"context"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"

	"github.com/jmoiron/sqlx"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO studio.payments (id, person_id, tariff_id, amount, paid_at, note)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := repository.Conn(ctx, r.db).ExecContext(ctx, query,
		p.ID, p.PersonID, p.TariffID, p.Amount, p.PaidAt, p.Note,
	)
	return repository.MapError(err)
}

func (r *paymentRepository) ListByPerson(ctx context.Context, personID string) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := repository.Conn(ctx, r.db).SelectContext(ctx, &payments, `
		SELECT id, person_id, tariff_id, amount, paid_at, note
		FROM studio.payments
		WHERE person_id = $1
		ORDER BY paid_at DESC
	`, personID)
	return payments, err
}
