package payment_service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"studio-desk/internal/models"
	"studio-desk/internal/repository"
	"studio-desk/internal/service"

	"github.com/google/uuid"
)

type paymentService struct {
	paymentRepo repository.PaymentRepository
	personRepo  repository.PersonRepository
	tariffRepo  repository.TariffRepository
	tx          repository.Transactor
	now         func() time.Time
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	personRepo repository.PersonRepository,
	tariffRepo repository.TariffRepository,
	tx repository.Transactor,
) service.PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		personRepo:  personRepo,
		tariffRepo:  tariffRepo,
		tx:          tx,
		now:         time.Now,
	}
}

// RecordPayment сохраняет оплату и списывает один долг человека
func (s *paymentService) RecordPayment(ctx context.Context, personID string, in service.PaymentInput) (*models.Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, service.Invalid("amount", "must be positive")
	}

	paidAt := s.now()
	if in.PaidAt != nil {
		paidAt = *in.PaidAt
	}

	payment := &models.Payment{
		ID:       uuid.NewString(),
		PersonID: personID,
		TariffID: in.TariffID,
		Amount:   in.Amount,
		PaidAt:   paidAt,
		Note:     strings.TrimSpace(in.Note),
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		person, err := s.personRepo.GetByID(ctx, personID)
		if err != nil {
			return err
		}
		if person == nil {
			return fmt.Errorf("person %s: %w", personID, repository.ErrNotFound)
		}

		if payment.TariffID == nil {
			payment.TariffID = person.TariffID
		} else {
			tariff, err := s.tariffRepo.GetByID(ctx, *payment.TariffID)
			if err != nil {
				return err
			}
			if tariff == nil {
				return service.Invalid("tariff_id", "unknown tariff %s", *payment.TariffID)
			}
		}

		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return s.personRepo.RegisterPayment(ctx, personID, paidAt)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *paymentService) History(ctx context.Context, personID string) ([]models.Payment, error) {
	person, err := s.personRepo.GetByID(ctx, personID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, fmt.Errorf("person %s: %w", personID, repository.ErrNotFound)
	}
	return s.paymentRepo.ListByPerson(ctx, personID)
}
