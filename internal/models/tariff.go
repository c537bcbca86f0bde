package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Tariff struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	WeeklyLimit *int            `db:"weekly_limit" json:"weekly_limit,omitempty"` // nil - unlimited
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

type Payment struct {
	ID       string          `db:"id" json:"id"`
	PersonID string          `db:"person_id" json:"person_id"`
	TariffID *string         `db:"tariff_id" json:"tariff_id,omitempty"`
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	PaidAt   time.Time       `db:"paid_at" json:"paid_at"`
	Note     string          `db:"note" json:"note"`
}
