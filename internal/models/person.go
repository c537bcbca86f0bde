package models

import "time"

type PersonStatus string

const (
	PersonActive   PersonStatus = "active"
	PersonInactive PersonStatus = "inactive"
)

// Person - member of the studio
type Person struct {
	ID                  string           `db:"id" json:"id"`
	Name                string           `db:"name" json:"name"`
	Phone               string           `db:"phone" json:"phone"`
	TariffID            *string          `db:"tariff_id" json:"tariff_id,omitempty"`
	LevelID             *string          `db:"level_id" json:"level_id,omitempty"`
	JoinDate            time.Time        `db:"join_date" json:"join_date"`
	LastPaymentDate     *time.Time       `db:"last_payment_date" json:"last_payment_date,omitempty"`
	OutstandingPayments int              `db:"outstanding_payments" json:"outstanding_payments"`
	Status              PersonStatus     `db:"status" json:"status"`
	VacationPeriods     []VacationPeriod `db:"-" json:"vacation_periods"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updated_at"`
}

func (p *Person) IsActive() bool {
	return p.Status == "" || p.Status == PersonActive
}

// VacationPeriod is an inclusive date range owned by a person.
type VacationPeriod struct {
	ID        string    `db:"id" json:"id"`
	PersonID  string    `db:"person_id" json:"-"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
}

// CREATE TABLE studio.vacation_periods (
//     id UUID PRIMARY KEY,
//     person_id UUID REFERENCES studio.people(id) ON DELETE CASCADE,
//     start_date DATE NOT NULL,
//     end_date DATE NOT NULL
// );
