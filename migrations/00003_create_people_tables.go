package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreatePeopleTables, downCreatePeopleTables)
}

func upCreatePeopleTables(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS studio.people (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL UNIQUE,
			tariff_id UUID REFERENCES studio.tariffs(id),
			level_id UUID REFERENCES studio.levels(id),
			join_date DATE NOT NULL DEFAULT CURRENT_DATE,
			last_payment_date DATE,
			outstanding_payments INTEGER NOT NULL DEFAULT 0 CHECK (outstanding_payments >= 0),
			status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS studio.vacation_periods (
			id UUID PRIMARY KEY,
			person_id UUID NOT NULL REFERENCES studio.people(id) ON DELETE CASCADE,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			CHECK (start_date <= end_date)
		);
		CREATE INDEX IF NOT EXISTS idx_vacation_periods_person ON studio.vacation_periods(person_id);

		CREATE TABLE IF NOT EXISTS studio.payments (
			id UUID PRIMARY KEY,
			person_id UUID NOT NULL REFERENCES studio.people(id) ON DELETE CASCADE,
			tariff_id UUID REFERENCES studio.tariffs(id) ON DELETE SET NULL,
			amount NUMERIC(10, 2) NOT NULL CHECK (amount > 0),
			paid_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			note TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_payments_person ON studio.payments(person_id, paid_at DESC);
	`)
	return err
}

func downCreatePeopleTables(tx *sql.Tx) error {
	_, err := tx.Exec(`
		DROP TABLE IF EXISTS studio.payments;
		DROP TABLE IF EXISTS studio.vacation_periods;
		DROP TABLE IF EXISTS studio.people;
	`)
	return err
}
