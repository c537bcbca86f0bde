package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateCatalogTables, downCreateCatalogTables)
}

func upCreateCatalogTables(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS studio.spaces (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			capacity INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS studio.activities (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS studio.levels (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS studio.instructors (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			specialty TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS studio.tariffs (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			price NUMERIC(10, 2) NOT NULL CHECK (price >= 0),
			weekly_limit INTEGER CHECK (weekly_limit IS NULL OR weekly_limit >= 1),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);
	`)
	return err
}

func downCreateCatalogTables(tx *sql.Tx) error {
	_, err := tx.Exec(`
		DROP TABLE IF EXISTS studio.tariffs;
		DROP TABLE IF EXISTS studio.instructors;
		DROP TABLE IF EXISTS studio.levels;
		DROP TABLE IF EXISTS studio.activities;
		DROP TABLE IF EXISTS studio.spaces;
	`)
	return err
}
