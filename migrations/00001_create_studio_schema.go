package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateStudioSchema, downCreateStudioSchema)
}

func upCreateStudioSchema(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE SCHEMA IF NOT EXISTS studio;`)
	return err
}

func downCreateStudioSchema(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP SCHEMA IF EXISTS studio CASCADE;`)
	return err
}
