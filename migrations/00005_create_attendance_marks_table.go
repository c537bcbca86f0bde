package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateAttendanceMarksTable, downCreateAttendanceMarksTable)
}

// No foreign keys: marks outlive the people and sessions they point to.
func upCreateAttendanceMarksTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS studio.attendance_marks (
			session_id UUID NOT NULL,
			date_key TEXT NOT NULL,
			person_id UUID NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('present', 'absent', 'justified', 'one_time')),
			recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			PRIMARY KEY (session_id, date_key, person_id)
		);
		CREATE INDEX IF NOT EXISTS idx_attendance_marks_date ON studio.attendance_marks(date_key);
		CREATE INDEX IF NOT EXISTS idx_attendance_marks_person ON studio.attendance_marks(person_id);
	`)
	return err
}

func downCreateAttendanceMarksTable(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS studio.attendance_marks;`)
	return err
}
