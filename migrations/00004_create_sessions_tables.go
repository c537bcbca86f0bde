package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateSessionsTables, downCreateSessionsTables)
}

func upCreateSessionsTables(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS studio.sessions (
			id UUID PRIMARY KEY,
			activity_id UUID NOT NULL REFERENCES studio.activities(id),
			instructor_id UUID NOT NULL REFERENCES studio.instructors(id),
			space_id UUID NOT NULL REFERENCES studio.spaces(id),
			day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 1 AND 7),
			start_time TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_day ON studio.sessions(day_of_week, start_time);

		-- fixed roster, ordered by enrolled_at
		CREATE TABLE IF NOT EXISTS studio.session_people (
			session_id UUID NOT NULL REFERENCES studio.sessions(id),
			person_id UUID NOT NULL REFERENCES studio.people(id),
			enrolled_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			PRIMARY KEY (session_id, person_id)
		);
		CREATE INDEX IF NOT EXISTS idx_session_people_person ON studio.session_people(person_id);

		-- person_id is NULL for prospects
		CREATE TABLE IF NOT EXISTS studio.waitlist_entries (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES studio.sessions(id),
			person_id UUID REFERENCES studio.people(id),
			name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
			UNIQUE (session_id, person_id)
		);
	`)
	return err
}

func downCreateSessionsTables(tx *sql.Tx) error {
	_, err := tx.Exec(`
		DROP TABLE IF EXISTS studio.waitlist_entries;
		DROP TABLE IF EXISTS studio.session_people;
		DROP TABLE IF EXISTS studio.sessions;
	`)
	return err
}
