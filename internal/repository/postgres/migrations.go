package postgres

import (
	"context"
	"fmt"
)

// Schema statements, applied in order on startup. Deleting a timetable
// cascades to its stop entries, deleting a train cascades to its
// timetables.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS train (
		id BIGSERIAL PRIMARY KEY,
		mode TEXT NOT NULL,
		train_no TEXT NOT NULL,
		train_type TEXT NOT NULL DEFAULT '',
		UNIQUE (mode, train_no)
	)`,
	`CREATE TABLE IF NOT EXISTS train_timetable (
		id BIGSERIAL PRIMARY KEY,
		train_id BIGINT NOT NULL REFERENCES train(id) ON DELETE CASCADE,
		date DATE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_train_timetable_date ON train_timetable (date)`,
	`CREATE TABLE IF NOT EXISTS stop_entry (
		id BIGSERIAL PRIMARY KEY,
		timetable_id BIGINT NOT NULL REFERENCES train_timetable(id) ON DELETE CASCADE,
		station_name TEXT NOT NULL,
		arrival_time TIMESTAMPTZ NOT NULL,
		departure_time TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stop_entry_timetable ON stop_entry (timetable_id)`,
	`CREATE INDEX IF NOT EXISTS idx_stop_entry_station ON stop_entry (station_name, departure_time)`,
	`CREATE TABLE IF NOT EXISTS build_status (
		id BIGSERIAL PRIMARY KEY,
		mode TEXT NOT NULL,
		assigned_date DATE NOT NULL,
		update_date DATE NOT NULL,
		status INT NOT NULL DEFAULT 0,
		UNIQUE (mode, assigned_date)
	)`,
	`CREATE TABLE IF NOT EXISTS question_state (
		id BIGSERIAL PRIMARY KEY,
		mode TEXT NOT NULL,
		user_id TEXT NOT NULL,
		group_id TEXT,
		departure_station TEXT NOT NULL DEFAULT '',
		destination_station TEXT NOT NULL DEFAULT '',
		departure_time TIMESTAMPTZ,
		expired BOOLEAN NOT NULL DEFAULT FALSE,
		update_time TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_question_state_lookup
		ON question_state (mode, user_id, group_id) WHERE NOT expired`,
	`CREATE TABLE IF NOT EXISTS user_activity (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		following BOOLEAN NOT NULL DEFAULT TRUE,
		follow_time TIMESTAMPTZ NOT NULL,
		unfollow_time TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS group_activity (
		id BIGSERIAL PRIMARY KEY,
		group_id TEXT NOT NULL,
		joining BOOLEAN NOT NULL DEFAULT TRUE,
		join_time TIMESTAMPTZ NOT NULL,
		leave_time TIMESTAMPTZ
	)`,
}

// Migrate creates the schema when missing. Safe to run on every startup.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	db.logger.Info("Database schema up to date")
	return nil
}
