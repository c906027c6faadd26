// Package store persists assistant state in SQLite: device states, the
// base schedule, one-time events, materialized daily schedules, user
// info, notification preferences, and chat history.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store handles all assistant persistence.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		room TEXT NOT NULL,
		device TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'OFF',
		PRIMARY KEY (room, device)
	);

	CREATE TABLE IF NOT EXISTS user_info (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		name TEXT NOT NULL DEFAULT '',
		condition TEXT NOT NULL DEFAULT '',
		current_location TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS schedule_items (
		id TEXT PRIMARY KEY,
		time TEXT NOT NULL,
		activity TEXT NOT NULL,
		action_json TEXT,
		location TEXT NOT NULL DEFAULT ''
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_schedule_items_slot
		ON schedule_items(time, activity);

	CREATE TABLE IF NOT EXISTS one_time_events (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		activity TEXT NOT NULL,
		action_json TEXT,
		location TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_one_time_events_date ON one_time_events(date);

	CREATE TABLE IF NOT EXISTS daily_clones (
		date TEXT PRIMARY KEY,
		schedule_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activity_derivations (
		activity TEXT PRIMARY KEY,
		action_json TEXT,
		location TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS notification_preferences (
		room TEXT NOT NULL,
		device TEXT NOT NULL,
		do_not_notify INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (room, device)
	);

	CREATE TABLE IF NOT EXISTS do_not_remind (
		item TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS chat_history (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chat_history_created_at ON chat_history(created_at);

	CREATE TABLE IF NOT EXISTS conversation_summary (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		summary_text TEXT NOT NULL DEFAULT '',
		key_events_json TEXT NOT NULL DEFAULT '[]',
		last_summarized_turn INTEGER NOT NULL DEFAULT 0
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// NewID generates a new UUIDv7.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		return uuid.New().String()
	}
	return id.String()
}
