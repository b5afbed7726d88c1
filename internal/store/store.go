// Package store provides SQLite persistence for identified ports and
// recording metadata. Interactive sessions are deliberately not
// persisted: they are an in-memory, process-lifetime resource.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info().Str("path", path).Msg("Store opened")
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS identified_ports (
		arm_name   TEXT PRIMARY KEY,
		port       TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recording_configs (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		robot_type     TEXT NOT NULL,
		robot_port     TEXT NOT NULL,
		robot_id       TEXT NOT NULL,
		cameras        TEXT NOT NULL DEFAULT '[]',
		teleop_type    TEXT,
		teleop_port    TEXT,
		teleop_id      TEXT,
		policy_path    TEXT,
		policy_type    TEXT,
		policy_device  TEXT,
		repo_id        TEXT NOT NULL,
		num_episodes   INTEGER NOT NULL DEFAULT 10,
		single_task    TEXT NOT NULL DEFAULT '',
		fps            INTEGER NOT NULL DEFAULT 30,
		episode_time_s INTEGER NOT NULL DEFAULT 30,
		reset_time_s   INTEGER NOT NULL DEFAULT 10,
		display_data   INTEGER NOT NULL DEFAULT 0,
		play_sounds    INTEGER NOT NULL DEFAULT 0,
		push_to_hub    INTEGER NOT NULL DEFAULT 1,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS datasets (
		id                 TEXT PRIMARY KEY,
		config_id          TEXT NOT NULL REFERENCES recording_configs(id) ON DELETE CASCADE,
		repo_id            TEXT NOT NULL,
		status             TEXT NOT NULL DEFAULT 'created',
		total_episodes     INTEGER NOT NULL DEFAULT 0,
		completed_episodes INTEGER NOT NULL DEFAULT 0,
		single_task        TEXT NOT NULL DEFAULT '',
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS episodes (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		dataset_id   TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
		episode_num  INTEGER NOT NULL,
		status       TEXT NOT NULL DEFAULT 'pending',
		session_id   TEXT,
		started_at   TEXT,
		completed_at TEXT,
		duration_s   REAL,
		created_at   TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_datasets_config ON datasets(config_id);
	CREATE INDEX IF NOT EXISTS idx_episodes_dataset ON episodes(dataset_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
