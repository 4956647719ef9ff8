package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize creates the database schema.
func (s *SQLiteStore) Initialize() error {
	if err := s.createSchema(); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
	-- Artifacts collected by searches, shown by the stash browser
	CREATE TABLE IF NOT EXISTS stash (
		id TEXT PRIMARY KEY,
		repo_key TEXT NOT NULL,
		path TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,

		UNIQUE(repo_key, path)
	);

	CREATE INDEX IF NOT EXISTS idx_stash_repo_path ON stash(repo_key, path);

	-- Server-wide settings
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

const serverTokenKey = "server_token_hash"

// ServerTokenHash returns the stored hash of the server token, or "" when
// none has been set.
func (s *SQLiteStore) ServerTokenHash() (string, error) {
	var hash string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", serverTokenKey).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get server token: %w", err)
	}
	return hash, nil
}

// SetServerTokenHash replaces the stored server token hash.
func (s *SQLiteStore) SetServerTokenHash(hash string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, serverTokenKey, hash)
	if err != nil {
		return fmt.Errorf("set server token: %w", err)
	}
	return nil
}
