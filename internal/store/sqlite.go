package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AddStashEntry stashes one artifact. The ID is generated when empty.
func (s *SQLiteStore) AddStashEntry(entry *StashEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.Path = strings.Trim(entry.Path, "/")

	_, err := s.db.Exec(
		"INSERT INTO stash (id, repo_key, path, created_at) VALUES (?, ?, ?, ?)",
		entry.ID, entry.RepoKey, entry.Path, entry.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrStashEntryExists
		}
		return fmt.Errorf("insert stash entry: %w", err)
	}
	return nil
}

// AddStashEntries stashes artifacts, skipping those already stashed, and
// returns how many were added.
func (s *SQLiteStore) AddStashEntries(entries []StashEntry) (int, error) {
	added := 0
	for i := range entries {
		err := s.AddStashEntry(&entries[i])
		if errors.Is(err, ErrStashEntryExists) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// ListStash returns every stashed artifact ordered by location.
func (s *SQLiteStore) ListStash() ([]StashEntry, error) {
	rows, err := s.db.Query("SELECT id, repo_key, path, created_at FROM stash ORDER BY repo_key, path")
	if err != nil {
		return nil, fmt.Errorf("list stash: %w", err)
	}
	defer rows.Close()

	var entries []StashEntry
	for rows.Next() {
		var e StashEntry
		if err := rows.Scan(&e.ID, &e.RepoKey, &e.Path, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stash entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteStashUnder removes the entry at path and every entry below it. An
// empty path removes the whole repository.
func (s *SQLiteStore) DeleteStashUnder(repoKey, path string) (int, error) {
	path = strings.Trim(path, "/")

	var res sql.Result
	var err error
	if path == "" {
		res, err = s.db.Exec("DELETE FROM stash WHERE repo_key = ?", repoKey)
	} else {
		res, err = s.db.Exec(
			"DELETE FROM stash WHERE repo_key = ? AND (path = ? OR substr(path, 1, ?) = ?)",
			repoKey, path, len(path)+1, path+"/",
		)
	}
	if err != nil {
		return 0, fmt.Errorf("delete stash entries: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return int(n), nil
}

// RenameStashEntries follows a move: entries at or below the old location
// are rewritten to the new one.
func (s *SQLiteStore) RenameStashEntries(repoKey, path, toRepoKey, toPath string) (int, error) {
	path = strings.Trim(path, "/")
	toPath = strings.Trim(toPath, "/")

	res, err := s.db.Exec(`
		UPDATE OR IGNORE stash
		SET repo_key = ?, path = ? || substr(path, ?)
		WHERE repo_key = ? AND (path = ? OR substr(path, 1, ?) = ?)`,
		toRepoKey, toPath, len(path)+1,
		repoKey, path, len(path)+1, path+"/",
	)
	if err != nil {
		return 0, fmt.Errorf("rename stash entries: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return int(n), nil
}

// ClearStash removes every stashed artifact.
func (s *SQLiteStore) ClearStash() (int, error) {
	res, err := s.db.Exec("DELETE FROM stash")
	if err != nil {
		return 0, fmt.Errorf("clear stash: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return int(n), nil
}
