package store

import (
	"time"
)

// StashEntry is one artifact kept in the stash of search results.
type StashEntry struct {
	ID        string
	RepoKey   string
	Path      string
	CreatedAt time.Time
}

// Store defines the database interface of the listing server.
type Store interface {
	Initialize() error

	// Stash operations
	AddStashEntry(entry *StashEntry) error
	AddStashEntries(entries []StashEntry) (int, error)
	ListStash() ([]StashEntry, error)
	DeleteStashUnder(repoKey, path string) (int, error)
	RenameStashEntries(repoKey, path, toRepoKey, toPath string) (int, error)
	ClearStash() (int, error)

	// Server token
	ServerTokenHash() (string, error)
	SetServerTokenHash(hash string) error

	Close() error
}
