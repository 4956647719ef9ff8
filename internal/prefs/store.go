// Package prefs persists the browser preferences: favorites, the
// persistent filter, sort and compact modes. Every read goes to the
// database so writes from another arbor process are always seen.
package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/bantamhq/arbor/internal/tree"
)

const (
	keyFavorites     = "favorites"
	keyFilter        = "filter"
	keyFavoritesOnly = "favorites_only"
	keyPinnedTrash   = "pinned_trash"
	keySortMethod    = "sort_method"
	keyCompact       = "compact"
	keyRepoOrder     = "repo_order"
)

// Snapshot is one consistent read of all preferences.
type Snapshot struct {
	Favorites     []string
	Filter        tree.Filter
	FavoritesOnly bool
	PinnedTrash   bool
	SortMethod    tree.SortMethod
	Compact       bool
	RepoOrder     []tree.RepoType
}

func (s Snapshot) FilterState() tree.FilterState {
	return tree.FilterState{
		Persistent:    s.Filter,
		FavoritesOnly: s.FavoritesOnly && len(s.Favorites) > 0,
		Favorites:     s.Favorites,
		PinnedTrash:   s.PinnedTrash,
	}
}

func (s Snapshot) SortOptions() tree.SortOptions {
	return tree.SortOptions{Method: s.SortMethod, RepoOrder: s.RepoOrder}
}

type storedFilter struct {
	Pkg  []string `json:"pkg"`
	Repo []string `json:"repo"`
}

// Store keeps preferences in a SQLite key/value table.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the preference database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal=WAL")
	if err != nil {
		return nil, fmt.Errorf("open preferences: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS prefs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file the store was opened on.
func (s *Store) Path() string {
	return s.path
}

// Snapshot reads every preference. Missing keys take their defaults.
func (s *Store) Snapshot() (Snapshot, error) {
	rows, err := s.db.Query("SELECT key, value FROM prefs")
	if err != nil {
		return Snapshot{}, fmt.Errorf("query preferences: %w", err)
	}
	defer rows.Close()

	snap := Snapshot{SortMethod: tree.SortByRepoType}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Snapshot{}, fmt.Errorf("scan preference: %w", err)
		}
		if err := decodeInto(&snap, key, []byte(value)); err != nil {
			return Snapshot{}, fmt.Errorf("decode preference %s: %w", key, err)
		}
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate preferences: %w", err)
	}
	return snap, nil
}

func decodeInto(snap *Snapshot, key string, value []byte) error {
	switch key {
	case keyFavorites:
		return json.Unmarshal(value, &snap.Favorites)
	case keyFilter:
		var f storedFilter
		if err := json.Unmarshal(value, &f); err != nil {
			return err
		}
		snap.Filter = tree.Filter{Pkg: f.Pkg, Repo: f.Repo}
	case keyFavoritesOnly:
		return json.Unmarshal(value, &snap.FavoritesOnly)
	case keyPinnedTrash:
		return json.Unmarshal(value, &snap.PinnedTrash)
	case keySortMethod:
		var method string
		if err := json.Unmarshal(value, &method); err != nil {
			return err
		}
		snap.SortMethod = tree.ParseSortMethod(method)
	case keyCompact:
		return json.Unmarshal(value, &snap.Compact)
	case keyRepoOrder:
		return json.Unmarshal(value, &snap.RepoOrder)
	}
	return nil
}

func (s *Store) put(key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode preference %s: %w", key, err)
	}
	query := `
		INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, string(value)); err != nil {
		return fmt.Errorf("store preference %s: %w", key, err)
	}
	return nil
}

func (s *Store) favorites() ([]string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM prefs WHERE key = ?", keyFavorites).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	var favs []string
	if err := json.Unmarshal([]byte(value), &favs); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	return favs, nil
}

// SetFavorite adds or removes a repository from the favorites.
func (s *Store) SetFavorite(repoKey string, favorite bool) error {
	favs, err := s.favorites()
	if err != nil {
		return err
	}
	i := slices.Index(favs, repoKey)
	switch {
	case favorite && i < 0:
		favs = append(favs, repoKey)
	case !favorite && i >= 0:
		favs = slices.Delete(favs, i, i+1)
	default:
		return nil
	}
	return s.put(keyFavorites, favs)
}

// ToggleFavorite flips the favorite state of a repository and returns the
// new state.
func (s *Store) ToggleFavorite(repoKey string) (bool, error) {
	favs, err := s.favorites()
	if err != nil {
		return false, err
	}
	favorite := !slices.Contains(favs, repoKey)
	return favorite, s.SetFavorite(repoKey, favorite)
}

// SetFilter stores the persistent filter.
func (s *Store) SetFilter(f tree.Filter) error {
	return s.put(keyFilter, storedFilter{Pkg: nonNil(f.Pkg), Repo: nonNil(f.Repo)})
}

// ResetFilters clears the persistent filter and the favorites-only toggle.
func (s *Store) ResetFilters() error {
	if err := s.SetFilter(tree.Filter{}); err != nil {
		return err
	}
	return s.SetFavoritesOnly(false)
}

func (s *Store) SetFavoritesOnly(on bool) error {
	return s.put(keyFavoritesOnly, on)
}

func (s *Store) SetPinnedTrash(on bool) error {
	return s.put(keyPinnedTrash, on)
}

func (s *Store) SetSortMethod(m tree.SortMethod) error {
	return s.put(keySortMethod, string(m))
}

func (s *Store) SetCompact(on bool) error {
	return s.put(keyCompact, on)
}

func (s *Store) SetRepoOrder(order []tree.RepoType) error {
	return s.put(keyRepoOrder, nonNil(order))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
