/*
Package store tests.

These tests are smoke tests of the stash queries against an in-memory SQLite
database. Behavior seen through the HTTP API is covered by the server tests.
*/
package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err, "create store")
	require.NoError(t, s.Initialize(), "initialize store")
	t.Cleanup(func() { s.Close() })
	return s
}

func stash(t *testing.T, s *SQLiteStore, repoKey string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, s.AddStashEntry(&StashEntry{RepoKey: repoKey, Path: p}))
	}
}

func stashedPaths(t *testing.T, s *SQLiteStore) []string {
	t.Helper()
	entries, err := s.ListStash()
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, e.RepoKey+"/"+e.Path)
	}
	return out
}

func TestAddStashEntry(t *testing.T) {
	s := newTestStore(t)

	entry := &StashEntry{RepoKey: "npm-local", Path: "/lodash/lodash-1.0.tgz"}
	require.NoError(t, s.AddStashEntry(entry))
	assert.NotEmpty(t, entry.ID, "id is generated")
	assert.Equal(t, "lodash/lodash-1.0.tgz", entry.Path, "slashes are trimmed")

	err := s.AddStashEntry(&StashEntry{RepoKey: "npm-local", Path: "lodash/lodash-1.0.tgz"})
	assert.ErrorIs(t, err, ErrStashEntryExists)
}

func TestAddStashEntries_SkipsDuplicates(t *testing.T) {
	s := newTestStore(t)
	stash(t, s, "npm-local", "a.tgz")

	added, err := s.AddStashEntries([]StashEntry{
		{RepoKey: "npm-local", Path: "a.tgz"},
		{RepoKey: "npm-local", Path: "b.tgz"},
		{RepoKey: "maven-remote", Path: "a.tgz"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"maven-remote/a.tgz", "npm-local/a.tgz", "npm-local/b.tgz"}, stashedPaths(t, s))
}

func TestDeleteStashUnder(t *testing.T) {
	s := newTestStore(t)
	stash(t, s, "npm-local", "lodash/1.0.tgz", "lodash/2.0.tgz", "lodash-es/1.0.tgz")
	stash(t, s, "maven-remote", "lodash/1.0.tgz")

	n, err := s.DeleteStashUnder("npm-local", "lodash")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "sibling with a shared prefix survives")
	assert.Equal(t, []string{"maven-remote/lodash/1.0.tgz", "npm-local/lodash-es/1.0.tgz"}, stashedPaths(t, s))

	n, err = s.DeleteStashUnder("maven-remote", "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"npm-local/lodash-es/1.0.tgz"}, stashedPaths(t, s))
}

func TestRenameStashEntries(t *testing.T) {
	s := newTestStore(t)
	stash(t, s, "npm-local", "lodash/1.0.tgz", "lodash/sub/2.0.tgz", "other.tgz")

	n, err := s.RenameStashEntries("npm-local", "lodash", "npm-release", "libs/lodash")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{
		"npm-local/other.tgz",
		"npm-release/libs/lodash/1.0.tgz",
		"npm-release/libs/lodash/sub/2.0.tgz",
	}, stashedPaths(t, s))
}

func TestClearStash(t *testing.T) {
	s := newTestStore(t)
	stash(t, s, "npm-local", "a.tgz", "b.tgz")

	n, err := s.ClearStash()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, stashedPaths(t, s))
}

func TestServerTokenHash(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.ServerTokenHash()
	require.NoError(t, err)
	assert.Empty(t, hash)

	require.NoError(t, s.SetServerTokenHash("$argon2id$first"))
	require.NoError(t, s.SetServerTokenHash("$argon2id$second"))

	hash, err = s.ServerTokenHash()
	require.NoError(t, err)
	assert.Equal(t, "$argon2id$second", hash)
}
