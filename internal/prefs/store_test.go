package prefs

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bantamhq/arbor/internal/tree"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err, "open store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Defaults(t *testing.T) {
	s := newTestStore(t)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, tree.SortByRepoType, snap.SortMethod)
	assert.Empty(t, snap.Favorites)
	assert.True(t, snap.Filter.IsEmpty())
	assert.False(t, snap.FilterState().HasPersistent())
}

func TestStore_Favorites(t *testing.T) {
	s := newTestStore(t)

	on, err := s.ToggleFavorite("libs-release")
	require.NoError(t, err)
	assert.True(t, on)
	require.NoError(t, s.SetFavorite("npm-remote", true))
	require.NoError(t, s.SetFavorite("npm-remote", true))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"libs-release", "npm-remote"}, snap.Favorites)

	on, err = s.ToggleFavorite("libs-release")
	require.NoError(t, err)
	assert.False(t, on)

	snap, err = s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []string{"npm-remote"}, snap.Favorites)
}

func TestStore_Filters(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetFilter(tree.ParseFilter("pkg:npm;repo:local")))
	require.NoError(t, s.SetFavoritesOnly(true))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "pkg:npm;repo:local", snap.Filter.String())
	assert.True(t, snap.FavoritesOnly)
	assert.False(t, snap.FilterState().FavoritesOnly, "favorites-only needs favorites")

	require.NoError(t, s.ResetFilters())
	snap, err = s.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.Filter.IsEmpty())
	assert.False(t, snap.FavoritesOnly)
}

func TestStore_ModesAndOrder(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetSortMethod(tree.SortByPackageType))
	require.NoError(t, s.SetCompact(true))
	require.NoError(t, s.SetPinnedTrash(true))
	require.NoError(t, s.SetRepoOrder([]tree.RepoType{tree.RepoLocal, tree.RepoRemote}))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, tree.SortOptions{Method: tree.SortByPackageType, RepoOrder: []tree.RepoType{tree.RepoLocal, tree.RepoRemote}}, snap.SortOptions())
	assert.True(t, snap.Compact)
	assert.True(t, snap.PinnedTrash)
}

func TestStore_ReadsOtherWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	a, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	b, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	_, err = a.Snapshot()
	require.NoError(t, err)
	require.NoError(t, b.SetFilter(tree.ParseFilter("repo:remote")))

	snap, err := a.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "repo:remote", snap.Filter.String())
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	for range 5 {
		d.Trigger(func() { calls.Add(1) })
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	d.Trigger(func() { calls.Add(1) })
	d.Cancel()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	assert.Equal(t, DefaultDebounceDuration, NewDebouncer(0).Duration())
}

func TestWatcher_SeesWrites(t *testing.T) {
	s := newTestStore(t)
	w, err := s.Watch(WithDebounceDuration(20 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	require.NoError(t, s.SetCompact(true))

	select {
	case <-w.Changed():
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification")
	}
	assert.ErrorIs(t, w.Start(), ErrAlreadyStarted)
}
