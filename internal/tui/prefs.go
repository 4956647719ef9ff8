package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bantamhq/arbor/internal/browser"
	"github.com/bantamhq/arbor/internal/prefs"
	"github.com/bantamhq/arbor/internal/tree"
)

// each runs fn on every started browser and batches the resulting ops.
func (m *Model) each(fn func(b browser.Browser) []browser.Op) tea.Cmd {
	var cmds []tea.Cmd
	for _, p := range m.panes {
		if p.started {
			cmds = append(cmds, m.after(p, fn(p.browser)))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) snapshot() (prefs.Snapshot, bool) {
	snap, err := m.prefs.Snapshot()
	if err != nil {
		m.statusMsg = "Could not read preferences: " + err.Error()
		return prefs.Snapshot{}, false
	}
	return snap, true
}

func (m *Model) prefsFailed(err error) bool {
	if err == nil {
		return false
	}
	m.statusMsg = "Could not save preferences: " + err.Error()
	return true
}

func (m Model) setFilter(text string) (tea.Model, tea.Cmd) {
	f := tree.ParseFilter(text)
	if text != "" && f.IsEmpty() {
		m.statusMsg = "Not a filter: " + text
		return m, nil
	}
	var err error
	if f.IsEmpty() {
		err = m.prefs.ResetFilters()
	} else {
		err = m.prefs.SetFilter(f)
	}
	if m.prefsFailed(err) {
		return m, nil
	}
	cmd := m.each(browser.Browser.RefreshFiltering)
	return m, cmd
}

func (m Model) clearFilter() (tea.Model, tea.Cmd) {
	snap, ok := m.snapshot()
	if !ok || !snap.FilterState().HasPersistent() {
		return m, nil
	}
	if m.prefsFailed(m.prefs.ResetFilters()) {
		return m, nil
	}
	m.statusMsg = "Filter cleared"
	cmd := m.each(browser.Browser.RefreshFiltering)
	return m, cmd
}

func (m Model) toggleCompact() (tea.Model, tea.Cmd) {
	snap, ok := m.snapshot()
	if !ok {
		return m, nil
	}
	on := !snap.Compact
	if m.prefsFailed(m.prefs.SetCompact(on)) {
		return m, nil
	}
	cmd := m.each(func(b browser.Browser) []browser.Op { return b.ToggleCompact(on) })
	return m, cmd
}

func (m Model) toggleFavorite() (tea.Model, tea.Cmd) {
	n := m.actionTarget()
	if n == nil {
		return m, nil
	}
	repoKey := n.RepoKey()
	on, err := m.prefs.ToggleFavorite(repoKey)
	if m.prefsFailed(err) {
		return m, nil
	}
	if on {
		m.statusMsg = repoKey + " added to favorites"
	} else {
		m.statusMsg = repoKey + " removed from favorites"
	}
	cmd := m.each(func(b browser.Browser) []browser.Op {
		return b.Handle(browser.Event{Kind: browser.FavoriteChanged})
	})
	return m, cmd
}

func (m Model) toggleFavoritesOnly() (tea.Model, tea.Cmd) {
	snap, ok := m.snapshot()
	if !ok {
		return m, nil
	}
	if !snap.FavoritesOnly && len(snap.Favorites) == 0 {
		m.statusMsg = "No favorites yet"
		return m, nil
	}
	if m.prefsFailed(m.prefs.SetFavoritesOnly(!snap.FavoritesOnly)) {
		return m, nil
	}
	cmd := m.each(browser.Browser.RefreshFiltering)
	return m, cmd
}

func (m Model) togglePinnedTrash() (tea.Model, tea.Cmd) {
	snap, ok := m.snapshot()
	if !ok {
		return m, nil
	}
	if m.prefsFailed(m.prefs.SetPinnedTrash(!snap.PinnedTrash)) {
		return m, nil
	}
	cmd := m.each(browser.Browser.RefreshFiltering)
	return m, cmd
}

func (m Model) setSortMethod(method tree.SortMethod) (tea.Model, tea.Cmd) {
	if m.prefsFailed(m.prefs.SetSortMethod(method)) {
		return m, nil
	}
	cmd := m.each(browser.Browser.RefreshSorting)
	return m, cmd
}

// handlePrefsChanged brings both browsers in line with preferences written
// elsewhere, then waits for the next change.
func (m Model) handlePrefsChanged() (tea.Model, tea.Cmd) {
	snap, ok := m.snapshot()
	if !ok {
		return m, waitForPrefs(m.changes)
	}
	cmd := m.each(func(b browser.Browser) []browser.Op {
		ops := b.Handle(browser.Event{Kind: browser.FavoriteChanged})
		ops = append(ops, b.RefreshFiltering()...)
		ops = append(ops, b.RefreshSorting()...)
		return append(ops, b.ToggleCompact(snap.Compact)...)
	})
	return m, tea.Batch(cmd, waitForPrefs(m.changes))
}
