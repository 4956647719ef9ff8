package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bantamhq/arbor/internal/browser"
	"github.com/bantamhq/arbor/internal/debug"
	"github.com/bantamhq/arbor/internal/tree"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = max(m.width-lenSearchChrome, 1)
		cmd := m.settle()
		return m, cmd

	case resultMsg:
		return m.handleResult(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case DialogSubmitMsg:
		return m.handleDialogSubmit(msg)

	case DialogCancelMsg, SortPickerCloseMsg:
		m.modal = modalNone
		m.target = nil
		return m, nil

	case SortPickerSelectMsg:
		m.modal = modalNone
		return m.setSortMethod(msg.Method)

	case actionDoneMsg:
		return m.handleActionDone(msg)

	case stashSearchedMsg:
		return m.handleStashSearched(msg)

	case ActionErrorMsg:
		m.statusMsg = fmt.Sprintf("Could not %s: %v", msg.Operation, msg.Err)
		return m, nil

	case prefsChangedMsg:
		return m.handlePrefsChanged()
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal == modalHelp {
		return m.handleHelpKey(msg)
	}
	if m.modal != modalNone {
		return m.handleModalKey(msg)
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}
	return m.handleKey(msg)
}

func (m Model) handleHelpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "?":
		m.modal = modalNone
	}
	return m, nil
}

func (m Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.modal == modalSort {
		m.sortPicker, cmd = m.sortPicker.Update(msg)
		return m, cmd
	}
	m.dialog, cmd = m.dialog.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b := m.active()
	switch msg.String() {
	case "esc":
		m.endSearch()
		cmd := m.after(m.pane(), b.SearchKey(browser.KeyEsc))
		return m, cmd
	case "enter":
		m.endSearch()
		cmd := m.after(m.pane(), b.SearchKey(browser.KeyEnter))
		return m, cmd
	case "up", "ctrl+p":
		cmd := m.after(m.pane(), b.SearchKey(browser.KeyUp))
		return m, cmd
	case "down", "ctrl+n":
		cmd := m.after(m.pane(), b.SearchKey(browser.KeyDown))
		return m, cmd
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}
	searchCmd := m.after(m.pane(), b.SearchChange(m.search.Value()))
	return m, tea.Batch(cmd, searchCmd)
}

func (m *Model) endSearch() {
	m.searching = false
	m.search.Blur()
	m.search.SetValue("")
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.pane()
	b := p.browser

	switch {
	case key.Matches(msg, m.keys.Quit):
		for _, p := range m.panes {
			p.browser.Close()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.modal = modalHelp
		return m, nil

	case key.Matches(msg, m.keys.Up):
		cmd := m.moveCursor(-1)
		return m, cmd

	case key.Matches(msg, m.keys.Down):
		cmd := m.moveCursor(1)
		return m, cmd

	case key.Matches(msg, m.keys.PageUp):
		cmd := m.moveCursor(-m.listHeight())
		return m, cmd

	case key.Matches(msg, m.keys.PageDown):
		cmd := m.moveCursor(m.listHeight())
		return m, cmd

	case key.Matches(msg, m.keys.Open):
		cmd := m.after(p, b.Open())
		return m, cmd

	case key.Matches(msg, m.keys.Back):
		cmd := m.after(p, b.Up())
		return m, cmd

	case key.Matches(msg, m.keys.HistoryBack):
		if path, ok := p.nav.Back(); ok {
			cmd := m.after(p, b.Navigate(path))
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.HistoryForward):
		if path, ok := p.nav.Forward(); ok {
			cmd := m.after(p, b.Navigate(path))
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.statusMsg = ""
		m.searching = true
		m.search.SetValue("")
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Filter):
		return m.openFilterDialog()

	case key.Matches(msg, m.keys.ClearFilter):
		return m.clearFilter()

	case key.Matches(msg, m.keys.Refresh):
		if m.current == paneStash {
			cmd := m.after(p, b.Handle(browser.Event{Kind: browser.RefreshStash}))
			return m, cmd
		}
		cmd := m.after(p, b.Handle(browser.Event{Kind: browser.Refresh, Node: m.simple.Parent()}))
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		return m.openDeleteDialog()

	case key.Matches(msg, m.keys.Move):
		return m.openTransferDialog(modalMove, "Move")

	case key.Matches(msg, m.keys.Copy):
		return m.openTransferDialog(modalCopy, "Copy")

	case key.Matches(msg, m.keys.Compact):
		return m.toggleCompact()

	case key.Matches(msg, m.keys.Favorite):
		return m.toggleFavorite()

	case key.Matches(msg, m.keys.FavoritesOnly):
		return m.toggleFavoritesOnly()

	case key.Matches(msg, m.keys.PinTrash):
		return m.togglePinnedTrash()

	case key.Matches(msg, m.keys.Sort):
		snap, err := m.prefs.Snapshot()
		if err != nil {
			m.statusMsg = "Could not read preferences: " + err.Error()
			return m, nil
		}
		m.sortPicker = NewSortPickerModel(snap.SortMethod)
		m.modal = modalSort
		return m, nil

	case key.Matches(msg, m.keys.SwitchBrowser):
		return m.switchPane()

	case key.Matches(msg, m.keys.StashSearch):
		m.dialog = NewInputDialog("Search into stash", "Artifacts whose name matches the pattern are stashed.", "*.jar")
		m.modal = modalStashSearch
		return m, m.dialog.Init()
	}

	if m.current != paneStash {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Discard):
		n := b.Selected()
		if n == nil || n.IsSyntheticRoot() {
			return m, nil
		}
		return m, m.discardFromStash(n)

	case key.Matches(msg, m.keys.DiscardAll):
		m.dialog = NewConfirmDialog("Discard stash", fmt.Sprintf("Discard all %d stashed results?", m.stash.Count()))
		m.modal = modalDiscardAll
		return m, nil

	case key.Matches(msg, m.keys.Collapse):
		cmd := m.after(p, m.stash.CollapseToRepo())
		return m, cmd
	}

	return m, nil
}

// moveCursor selects the row delta lines away from the selection. The
// go-up row is skipped; it is reached with Back.
func (m *Model) moveCursor(delta int) tea.Cmd {
	p := m.pane()
	rows := p.browser.VisibleRows()
	if len(rows) == 0 {
		return nil
	}
	i := rowIndex(rows, p.browser.SelectedID())
	step := 1
	if delta < 0 {
		step = -1
	}
	target := max(min(i+delta, len(rows)-1), 0)
	for target >= 0 && target < len(rows) && rows[target].Kind == tree.RowGoUp {
		target += step
	}
	if target < 0 || target >= len(rows) || target == i {
		return nil
	}
	return m.after(p, p.browser.Select(rows[target].ID))
}

// focusID is the row p keeps on screen: the current search match while the
// user is searching in p, the selection otherwise.
func (m Model) focusID(p *pane) string {
	if m.searching && p == m.pane() {
		if id := p.browser.SearchCurrent(); id != "" {
			return id
		}
	}
	return p.browser.SelectedID()
}

func rowIndex(rows []*tree.Row, id string) int {
	for i, r := range rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (m Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	p := m.paneOf(msg.browser)
	if p == nil {
		return m, nil
	}
	ops, err := msg.browser.Apply(msg.result)
	if err != nil {
		m.loadFailed(p, err)
	} else if !p.browser.State().Loading() {
		p.err = nil
	}
	cmd := m.after(p, ops)
	return m, cmd
}

func (m *Model) loadFailed(p *pane, err error) {
	debug.Log("%s load failed: %v", p.kind, err)
	if len(p.browser.Rows()) == 0 {
		p.err = err
		return
	}
	if errors.Is(err, tree.ErrNotFound) {
		m.statusMsg = "No longer exists"
		return
	}
	m.statusMsg = "Could not load: " + err.Error()
}

// after schedules ops for p and folds in whatever the browsers signalled.
func (m *Model) after(p *pane, ops []browser.Op) tea.Cmd {
	return tea.Batch(m.run(p.browser, ops), m.settle())
}

// settle drains the browser signals and keeps each selection on screen.
func (m *Model) settle() tea.Cmd {
	var cmds []tea.Cmd
	for _, p := range m.panes {
		if !p.started {
			continue
		}
		id := p.browser.SelectedID()
		if id != p.selectedID {
			p.selectedID = id
			p.meta = nil
		}
		m.scrollTo(p, rowIndex(p.browser.VisibleRows(), m.focusID(p)))

		s := p.signals
		if s.changed {
			s.changed = false
			if s.selected != nil && s.selected.ID() == p.selectedID {
				p.meta = s.selected.Metadata()
			}
		}
		if len(s.warnings) > 0 {
			m.statusMsg = s.warnings[len(s.warnings)-1]
			s.warnings = nil
		}
		if s.exit != nil {
			path := *s.exit
			s.exit = nil
			cmds = append(cmds, m.exitStash(path))
		}
	}
	return tea.Batch(cmds...)
}

// exitStash switches to the tree showing path.
func (m *Model) exitStash(path string) tea.Cmd {
	m.current = paneTree
	m.endSearch()
	p := m.panes[paneTree]
	if !p.started {
		p.started = true
		if path != "" {
			p.nav.Replace(path)
		}
		return m.after(p, p.browser.Init())
	}
	if path == "" {
		return m.settle()
	}
	return m.after(p, p.browser.Navigate(path))
}

func (m Model) switchPane() (tea.Model, tea.Cmd) {
	if m.searching {
		m.active().SearchCancel()
		m.endSearch()
	}
	m.statusMsg = ""
	if m.current == paneStash {
		cmd := m.after(m.pane(), m.stash.Handle(browser.Event{Kind: browser.ExitStash}))
		return m, cmd
	}

	m.current = paneStash
	p := m.pane()
	if !p.started {
		p.started = true
		cmd := m.after(p, p.browser.Init())
		return m, cmd
	}
	cmd := m.after(p, p.browser.Handle(browser.Event{Kind: browser.RefreshStash}))
	return m, cmd
}

func (m Model) openDeleteDialog() (tea.Model, tea.Cmd) {
	n := m.actionTarget()
	if n == nil {
		return m, nil
	}
	title, message := "Delete", fmt.Sprintf("Move %s to the trash can?", n.FullPath())
	switch {
	case n.IsTrashcan():
		title, message = "Empty trash can", "Permanently delete everything in the trash can?"
	case n.IsInTrashcan():
		title, message = "Delete permanently", fmt.Sprintf("Permanently delete %s?", n.DisplayText())
	case n.IsRepo():
		title, message = "Delete content", fmt.Sprintf("Move the whole content of %s to the trash can?", n.RepoKey())
	}
	m.target = n
	m.dialog = NewConfirmDialog(title, message)
	m.modal = modalDelete
	return m, nil
}

func (m Model) openTransferDialog(mode modal, verb string) (tea.Model, tea.Cmd) {
	n := m.actionTarget()
	if n == nil || n.IsRepo() || n.IsTrashcan() {
		return m, nil
	}
	m.target = n
	m.dialog = NewInputDialog(verb+" "+n.DisplayText(), "Target folder, as repository/path:", "libs-release-local/org/acme")
	if parent := n.Parent(); parent != nil && !parent.IsSyntheticRoot() {
		m.dialog.SetValue(parent.FullPath())
	}
	m.modal = mode
	return m, m.dialog.Init()
}

// actionTarget is the selected node when actions may run on it.
func (m Model) actionTarget() *tree.Node {
	n := m.active().Selected()
	if n == nil || n.IsGoUp() || n.IsSyntheticRoot() {
		return nil
	}
	return n
}

func (m Model) openFilterDialog() (tea.Model, tea.Cmd) {
	snap, err := m.prefs.Snapshot()
	if err != nil {
		m.statusMsg = "Could not read preferences: " + err.Error()
		return m, nil
	}
	m.dialog = NewInputDialog("Filter", "Show only repositories matching, e.g. pkg:npm,docker;repo:local", "pkg:npm")
	m.dialog.SetValue(snap.Filter.String())
	m.modal = modalFilter
	return m, m.dialog.Init()
}

func (m Model) handleDialogSubmit(msg DialogSubmitMsg) (tea.Model, tea.Cmd) {
	mode, n := m.modal, m.target
	m.modal = modalNone
	m.target = nil

	switch mode {
	case modalDelete:
		if n == nil {
			return m, nil
		}
		m.statusMsg = "Deleting " + n.DisplayText() + "..."
		return m, m.deleteNode(m.current, n)

	case modalMove, modalCopy:
		if n == nil || msg.Value == "" {
			return m, nil
		}
		return m, m.transferNode(m.current, n, msg.Value, mode == modalMove)

	case modalFilter:
		return m.setFilter(msg.Value)

	case modalStashSearch:
		if msg.Value == "" {
			return m, nil
		}
		m.statusMsg = "Searching " + msg.Value + "..."
		return m, m.searchIntoStash(msg.Value)

	case modalDiscardAll:
		return m, m.discardStash()
	}
	return m, nil
}

func (m Model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = msg.status
	treePane, stashPane := m.panes[paneTree], m.panes[paneStash]
	var cmds []tea.Cmd

	switch msg.event.Kind {
	case browser.DiscardFromStash, browser.DiscardStash:
		cmds = append(cmds, m.after(stashPane, m.stash.Handle(msg.event)))

	default:
		// The other browser caches the same listings; it drops them first
		// so that a switch triggered by the event below lands on fresh data.
		other := stashPane
		if msg.pane == paneStash {
			other = treePane
		}
		if other.started {
			otherEvent := browser.Event{Kind: browser.InvalidateRoots}
			if other == stashPane && msg.event.Kind == browser.Deleted {
				otherEvent = msg.event
			}
			cmds = append(cmds, m.after(other, other.browser.Handle(otherEvent)))
		}
		p := m.panes[msg.pane]
		cmds = append(cmds, m.after(p, p.browser.Handle(msg.event)))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleStashSearched(msg stashSearchedMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.found == 0:
		m.statusMsg = "Nothing matches " + msg.pattern
		return m, nil
	case msg.added == 0:
		m.statusMsg = fmt.Sprintf("All %d results for %s are already stashed", msg.found, msg.pattern)
	default:
		m.statusMsg = fmt.Sprintf("Stashed %d of %d results for %s", msg.added, msg.found, msg.pattern)
	}

	m.current = paneStash
	p := m.pane()
	if !p.started {
		p.started = true
		cmd := m.after(p, p.browser.Init())
		return m, cmd
	}
	cmd := m.after(p, p.browser.Handle(browser.Event{Kind: browser.RefreshStash}))
	return m, cmd
}
