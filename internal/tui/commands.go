package tui

import (
	"fmt"
	"path"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bantamhq/arbor/internal/browser"
	"github.com/bantamhq/arbor/internal/tree"
)

// run turns browser Ops into commands. Each result is routed back to b.
func (m Model) run(b browser.Browser, ops []browser.Op) tea.Cmd {
	if len(ops) == 0 {
		return nil
	}
	ctx := m.ctx
	cmds := make([]tea.Cmd, len(ops))
	for i, op := range ops {
		cmds[i] = func() tea.Msg {
			return resultMsg{browser: b, result: op(ctx)}
		}
	}
	return tea.Batch(cmds...)
}

func waitForPrefs(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		<-changes
		return prefsChangedMsg{}
	}
}

func (m Model) deleteNode(pane paneKind, n *tree.Node) tea.Cmd {
	return func() tea.Msg {
		if err := m.actions.Delete(m.ctx, n.RepoKey(), n.Path()); err != nil {
			return ActionErrorMsg{Operation: "delete " + n.DisplayText(), Err: err}
		}
		kind := browser.Deleted
		if n.Path() == "" {
			kind = browser.DeletedContent
		}
		return actionDoneMsg{
			event:  browser.Event{Kind: kind, Node: n},
			pane:   pane,
			status: "Deleted " + n.FullPath(),
		}
	}
}

// transferNode moves or copies n into target, given as "repoKey/folder".
func (m Model) transferNode(pane paneKind, n *tree.Node, target string, move bool) tea.Cmd {
	toRepo, toFolder, _ := strings.Cut(strings.Trim(target, "/"), "/")
	return func() tea.Msg {
		op, kind, name, verb := m.actions.Copy, browser.Copied, "copy", "Copied"
		if move {
			op, kind, name, verb = m.actions.Move, browser.Moved, "move", "Moved"
		}
		dest, err := op(m.ctx, n.RepoKey(), n.Path(), toRepo, toFolder)
		if err != nil {
			return ActionErrorMsg{Operation: name + " " + n.DisplayText(), Err: err}
		}
		return actionDoneMsg{
			event:  browser.Event{Kind: kind, Node: n, Target: path.Join(toRepo, toFolder)},
			pane:   pane,
			status: fmt.Sprintf("%s %s to %s", verb, n.DisplayText(), dest),
		}
	}
}

func (m Model) searchIntoStash(pattern string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.actions.SearchIntoStash(m.ctx, pattern)
		if err != nil {
			return ActionErrorMsg{Operation: "search", Err: err}
		}
		return stashSearchedMsg{pattern: pattern, found: res.Found, added: res.Added}
	}
}

func (m Model) discardFromStash(n *tree.Node) tea.Cmd {
	return func() tea.Msg {
		if err := m.actions.DiscardFromStash(m.ctx, n.RepoKey(), n.Path()); err != nil {
			return ActionErrorMsg{Operation: "discard " + n.DisplayText(), Err: err}
		}
		return actionDoneMsg{
			event:  browser.Event{Kind: browser.DiscardFromStash, Node: n},
			pane:   paneStash,
			status: "Discarded " + n.FullPath(),
		}
	}
}

func (m Model) discardStash() tea.Cmd {
	return func() tea.Msg {
		if err := m.actions.DiscardStash(m.ctx); err != nil {
			return ActionErrorMsg{Operation: "discard stash", Err: err}
		}
		return actionDoneMsg{
			event:  browser.Event{Kind: browser.DiscardStash},
			pane:   paneStash,
			status: "Stash discarded",
		}
	}
}
