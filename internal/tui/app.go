// Package tui is the terminal front end: the repository tree and the stash
// browsers driven by Bubble Tea.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bantamhq/arbor/internal/browser"
	"github.com/bantamhq/arbor/internal/client"
	"github.com/bantamhq/arbor/internal/tree"
)

// Actions are the server operations the browsers trigger.
type Actions interface {
	browser.StashSource
	Delete(ctx context.Context, repo, path string) error
	Move(ctx context.Context, repo, path, toRepo, toFolder string) (string, error)
	Copy(ctx context.Context, repo, path, toRepo, toFolder string) (string, error)
	SearchIntoStash(ctx context.Context, pattern string) (*client.SearchResult, error)
	DiscardStash(ctx context.Context) error
	DiscardFromStash(ctx context.Context, repo, path string) error
}

// Prefs is the preference store as the UI writes it.
type Prefs interface {
	browser.Preferences
	ToggleFavorite(repoKey string) (bool, error)
	SetFavoritesOnly(on bool) error
	SetPinnedTrash(on bool) error
	SetSortMethod(m tree.SortMethod) error
	SetCompact(on bool) error
}

type Options struct {
	Actions Actions
	Lister  tree.Lister
	Prefs   Prefs
	// Changes fires when the preference database is written.
	Changes <-chan struct{}
	Server  string
	// Stash opens the stash browser instead of the tree.
	Stash bool
	// Path is the "repoKey/path" location the tree opens at.
	Path   string
	Settle time.Duration
}

type modal int

const (
	modalNone modal = iota
	modalHelp
	modalDelete
	modalMove
	modalCopy
	modalFilter
	modalStashSearch
	modalDiscardAll
	modalSort
)

type paneKind int

const (
	paneTree paneKind = iota
	paneStash
)

func (k paneKind) String() string {
	if k == paneStash {
		return "STASH"
	}
	return "TREE"
}

// signals records what a browser reported through its Listener until the
// model gets to it.
type signals struct {
	selected *tree.Node
	changed  bool
	running  bool
	warnings []string
	exit     *string
}

func (s *signals) SelectionChanged(n *tree.Node) {
	s.selected = n
	s.changed = true
}

func (s *signals) SearchRunning(running bool) { s.running = running }
func (s *signals) Warn(msg string)            { s.warnings = append(s.warnings, msg) }

func (s *signals) ExitStash(path string) {
	s.exit = &path
}

type pane struct {
	kind    paneKind
	browser browser.Browser
	nav     *browser.History
	signals *signals
	started bool

	offset     int
	selectedID string
	meta       *tree.Metadata
	err        error
}

type Model struct {
	ctx     context.Context
	actions Actions
	prefs   Prefs
	changes <-chan struct{}
	server  string

	simple  *browser.Simple
	stash   *browser.Stash
	panes   [2]*pane
	current paneKind

	searching bool
	search    textinput.Model

	modal      modal
	dialog     DialogModel
	sortPicker SortPickerModel
	target     *tree.Node

	statusMsg string

	spinner spinner.Model
	help    help.Model
	keys    KeyMap
	width   int
	height  int
}

func NewModel(ctx context.Context, opts Options) Model {
	t := tree.New(opts.Lister)

	treePane := &pane{kind: paneTree, nav: browser.NewHistory(opts.Path), signals: &signals{}}
	stashPane := &pane{kind: paneStash, nav: browser.NewHistory(""), signals: &signals{}}

	simple := browser.NewSimple(browser.Config{
		Tree:     t,
		Prefs:    opts.Prefs,
		Nav:      treePane.nav,
		Listener: treePane.signals,
		Settle:   opts.Settle,
	})
	stash := browser.NewStash(browser.Config{
		Tree:     t,
		Prefs:    opts.Prefs,
		Nav:      stashPane.nav,
		Listener: stashPane.signals,
		Settle:   opts.Settle,
	}, opts.Actions)
	treePane.browser = simple
	stashPane.browser = stash

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Prompt = "/"
	ti.CharLimit = inputMaxLength

	current := paneTree
	if opts.Stash {
		current = paneStash
	}

	return Model{
		ctx:     ctx,
		actions: opts.Actions,
		prefs:   opts.Prefs,
		changes: opts.Changes,
		server:  opts.Server,
		simple:  simple,
		stash:   stash,
		panes:   [2]*pane{treePane, stashPane},
		current: current,
		search:  ti,
		spinner: s,
		help:    help.New(),
		keys:    DefaultKeyMap,
	}
}

func (m Model) Init() tea.Cmd {
	p := m.pane()
	p.started = true
	return tea.Batch(m.spinner.Tick, m.run(p.browser, p.browser.Init()), waitForPrefs(m.changes))
}

func (m Model) pane() *pane {
	return m.panes[m.current]
}

func (m Model) active() browser.Browser {
	return m.pane().browser
}

func (m Model) paneOf(b browser.Browser) *pane {
	for _, p := range m.panes {
		if p.browser == b {
			return p
		}
	}
	return nil
}

// Run starts the UI and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(
		NewModel(ctx, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
