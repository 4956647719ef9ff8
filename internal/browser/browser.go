// Package browser holds the controllers behind the tree views: the
// hierarchical repository browser and the stashed search results browser.
//
// A controller never blocks. Every transition that needs the listing
// service is split in two: an Op that does the I/O off the event loop and
// returns a Result, and Apply, which folds the Result back into the view on
// the event loop and may ask for further Ops.
package browser

import (
	"context"
	"time"

	"github.com/bantamhq/arbor/internal/prefs"
	"github.com/bantamhq/arbor/internal/tree"
)

type State int

const (
	Unloaded State = iota
	LoadingRoots
	RootsLoaded
	LoadingChildren
	ChildrenLoaded
)

func (s State) String() string {
	switch s {
	case LoadingRoots:
		return "loading roots"
	case RootsLoaded:
		return "roots loaded"
	case LoadingChildren:
		return "loading children"
	case ChildrenLoaded:
		return "children loaded"
	}
	return "unloaded"
}

func (s State) Loading() bool {
	return s == LoadingRoots || s == LoadingChildren
}

// Op is the asynchronous half of a transition.
type Op func(ctx context.Context) Result

// Result carries the outcome of an Op back to Apply.
type Result struct {
	kind     resultKind
	seq      uint64
	token    uint64
	task     uint64
	node     *tree.Node
	children []*tree.Node
	stash    []tree.Info
	selectIt bool
	path     string
	err      error
}

type resultKind int

const (
	resultRoots resultKind = iota + 1
	resultChildren
	resultResolved
	resultSelection
	resultTimer
	resultSearch
	resultStash
)

// Err is the failure carried by the result, if any.
func (r Result) Err() error {
	return r.err
}

type SearchKey int

const (
	KeyDown SearchKey = iota
	KeyUp
	KeyEnter
	KeyEsc
)

type EventKind int

const (
	Deleted EventKind = iota
	DeletedContent
	Moved
	Copied
	Deployed
	Refresh
	RefreshPage
	InvalidateRoots
	FavoriteChanged
	DiscardFromStash
	DiscardStash
	RefreshStash
	ExitStash
)

// Event is a completion signal from an action performed elsewhere.
type Event struct {
	Kind EventKind
	Node *tree.Node
	// Target is the destination folder of a move, copy or deploy, as
	// "repoKey/path".
	Target string
}

// Listener receives the signals a browser exposes to the application.
type Listener interface {
	SelectionChanged(n *tree.Node)
	SearchRunning(running bool)
	Warn(msg string)
	ExitStash(path string)
}

// Navigator is the location the browser keeps in step with its selection.
type Navigator interface {
	Path() string
	Push(path string)
	Replace(path string)
}

// Preferences is read fresh for every query and never cached.
type Preferences interface {
	Snapshot() (prefs.Snapshot, error)
	SetFilter(f tree.Filter) error
	ResetFilters() error
}

// StashSource lists the stashed search results.
type StashSource interface {
	Stash(ctx context.Context) ([]tree.Info, error)
}

// Browser is the contract both controllers implement.
type Browser interface {
	Init() []Op
	Apply(r Result) ([]Op, error)

	Rows() []*tree.Row
	VisibleRows() []*tree.Row
	Selected() *tree.Node
	SelectedID() string
	State() State
	FilterHasNoMatches() bool

	Select(id string) []Op
	Open() []Op
	Up() []Op
	Navigate(path string) []Op
	Handle(e Event) []Op
	ToggleCompact(on bool) []Op
	RefreshFiltering() []Op
	RefreshSorting() []Op

	SearchChange(text string) []Op
	SearchStep(task uint64) bool
	SearchKey(key SearchKey) []Op
	SearchCancel()
	SearchText() string
	SearchCurrent() string
	OnScroll(first, last int)

	Close()
}

// DefaultSettle is how long the browser waits after a delete, move or copy
// before reloading, so the listing service reflects the change.
const DefaultSettle = 500 * time.Millisecond

// Config is fixed for the lifetime of one browser.
type Config struct {
	Tree     *tree.Tree
	Prefs    Preferences
	Nav      Navigator
	Listener Listener
	// Settle overrides DefaultSettle.
	Settle time.Duration
}

func (c Config) settle() time.Duration {
	if c.Settle > 0 {
		return c.Settle
	}
	return DefaultSettle
}
