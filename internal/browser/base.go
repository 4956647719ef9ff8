package browser

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bantamhq/arbor/internal/debug"
	"github.com/bantamhq/arbor/internal/prefs"
	"github.com/bantamhq/arbor/internal/search"
	"github.com/bantamhq/arbor/internal/tree"
)

// base is the state and behaviour shared by both browsers: the rendered
// rows, selection, filtering, incremental search and settle timers.
type base struct {
	cfg    Config
	scope  tree.Scope
	engine *search.Engine
	// self is the embedding browser, for the operations each variant
	// implements its own way.
	self Browser

	state     State
	rows      []*tree.Row
	visible   []*tree.Row
	visIndex  []int
	selected  *tree.Node
	fs        tree.FilterState
	noMatches bool

	// seq identifies the latest view load; older results are dropped.
	seq     uint64
	timer   uint64
	pending func() []Op

	searchText string
	viewFirst  int
	viewLast   int
	closed     bool
}

func (b *base) init(cfg Config, scope tree.Scope, self Browser) {
	b.cfg = cfg
	b.scope = scope
	b.self = self
	b.viewLast = math.MaxInt
	b.engine = search.NewEngine(b, search.WithRunningHook(func(running bool) {
		if b.cfg.Listener != nil {
			b.cfg.Listener.SearchRunning(running)
		}
	}))
}

func (b *base) State() State                { return b.state }
func (b *base) Rows() []*tree.Row           { return b.rows }
func (b *base) VisibleRows() []*tree.Row    { return b.visible }
func (b *base) Selected() *tree.Node        { return b.selected }
func (b *base) FilterHasNoMatches() bool    { return b.noMatches }
func (b *base) SearchText() string          { return b.searchText }
func (b *base) SearchCurrent() string       { return b.engine.Current() }
func (b *base) SearchStep(task uint64) bool { return b.engine.Step(task) }

func (b *base) SelectedID() string {
	if b.selected == nil {
		return ""
	}
	return b.selected.ID()
}

func (b *base) snapshot() prefs.Snapshot {
	fallback := prefs.Snapshot{SortMethod: tree.SortByRepoType}
	if b.cfg.Prefs == nil {
		return fallback
	}
	snap, err := b.cfg.Prefs.Snapshot()
	if err != nil {
		debug.Log("read preferences: %v", err)
		return fallback
	}
	return snap
}

// refilter recomputes row visibility against a fresh preference snapshot
// and the current search text.
func (b *base) refilter() {
	b.applyFilter(b.snapshot())
}

func (b *base) applyFilter(snap prefs.Snapshot) {
	b.fs = snap.FilterState()

	anyMatch := false
	for _, r := range b.rows {
		r.Hidden = r.Kind == tree.RowNode && !b.fs.Visible(r.Node, b.searchText, b.scope)
		if !r.Hidden && r.Kind == tree.RowNode && !r.Node.IsTrashcan() {
			anyMatch = true
		}
	}
	b.noMatches = !anyMatch

	// A typed filter that hides everything is shown unfiltered.
	if !anyMatch && !b.fs.HasPersistent() {
		for _, r := range b.rows {
			r.Hidden = false
		}
	}
	b.reindex()
}

func (b *base) reindex() {
	b.visible = b.visible[:0]
	b.visIndex = make([]int, len(b.rows))
	for i, r := range b.rows {
		if r.Hidden {
			b.visIndex[i] = -1
			continue
		}
		b.visIndex[i] = len(b.visible)
		b.visible = append(b.visible, r)
	}
}

func (b *base) row(id string) *tree.Row {
	for _, r := range b.rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// shown reports whether the node has a visible row.
func (b *base) shown(n *tree.Node) bool {
	if n == nil {
		return false
	}
	r := b.row(n.ID())
	return r != nil && !r.Hidden
}

func (b *base) firstVisible() *tree.Row {
	for _, r := range b.visible {
		if r.Kind != tree.RowGoUp {
			return r
		}
	}
	return nil
}

func (b *base) candidates() []*tree.Node {
	var nodes []*tree.Node
	for _, r := range b.rows {
		if r.Kind == tree.RowNode {
			nodes = append(nodes, r.Node)
		}
	}
	return nodes
}

func pathOf(n *tree.Node) string {
	if n == nil || n.IsGoUp() || n.IsSyntheticRoot() {
		return ""
	}
	return n.FullPath()
}

func (b *base) syncNav(n *tree.Node, replace bool) {
	if b.cfg.Nav == nil {
		return
	}
	path := pathOf(n)
	if b.cfg.Nav.Path() == path {
		return
	}
	if replace {
		b.cfg.Nav.Replace(path)
		return
	}
	b.cfg.Nav.Push(path)
}

// dispatch loads the selected node's metadata; the selection signal is
// raised once it arrives.
func (b *base) dispatch(n *tree.Node) []Op {
	if n == nil {
		return nil
	}
	return []Op{func(ctx context.Context) Result {
		_, err := n.Load(ctx)
		return Result{kind: resultSelection, node: n, err: err}
	}}
}

func (b *base) applySelection(r Result) ([]Op, error) {
	if r.node != b.selected {
		return nil, nil
	}
	if r.err != nil {
		return nil, r.err
	}
	if b.cfg.Listener != nil {
		b.cfg.Listener.SelectionChanged(r.node)
	}
	return nil, nil
}

// after schedules fn to run once the settle delay has passed. Scheduling
// again replaces the pending call.
func (b *base) after(fn func() []Op) []Op {
	b.timer++
	token := b.timer
	b.pending = fn
	d := b.cfg.settle()
	return []Op{func(ctx context.Context) Result {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
		return Result{kind: resultTimer, token: token}
	}}
}

func (b *base) applyTimer(r Result) []Op {
	if r.token != b.timer || b.pending == nil {
		return nil
	}
	fn := b.pending
	b.pending = nil
	return fn()
}

// autoSelectFirst moves the selection to the first visible row when the
// selected one has been filtered out. The location is replaced rather
// than pushed.
func (b *base) autoSelectFirst() []Op {
	if b.selected != nil && b.shown(b.selected) {
		return nil
	}
	first := b.firstVisible()
	if first == nil {
		return nil
	}
	b.selected = first.Node
	b.syncNav(b.selected, true)
	return b.dispatch(b.selected)
}

// Search

func (b *base) SearchRows() []*tree.Row {
	return b.rows
}

func (b *base) Searchable(row *tree.Row, text string) bool {
	return row.Node != nil && b.fs.Visible(row.Node, text, b.scope)
}

func (b *base) InView(i int) bool {
	if i < 0 || i >= len(b.visIndex) {
		return false
	}
	vi := b.visIndex[i]
	return vi >= 0 && vi >= b.viewFirst && vi <= b.viewLast
}

func (b *base) OnScroll(first, last int) {
	b.viewFirst, b.viewLast = first, last
	b.engine.SyncViewport()
}

func (b *base) SearchChange(text string) []Op {
	b.searchText = text
	b.refilter()
	if tree.IsFilterExpression(text) {
		b.engine.Clear()
		return nil
	}
	return b.runSearch(true)
}

func (b *base) runSearch(interactive bool) []Op {
	task := b.engine.Search(b.searchText, search.Options{
		GoToFirst:   interactive,
		ShowSpinner: interactive,
		From:        b.SelectedID(),
	})
	if task == nil {
		return nil
	}
	return []Op{searchStep(task.ID)}
}

func searchStep(task uint64) Op {
	return func(context.Context) Result {
		return Result{kind: resultSearch, task: task}
	}
}

func (b *base) applySearch(r Result) []Op {
	if b.engine.Step(r.task) {
		return []Op{searchStep(r.task)}
	}
	return nil
}

// researchAfterRebuild repeats the active search over freshly built rows.
func (b *base) researchAfterRebuild() []Op {
	if b.searchText == "" || tree.IsFilterExpression(b.searchText) {
		return nil
	}
	return b.runSearch(false)
}

func (b *base) SearchKey(key SearchKey) []Op {
	switch key {
	case KeyDown:
		b.engine.SelectNext()
	case KeyUp:
		b.engine.SelectPrevious()
	case KeyEsc:
		b.SearchCancel()
	case KeyEnter:
		return b.searchEnter()
	}
	return nil
}

func (b *base) searchEnter() []Op {
	text := b.searchText
	switch b.fs.ActiveFilterMode(text, b.candidates(), b.scope) {
	case tree.FilterActive:
		combined := tree.CombineFilters(b.fs.Persistent, tree.ParseFilter(text))
		if b.cfg.Prefs != nil {
			if err := b.cfg.Prefs.SetFilter(combined); err != nil {
				b.warn("Could not save filter: " + err.Error())
				return nil
			}
		}
		b.clearSearch()
		return b.self.RefreshFiltering()

	case tree.FilterNoResults:
		kind := "repository"
		if strings.HasPrefix(strings.TrimSpace(text), "pkg:") {
			kind = "package"
		}
		b.warn("No repositories match the filtered " + kind + " type")
		return nil
	}

	current := b.engine.Current()
	b.clearSearch()
	b.refilter()
	if current == "" {
		return nil
	}
	return b.self.Select(current)
}

func (b *base) SearchCancel() {
	b.clearSearch()
	b.refilter()
}

func (b *base) clearSearch() {
	b.engine.Clear()
	b.searchText = ""
}

func (b *base) warn(msg string) {
	if b.cfg.Listener != nil {
		b.cfg.Listener.Warn(msg)
	}
}

// Close cancels the running search, pending timers and in-flight loads.
func (b *base) Close() {
	b.engine.Clear()
	b.seq++
	b.timer++
	b.pending = nil
	b.closed = true
}
