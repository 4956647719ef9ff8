package browser

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/bantamhq/arbor/internal/debug"
	"github.com/bantamhq/arbor/internal/prefs"
	"github.com/bantamhq/arbor/internal/tree"
)

// Simple browses the repository tree one folder at a time. At the top it
// lists the repositories; once drilled into a folder it shows a go-up row,
// the folder itself and the folder's children.
type Simple struct {
	base

	// parent is the folder whose children are shown; nil means the roots.
	parent *tree.Node
	up     *tree.Node
	loaded State

	// touched is set by the first user navigation. Until then a deep link
	// to a repository is shown from the roots with the repository selected.
	touched bool

	refreshAtRoot bool
}

func NewSimple(cfg Config) *Simple {
	s := &Simple{up: tree.NewGoUp()}
	s.init(cfg, tree.ScopeTree, s)
	return s
}

// Parent is the folder currently drilled into, or nil at the roots.
func (s *Simple) Parent() *tree.Node {
	return s.parent
}

func (s *Simple) Init() []Op {
	s.cfg.Tree.SetCompact(s.snapshot().Compact)
	if s.cfg.Nav != nil && s.cfg.Nav.Path() != "" {
		return s.loadByPath(s.cfg.Nav.Path())
	}
	return s.loadIntoView(nil)
}

func (s *Simple) Apply(r Result) ([]Op, error) {
	if s.closed {
		return nil, nil
	}
	switch r.kind {
	case resultRoots:
		return s.applyRoots(r)
	case resultChildren:
		return s.applyChildren(r)
	case resultResolved:
		return s.applyResolved(r)
	case resultSelection:
		return s.applySelection(r)
	case resultTimer:
		return s.applyTimer(r), nil
	case resultSearch:
		return s.applySearch(r), nil
	}
	return nil, nil
}

func isContainer(n *tree.Node) bool {
	return n.IsFolder() || n.IsRepo() || n.IsTrashcan()
}

// loadIntoView shows n: drilled into when it is a container, or inside its
// parent otherwise. A top-level node is shown from the roots until the
// user has navigated.
func (s *Simple) loadIntoView(n *tree.Node) []Op {
	if n != nil {
		s.selected = n
	}
	if n != nil && (n.Parent() != nil || s.touched) {
		view := n
		if !isContainer(n) {
			view = n.Parent()
		}
		if view != nil {
			return s.loadChildren(view, false)
		}
	}
	return s.loadRoots()
}

func (s *Simple) loadRoots() []Op {
	s.seq++
	seq := s.seq
	s.state = LoadingRoots
	t := s.cfg.Tree
	return []Op{func(ctx context.Context) Result {
		roots, err := t.Roots(ctx)
		return Result{kind: resultRoots, seq: seq, children: roots, err: err}
	}}
}

func (s *Simple) loadChildren(view *tree.Node, selectIt bool) []Op {
	s.seq++
	seq := s.seq
	s.state = LoadingChildren
	return []Op{func(ctx context.Context) Result {
		children, err := view.Children(ctx)
		return Result{kind: resultChildren, seq: seq, node: view, children: children, err: err, selectIt: selectIt}
	}}
}

// loadByPath resolves a "repoKey/path" location and shows it.
func (s *Simple) loadByPath(path string) []Op {
	path = strings.Trim(path, "/")
	if path == "" {
		return s.loadIntoView(nil)
	}
	s.seq++
	seq := s.seq
	s.state = LoadingRoots
	t := s.cfg.Tree
	return []Op{func(ctx context.Context) Result {
		n, err := t.FindByFullPath(ctx, path)
		return Result{kind: resultResolved, seq: seq, node: n, path: path, err: err}
	}}
}

// reload lists the roots again and then the folder on screen, keeping the
// selection where it still exists.
func (s *Simple) reload() []Op {
	s.seq++
	seq := s.seq
	s.state = LoadingRoots
	t := s.cfg.Tree
	parent := s.parent
	return []Op{func(ctx context.Context) Result {
		roots, err := t.Roots(ctx)
		if err != nil || parent == nil {
			return Result{kind: resultRoots, seq: seq, children: roots, err: err}
		}
		n, err := t.FindByFullPath(ctx, parent.FullPath())
		if err != nil && !errors.Is(err, tree.ErrNotFound) {
			return Result{kind: resultChildren, seq: seq, node: parent, err: err}
		}
		if n == nil {
			return Result{kind: resultRoots, seq: seq, children: roots}
		}
		children, err := n.Children(ctx)
		return Result{kind: resultChildren, seq: seq, node: n, children: children, err: err}
	}}
}

func (s *Simple) failed(err error) ([]Op, error) {
	s.state = s.loaded
	return nil, err
}

func (s *Simple) applyRoots(r Result) ([]Op, error) {
	if r.seq != s.seq {
		return nil, nil
	}
	if r.err != nil {
		if errors.Is(r.err, tree.ErrStale) {
			return s.loadRoots(), nil
		}
		return s.failed(r.err)
	}
	if s.refreshAtRoot {
		s.refreshAtRoot = false
		s.cfg.Tree.InvalidateRoots()
		return s.loadRoots(), nil
	}

	s.parent = nil
	snap := s.snapshot()
	tree.SortNodes(r.children, snap.SortOptions())
	rows := make([]*tree.Row, 0, len(r.children))
	for _, n := range r.children {
		rows = append(rows, nodeRow(n, 0, snap.Favorites))
	}
	s.rows = rows
	s.applyFilter(snap)

	s.state = RootsLoaded
	s.loaded = RootsLoaded
	debug.Log("roots loaded: %d repositories", len(rows))
	return s.finishView(), nil
}

func (s *Simple) applyChildren(r Result) ([]Op, error) {
	if r.seq != s.seq {
		return nil, nil
	}
	if r.err != nil {
		if errors.Is(r.err, tree.ErrStale) {
			return s.loadChildren(r.node, r.selectIt), nil
		}
		return s.failed(r.err)
	}

	s.parent = r.node
	if r.selectIt {
		s.selected = r.node
	}
	snap := s.snapshot()
	s.rows = s.parentRows(r.node, r.children, snap)
	s.applyFilter(snap)

	s.state = ChildrenLoaded
	s.loaded = ChildrenLoaded
	debug.Log("children loaded: %s (%d)", r.node.FullPath(), len(r.children))
	return s.finishView(), nil
}

func (s *Simple) applyResolved(r Result) ([]Op, error) {
	if r.seq != s.seq {
		return nil, nil
	}
	missing := errors.Is(r.err, tree.ErrNotFound)
	if r.err != nil && !missing {
		if errors.Is(r.err, tree.ErrStale) {
			return s.loadByPath(r.path), nil
		}
		return s.failed(r.err)
	}

	n := r.node
	if n == nil {
		debug.Log("location %s not found, showing roots", r.path)
		s.selected = nil
		return s.loadRoots(), nil
	}

	snap := s.snapshot()
	if !n.IsTrashcan() && !snap.FilterState().Visible(n, s.searchText, s.scope) {
		if err := s.resetFilters(); err != nil {
			s.warn("Could not reset filters: " + err.Error())
		}
	}

	if missing {
		// The location is gone; show what is left of its folder.
		s.selected = nil
		view := n
		if !isContainer(view) {
			view = n.Parent()
		}
		if view == nil {
			return s.loadRoots(), nil
		}
		return s.loadChildren(view, false), nil
	}
	return s.loadIntoView(n), nil
}

func (s *Simple) resetFilters() error {
	if s.cfg.Prefs == nil {
		return nil
	}
	return s.cfg.Prefs.ResetFilters()
}

func nodeRow(n *tree.Node, depth int, favorites []string) *tree.Row {
	return &tree.Row{
		ID:         n.ID(),
		Node:       n,
		Label:      n.DisplayText(),
		Depth:      depth,
		Kind:       tree.RowNode,
		Expandable: n.HasChildren() && isContainer(n),
		Favorite:   n.IsFavorite(favorites),
	}
}

func (s *Simple) parentRows(parent *tree.Node, children []*tree.Node, snap prefs.Snapshot) []*tree.Row {
	tree.SortNodes(children, snap.SortOptions())

	rows := make([]*tree.Row, 0, len(children)+2)
	rows = append(rows, &tree.Row{
		ID:    s.up.ID(),
		Node:  s.up,
		Label: s.up.Text(),
		Kind:  tree.RowGoUp,
		UpTo:  parent.Parent(),
	})
	head := nodeRow(parent, 0, snap.Favorites)
	head.Expanded = true
	head.Count = len(children)
	rows = append(rows, head)
	for _, c := range children {
		rows = append(rows, nodeRow(c, 1, snap.Favorites))
	}
	return rows
}

// finishView settles the selection after the rows were rebuilt: the kept
// selection when it is still shown, else the first visible entry.
func (s *Simple) finishView() []Op {
	replace := false
	if !s.shown(s.selected) {
		s.selected = nil
		if first := s.firstEntry(); first != nil {
			s.selected = first.Node
		}
		replace = true
	}
	s.syncNav(s.selected, replace)

	ops := s.dispatch(s.selected)
	return append(ops, s.researchAfterRebuild()...)
}

// firstEntry is the first visible child, or the folder itself when all of
// its children are hidden.
func (s *Simple) firstEntry() *tree.Row {
	for _, r := range s.visible {
		if r.Kind == tree.RowNode && r.Node != s.parent {
			return r
		}
	}
	return s.firstVisible()
}

func (s *Simple) Select(id string) []Op {
	r := s.row(id)
	if r == nil {
		return nil
	}
	s.touched = true
	if r.Kind == tree.RowGoUp {
		return s.goUp()
	}
	if r.Node == s.selected {
		return nil
	}
	s.selected = r.Node
	s.syncNav(r.Node, false)
	return s.dispatch(r.Node)
}

// Open drills into the selected folder or repository.
func (s *Simple) Open() []Op {
	n := s.selected
	if n == nil {
		return nil
	}
	s.touched = true
	if n == s.parent || !isContainer(n) || !n.HasChildren() {
		return nil
	}
	s.syncNav(n, false)
	return s.loadIntoView(n)
}

func (s *Simple) Up() []Op {
	s.touched = true
	if s.parent == nil {
		return nil
	}
	return s.goUp()
}

// goUp shows the level above the current folder with the folder selected.
func (s *Simple) goUp() []Op {
	if s.parent == nil {
		return nil
	}
	from := s.parent
	s.selected = from
	if up := from.Parent(); up != nil {
		return s.loadChildren(up, false)
	}
	return s.loadRoots()
}

func (s *Simple) Navigate(path string) []Op {
	path = strings.Trim(path, "/")
	if s.state != Unloaded && path == pathOf(s.selected) {
		return nil
	}
	return s.loadByPath(path)
}

func (s *Simple) Handle(e Event) []Op {
	switch e.Kind {
	case Deleted:
		return s.after(func() []Op { return s.walkUp(e.Node, false) })

	case DeletedContent:
		return s.after(func() []Op { return s.walkUp(e.Node, true) })

	case Moved, Copied:
		dest := e.Target
		if e.Node != nil {
			dest = strings.Trim(e.Target, "/") + "/" + e.Node.Text()
		}
		return s.after(func() []Op {
			s.cfg.Tree.InvalidateRoots()
			return s.loadByPath(dest)
		})

	case Deployed:
		s.touched = true
		s.cfg.Tree.InvalidateRoots()
		return s.loadByPath(e.Target)

	case Refresh:
		return s.refreshFolder(e.Node)

	case RefreshPage:
		if s.parent != nil {
			s.refreshAtRoot = true
			return nil
		}
		s.cfg.Tree.InvalidateRoots()
		return s.loadRoots()

	case InvalidateRoots:
		s.cfg.Tree.InvalidateRoots()
		return s.reload()

	case FavoriteChanged:
		return s.refreshFavorites()
	}
	return nil
}

// walkUp reloads the nearest ancestor of a deleted node that still exists.
// With content set, the node itself survived and only its children went.
func (s *Simple) walkUp(d *tree.Node, content bool) []Op {
	if d == nil {
		return s.reload()
	}
	start := d
	if !content {
		d.InvalidateParent()
		start = d.Parent()
	}
	if start == nil || start.IsSyntheticRoot() {
		return s.loadRoots()
	}

	s.seq++
	seq := s.seq
	s.state = LoadingChildren
	t := s.cfg.Tree
	return []Op{func(ctx context.Context) Result {
		for n := start; n != nil; n = n.Parent() {
			ok, err := stillListed(ctx, t, n)
			if err != nil {
				return Result{kind: resultChildren, seq: seq, node: n, err: err}
			}
			if !ok {
				continue
			}
			n.InvalidateChildren()
			children, err := n.Children(ctx)
			return Result{kind: resultChildren, seq: seq, node: n, children: children, err: err, selectIt: true}
		}
		roots, err := t.Roots(ctx)
		return Result{kind: resultRoots, seq: seq, children: roots, err: err}
	}}
}

// stillListed refetches the listing n belongs to and reports whether n is
// in it.
func stillListed(ctx context.Context, t *tree.Tree, n *tree.Node) (bool, error) {
	n.InvalidateParent()
	var siblings []*tree.Node
	var err error
	if p := n.Parent(); p != nil {
		siblings, err = p.Children(ctx)
	} else {
		siblings, err = t.Roots(ctx)
	}
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(siblings, func(c *tree.Node) bool { return c.ID() == n.ID() }), nil
}

func (s *Simple) refreshFolder(n *tree.Node) []Op {
	if n == nil {
		s.cfg.Tree.InvalidateRoots()
		if s.parent == nil {
			return s.loadRoots()
		}
		return s.reload()
	}
	n.InvalidateChildren()
	if n != s.parent {
		return nil
	}
	return s.loadChildren(n, false)
}

func (s *Simple) refreshFavorites() []Op {
	snap := s.snapshot()
	for _, r := range s.rows {
		if r.Kind == tree.RowNode {
			r.Favorite = r.Node.IsFavorite(snap.Favorites)
		}
	}
	s.applyFilter(snap)
	return s.autoSelectFirst()
}

// ToggleCompact switches compact folder listing and reloads the view.
func (s *Simple) ToggleCompact(on bool) []Op {
	if s.cfg.Tree.Compact() == on {
		return nil
	}
	s.cfg.Tree.SetCompact(on)
	return s.reload()
}

func (s *Simple) RefreshFiltering() []Op {
	s.refilter()
	ops := s.autoSelectFirst()
	return append(ops, s.researchAfterRebuild()...)
}

// RefreshSorting reorders the rows on screen under the current sort method.
func (s *Simple) RefreshSorting() []Op {
	opts := s.snapshot().SortOptions()
	entries := s.rows
	if s.parent != nil && len(entries) >= 2 {
		entries = entries[2:]
	}
	slices.SortStableFunc(entries, func(a, b *tree.Row) int {
		return tree.Compare(a.Node, b.Node, opts)
	})
	s.reindex()
	return s.researchAfterRebuild()
}
