package browser

import (
	"context"
	"strings"

	"github.com/bantamhq/arbor/internal/debug"
	"github.com/bantamhq/arbor/internal/prefs"
	"github.com/bantamhq/arbor/internal/tree"
)

// StashRootText labels the root of the stashed results hierarchy.
const StashRootText = "Stashed Search Results"

// Stash browses the stashed search results as an expandable hierarchy
// grouped by repository under a single root.
type Stash struct {
	base

	source    StashSource
	root      *tree.Node
	byID      map[string]*tree.Node
	expanded  map[string]bool
	items     int
	discarded int
	compact   bool
}

func NewStash(cfg Config, source StashSource) *Stash {
	s := &Stash{source: source, expanded: map[string]bool{tree.RootNodeID: true}}
	s.init(cfg, tree.ScopeStash, s)
	return s
}

// Count is the number of stashed items not yet discarded.
func (s *Stash) Count() int {
	return s.items - s.discarded
}

func (s *Stash) Init() []Op {
	s.compact = s.snapshot().Compact
	return s.load()
}

func (s *Stash) load() []Op {
	s.seq++
	seq := s.seq
	s.state = LoadingRoots
	src := s.source
	return []Op{func(ctx context.Context) Result {
		items, err := src.Stash(ctx)
		return Result{kind: resultStash, seq: seq, stash: items, err: err}
	}}
}

func (s *Stash) Apply(r Result) ([]Op, error) {
	if s.closed {
		return nil, nil
	}
	switch r.kind {
	case resultStash:
		return s.applyStash(r)
	case resultSelection:
		return s.applySelection(r)
	case resultTimer:
		return s.applyTimer(r), nil
	case resultSearch:
		return s.applySearch(r), nil
	}
	return nil, nil
}

func (s *Stash) applyStash(r Result) ([]Op, error) {
	if r.seq != s.seq {
		return nil, nil
	}
	if r.err != nil {
		if s.root == nil {
			s.state = Unloaded
		} else {
			s.state = RootsLoaded
		}
		return nil, r.err
	}

	s.build(r.stash)
	s.state = RootsLoaded
	debug.Log("stash loaded: %d items", len(r.stash))

	target := s.root
	if s.cfg.Nav != nil {
		if n := s.byID[strings.Trim(s.cfg.Nav.Path(), "/")]; n != nil {
			target = n
		}
	}
	s.reveal(target)
	s.selected = target
	s.rebuild()
	if r := s.rowFor(target); r != nil {
		s.selected = r.Node
	}
	s.syncNav(s.selected, true)

	ops := s.dispatch(s.selected)
	return append(ops, s.researchAfterRebuild()...), nil
}

// build turns the flat stash listing into repository groups, folders and
// items under the synthetic root.
func (s *Stash) build(items []tree.Info) {
	t := s.cfg.Tree
	root := t.NewDetached(nil, tree.Info{Type: tree.TypeRoot, Text: StashRootText, HasChildren: true})
	byID := map[string]*tree.Node{}
	children := map[*tree.Node][]*tree.Node{}
	var parents []*tree.Node

	ensure := func(parent *tree.Node, info tree.Info) *tree.Node {
		id := tree.NodeID(info)
		if n, ok := byID[id]; ok {
			return n
		}
		n := t.NewDetached(parent, info)
		byID[id] = n
		if _, seen := children[parent]; !seen {
			parents = append(parents, parent)
		}
		children[parent] = append(children[parent], n)
		return n
	}

	for _, item := range items {
		group := ensure(root, tree.Info{
			RepoKey:     item.RepoKey,
			Text:        item.RepoKey,
			Type:        tree.TypeRepository,
			RepoType:    item.RepoType,
			PackageType: item.PackageType,
			HasChildren: true,
		})
		parts := strings.Split(strings.Trim(item.Path, "/"), "/")
		parent := group
		for i := range len(parts) - 1 {
			parent = ensure(parent, tree.Info{
				RepoKey:     item.RepoKey,
				Path:        strings.Join(parts[:i+1], "/"),
				Text:        parts[i],
				Type:        tree.TypeFolder,
				HasChildren: true,
			})
		}
		if item.Text == "" {
			item.Text = parts[len(parts)-1]
		}
		ensure(parent, item)
	}

	root.SetChildren(children[root])
	for _, p := range parents {
		p.SetChildren(children[p])
	}
	for _, n := range byID {
		if _, ok := children[n]; !ok {
			n.SetChildren(nil)
		}
	}

	byID[root.ID()] = root
	s.root = root
	s.byID = byID
	s.items = len(items)
	s.discarded = 0
}

// rebuild lays the expanded part of the hierarchy out as rows.
func (s *Stash) rebuild() {
	snap := s.snapshot()
	rows := []*tree.Row{{
		ID:         s.root.ID(),
		Node:       s.root,
		Label:      s.root.Text(),
		Kind:       tree.RowRoot,
		Expandable: true,
		Expanded:   s.expanded[s.root.ID()],
		Count:      s.Count(),
	}}
	if rows[0].Expanded {
		rows = s.appendChildren(rows, s.root, 1, snap)
	}
	s.rows = rows
	s.applyFilter(snap)
}

func (s *Stash) appendChildren(rows []*tree.Row, n *tree.Node, depth int, snap prefs.Snapshot) []*tree.Row {
	kids, _ := n.LoadedChildren()
	tree.SortNodes(kids, snap.SortOptions())
	for _, c := range kids {
		shown, label := c, c.DisplayText()
		if s.compact {
			for shown.IsFolder() {
				next, _ := shown.LoadedChildren()
				if len(next) != 1 || !next[0].IsFolder() {
					break
				}
				shown = next[0]
				label += "/" + shown.Text()
			}
		}
		row := nodeRow(shown, depth, snap.Favorites)
		row.Label = label
		row.Expandable = shown.HasChildren()
		row.Expanded = row.Expandable && s.expanded[shown.ID()]
		rows = append(rows, row)
		if row.Expanded {
			rows = s.appendChildren(rows, shown, depth+1, snap)
		}
	}
	return rows
}

// reveal expands every ancestor of n.
func (s *Stash) reveal(n *tree.Node) {
	for p := n.Parent(); p != nil; p = p.Parent() {
		s.expanded[p.ID()] = true
	}
}

// rowFor finds the row showing n, which in compact mode may be the row of a
// deeper folder its chain was folded into.
func (s *Stash) rowFor(n *tree.Node) *tree.Row {
	if n == nil {
		return nil
	}
	for _, r := range s.rows {
		for a := r.Node; a != nil; a = a.Parent() {
			if a == n {
				return r
			}
		}
	}
	return nil
}

func (s *Stash) Select(id string) []Op {
	r := s.row(id)
	if r == nil || r.Node == s.selected {
		return nil
	}
	s.selected = r.Node
	s.syncNav(r.Node, false)
	return s.dispatch(r.Node)
}

// Open expands or collapses the selected row.
func (s *Stash) Open() []Op {
	n := s.selected
	if n == nil || !n.HasChildren() {
		return nil
	}
	s.expanded[n.ID()] = !s.expanded[n.ID()]
	s.rebuild()
	return s.researchAfterRebuild()
}

// Up collapses the selected row, or moves to the row above it in the
// hierarchy when it is already collapsed.
func (s *Stash) Up() []Op {
	n := s.selected
	if n == nil {
		return nil
	}
	if s.expanded[n.ID()] && n.HasChildren() {
		s.expanded[n.ID()] = false
		s.rebuild()
		return s.researchAfterRebuild()
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if r := s.row(p.ID()); r != nil {
			return s.Select(r.ID)
		}
	}
	return nil
}

// CollapseToRepo collapses everything and selects the repository group of
// the current selection.
func (s *Stash) CollapseToRepo() []Op {
	n := s.selected
	if n == nil || n.IsSyntheticRoot() {
		return nil
	}
	for n.Parent() != nil && !n.Parent().IsSyntheticRoot() {
		n = n.Parent()
	}
	s.expanded = map[string]bool{s.root.ID(): true}
	s.rebuild()
	ops := s.Select(n.ID())
	return append(ops, s.researchAfterRebuild()...)
}

func (s *Stash) Navigate(path string) []Op {
	path = strings.Trim(path, "/")
	if s.root == nil || path == pathOf(s.selected) {
		return nil
	}
	target := s.root
	if n := s.byID[path]; n != nil {
		target = n
	}
	s.reveal(target)
	s.rebuild()
	if r := s.rowFor(target); r != nil {
		target = r.Node
	}
	s.selected = target
	s.syncNav(target, true)
	return s.dispatch(target)
}

func (s *Stash) Handle(e Event) []Op {
	switch e.Kind {
	case Deleted, DiscardFromStash:
		return s.discard(e.Node)

	case DiscardStash, RefreshStash, InvalidateRoots:
		return s.load()

	case Moved, Copied:
		repoKey, _, _ := strings.Cut(strings.Trim(e.Target, "/"), "/")
		s.exit(repoKey)

	case ExitStash:
		n := e.Node
		if n == nil {
			n = s.selected
		}
		s.exit(pathOf(n))

	case FavoriteChanged:
		s.rebuild()
		ops := s.autoSelectFirst()
		return append(ops, s.researchAfterRebuild()...)
	}
	return nil
}

func (s *Stash) exit(path string) {
	if s.cfg.Listener != nil {
		s.cfg.Listener.ExitStash(path)
	}
}

// discard removes n from the stash view. Parents left empty by the removal
// go with it, up to the repository group.
func (s *Stash) discard(n *tree.Node) []Op {
	if n == nil {
		n = s.selected
	}
	if n == nil || s.root == nil {
		return nil
	}
	if own := s.byID[n.ID()]; own != nil {
		n = own
	}
	if n.IsSyntheticRoot() {
		return nil
	}

	gone := n
	parent := n.Parent()
	for parent != nil && !parent.IsSyntheticRoot() {
		siblings, _ := parent.LoadedChildren()
		if len(siblings) > 1 {
			break
		}
		gone = parent
		parent = parent.Parent()
	}
	if parent == nil {
		return nil
	}
	parent.RemoveChild(gone.ID())
	s.forget(gone)
	s.discarded++

	s.rebuild()
	s.selected = parent
	if r := s.rowFor(parent); r != nil {
		s.selected = r.Node
	}
	s.syncNav(s.selected, true)
	ops := s.dispatch(s.selected)
	return append(ops, s.researchAfterRebuild()...)
}

func (s *Stash) forget(n *tree.Node) {
	delete(s.byID, n.ID())
	delete(s.expanded, n.ID())
	kids, _ := n.LoadedChildren()
	for _, c := range kids {
		s.forget(c)
	}
}

// ToggleCompact folds chains of single-folder children into one row.
func (s *Stash) ToggleCompact(on bool) []Op {
	if s.compact == on {
		return nil
	}
	s.compact = on
	if s.root == nil {
		return nil
	}
	s.rebuild()
	if r := s.rowFor(s.selected); r != nil && r.Node != s.selected {
		s.selected = r.Node
		s.syncNav(s.selected, true)
		return append(s.dispatch(s.selected), s.researchAfterRebuild()...)
	}
	return s.researchAfterRebuild()
}

func (s *Stash) RefreshFiltering() []Op {
	s.refilter()
	ops := s.autoSelectFirst()
	return append(ops, s.researchAfterRebuild()...)
}

func (s *Stash) RefreshSorting() []Op {
	if s.root == nil {
		return nil
	}
	s.rebuild()
	return s.researchAfterRebuild()
}
