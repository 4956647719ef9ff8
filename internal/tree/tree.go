package tree

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Tree is the cached view of the listing service. It owns the top-level
// nodes and hands out children lazily through Node.Children.
type Tree struct {
	lister  Lister
	epoch   atomic.Uint64
	compact atomic.Bool

	mu          sync.Mutex
	roots       []*Node
	rootsLoaded bool
	rootsEpoch  uint64

	flight singleflight.Group
}

func New(l Lister) *Tree {
	return &Tree{lister: l}
}

// Epoch changes on every InvalidateRoots. Caches filled under an older
// epoch are treated as empty.
func (t *Tree) Epoch() uint64 {
	return t.epoch.Load()
}

// SetCompact switches compact folder listing. Changing it invalidates
// everything, since the listed entries differ.
func (t *Tree) SetCompact(compact bool) {
	if t.compact.Swap(compact) != compact {
		t.InvalidateRoots()
	}
}

func (t *Tree) Compact() bool {
	return t.compact.Load()
}

func (t *Tree) listOptions() ListOptions {
	return ListOptions{Compact: t.compact.Load()}
}

// InvalidateRoots drops every cached listing in the tree.
func (t *Tree) InvalidateRoots() {
	t.epoch.Add(1)
}

// Roots returns the top-level nodes, fetching them when needed.
func (t *Tree) Roots(ctx context.Context) ([]*Node, error) {
	epoch := t.Epoch()

	t.mu.Lock()
	if t.rootsLoaded && t.rootsEpoch == epoch {
		roots := slices.Clone(t.roots)
		t.mu.Unlock()
		return roots, nil
	}
	t.mu.Unlock()

	v, err, _ := t.flight.Do("roots:"+strconv.FormatUint(epoch, 10), func() (any, error) {
		if roots, ok := t.LoadedRoots(); ok {
			return roots, nil
		}
		infos, err := t.lister.Roots(ctx, t.listOptions())
		if err != nil {
			return nil, &FetchError{Op: "list roots", Err: err}
		}

		t.mu.Lock()
		defer t.mu.Unlock()
		if t.Epoch() != epoch {
			return nil, ErrStale
		}
		t.roots = t.adopt(nil, t.roots, infos)
		t.rootsLoaded = true
		t.rootsEpoch = epoch
		return slices.Clone(t.roots), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Node), nil
}

// LoadedRoots returns the cached roots without fetching.
func (t *Tree) LoadedRoots() ([]*Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.rootsLoaded || t.rootsEpoch != t.Epoch() {
		return nil, false
	}
	return slices.Clone(t.roots), true
}

// adopt builds the node list for a fresh listing, keeping the identity of
// nodes that were already known under the same id.
func (t *Tree) adopt(parent *Node, prev []*Node, infos []Info) []*Node {
	known := make(map[string]*Node, len(prev))
	for _, n := range prev {
		known[n.id] = n
	}

	nodes := make([]*Node, 0, len(infos))
	for _, info := range infos {
		if n, ok := known[NodeID(info)]; ok {
			n.refresh(info)
			nodes = append(nodes, n)
			continue
		}
		nodes = append(nodes, newNode(t, parent, info))
	}
	return nodes
}

// FindByFullPath resolves "repoKey/some/path" to a node, loading every
// ancestor on the way. When part of the path no longer exists it returns
// the deepest ancestor that does, together with an error wrapping
// ErrNotFound.
func (t *Tree) FindByFullPath(ctx context.Context, fullPath string) (*Node, error) {
	fullPath = strings.Trim(fullPath, "/")
	if fullPath == "" {
		return nil, fmt.Errorf("find %q: %w", fullPath, ErrNotFound)
	}
	repoKey, rel, _ := strings.Cut(fullPath, "/")

	roots, err := t.Roots(ctx)
	if err != nil {
		return nil, err
	}

	var cur *Node
	for _, r := range roots {
		if r.RepoKey() == repoKey && r.Path() == "" {
			cur = r
			break
		}
	}
	if cur == nil {
		return nil, fmt.Errorf("find %s: %w", fullPath, ErrNotFound)
	}

	for rel != "" && !covers(cur, rel) {
		children, err := cur.Children(ctx)
		if err != nil {
			return cur, fmt.Errorf("find %s: %w", fullPath, err)
		}
		next := matchChild(children, rel)
		if next == nil {
			return cur, fmt.Errorf("find %s: %w", fullPath, ErrNotFound)
		}
		cur = next
	}
	return cur, nil
}

// covers reports whether the node is the target path or a compacted entry
// whose folded chain passes through it.
func covers(n *Node, rel string) bool {
	p := strings.Trim(n.Path(), "/")
	return p == rel || strings.HasPrefix(p, rel+"/")
}

func matchChild(children []*Node, rel string) *Node {
	for _, c := range children {
		p := strings.Trim(c.Path(), "/")
		if p == "" {
			continue
		}
		if p == rel || strings.HasPrefix(rel, p+"/") || strings.HasPrefix(p, rel+"/") {
			return c
		}
	}
	return nil
}

// NewDetached creates a node whose children are supplied by the caller
// through SetChildren rather than listed. Metadata still loads through the
// tree's listing service.
func (t *Tree) NewDetached(parent *Node, info Info) *Node {
	n := newNode(t, parent, info)
	n.detached = true
	return n
}

// NewGoUp creates the ".." entry shown above a drilled-into folder.
func NewGoUp() *Node {
	return &Node{id: "..", info: Info{Text: "..", Type: TypeGoUp}}
}
