package tree

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Node is one entry of the repository tree. Its children are fetched on
// first use and cached until invalidated. All methods are safe for
// concurrent use; loads for the same node are shared between callers.
type Node struct {
	tree   *Tree
	parent *Node
	id     string

	mu             sync.Mutex
	info           Info
	meta           *Metadata
	children       []*Node
	childrenLoaded bool
	childrenEpoch  uint64
	gen            uint64
	detached       bool

	flight singleflight.Group
}

// NodeID derives the stable identifier of a node from its listing data.
func NodeID(info Info) string {
	switch info.Type {
	case TypeGoUp:
		return ".."
	case TypeRoot:
		return RootNodeID
	}
	if info.Path == "" {
		return info.RepoKey
	}
	return info.RepoKey + "/" + strings.Trim(info.Path, "/")
}

// RootNodeID identifies the synthetic root of client-built hierarchies.
const RootNodeID = "____root_node____"

func newNode(t *Tree, parent *Node, info Info) *Node {
	return &Node{
		tree:   t,
		parent: parent,
		id:     NodeID(info),
		info:   info,
	}
}

func (n *Node) ID() string { return n.id }

func (n *Node) Info() Info {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.info
}

func (n *Node) Text() string          { return n.Info().Text }
func (n *Node) Type() NodeType        { return n.Info().Type }
func (n *Node) RepoKey() string       { return n.Info().RepoKey }
func (n *Node) Path() string          { return n.Info().Path }
func (n *Node) RepoType() RepoType    { return n.Info().RepoType }
func (n *Node) PackageType() string   { return n.Info().PackageType }
func (n *Node) HasChildren() bool     { return n.Info().HasChildren }
func (n *Node) Parent() *Node         { return n.parent }
func (n *Node) FullPath() string      { return n.fullPath() }
func (n *Node) IsGoUp() bool          { return n.Type() == TypeGoUp }
func (n *Node) IsFolder() bool        { return n.Type() == TypeFolder }
func (n *Node) IsTrashcan() bool      { return n.Type() == TypeTrashcan }
func (n *Node) IsSyntheticRoot() bool { return n.Type() == TypeRoot }

// DisplayText is the label searched and shown for the node.
func (n *Node) DisplayText() string {
	if n.IsTrashcan() {
		return "Trash Can"
	}
	return n.Text()
}

func (n *Node) fullPath() string {
	info := n.Info()
	switch info.Type {
	case TypeGoUp, TypeRoot:
		return ""
	}
	if info.Path == "" {
		return info.RepoKey
	}
	return info.RepoKey + "/" + strings.Trim(info.Path, "/")
}

func (n *Node) IsRepo() bool {
	switch n.Type() {
	case TypeRepository, TypeVirtualRemoteRepo:
		return true
	}
	return false
}

func (n *Node) IsInTrashcan() bool {
	if n.IsTrashcan() {
		return false
	}
	if n.RepoKey() == TrashcanRepoKey {
		return true
	}
	root := n.Root()
	return root != n && root.IsTrashcan()
}

// IsFavorite reports whether the node is a repository listed in favorites.
func (n *Node) IsFavorite(favorites []string) bool {
	return n.IsRepo() && slices.Contains(favorites, n.RepoKey())
}

// Root returns the top-level ancestor of the node.
func (n *Node) Root() *Node {
	cur := n
	for cur.parent != nil && !cur.parent.IsSyntheticRoot() {
		cur = cur.parent
	}
	return cur
}

// Metadata returns the loaded metadata or nil when Load has not completed.
func (n *Node) Metadata() *Metadata {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.meta
}

// Load fetches the node's metadata once. Concurrent callers share a
// single request and later calls return the cached result.
func (n *Node) Load(ctx context.Context) (*Metadata, error) {
	n.mu.Lock()
	if n.meta != nil {
		meta := n.meta
		n.mu.Unlock()
		return meta, nil
	}
	info := n.info
	n.mu.Unlock()

	if info.Type == TypeGoUp || info.Type == TypeRoot || n.tree == nil || n.tree.lister == nil {
		n.mu.Lock()
		n.meta = &Metadata{}
		meta := n.meta
		n.mu.Unlock()
		return meta, nil
	}

	v, err, _ := n.flight.Do("load", func() (any, error) {
		if meta := n.Metadata(); meta != nil {
			return meta, nil
		}
		meta, err := n.tree.lister.Metadata(ctx, info)
		if err != nil {
			return nil, &FetchError{Op: "load", Path: n.fullPath(), Err: err}
		}
		if meta == nil {
			meta = &Metadata{}
		}
		n.mu.Lock()
		n.meta = meta
		n.mu.Unlock()
		return meta, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Metadata), nil
}

// Children returns the node's children, fetching them when the cache is
// empty. A fetch that completes after the node was invalidated returns
// ErrStale and leaves the cache untouched.
func (n *Node) Children(ctx context.Context) ([]*Node, error) {
	n.mu.Lock()
	if n.childrenValidLocked() {
		children := slices.Clone(n.children)
		n.mu.Unlock()
		return children, nil
	}
	if !n.info.HasChildren || n.tree == nil || n.tree.lister == nil {
		n.mu.Unlock()
		return nil, nil
	}
	info := n.info
	gen := n.gen
	epoch := n.tree.Epoch()
	n.mu.Unlock()

	key := "children:" + strconv.FormatUint(gen, 10) + ":" + strconv.FormatUint(epoch, 10)
	v, err, _ := n.flight.Do(key, func() (any, error) {
		if children, ok := n.LoadedChildren(); ok {
			return children, nil
		}
		infos, err := n.tree.lister.Children(ctx, info, n.tree.listOptions())
		if err != nil {
			return nil, &FetchError{Op: "list children", Path: n.fullPath(), Err: err}
		}

		n.mu.Lock()
		defer n.mu.Unlock()
		if n.gen != gen || n.tree.Epoch() != epoch {
			return nil, ErrStale
		}
		n.children = n.tree.adopt(n, n.children, infos)
		n.childrenLoaded = true
		n.childrenEpoch = epoch
		return slices.Clone(n.children), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Node), nil
}

func (n *Node) childrenValidLocked() bool {
	if n.detached {
		return true
	}
	return n.childrenLoaded && n.tree != nil && n.childrenEpoch == n.tree.Epoch()
}

// LoadedChildren returns the cached children without fetching.
func (n *Node) LoadedChildren() ([]*Node, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.childrenValidLocked() {
		return nil, false
	}
	return slices.Clone(n.children), true
}

// Generation changes every time the node's children are invalidated.
func (n *Node) Generation() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gen
}

// InvalidateChildren drops the cached children of the node and of every
// loaded descendant. Siblings and ancestors keep their caches; loads already
// in flight inside the subtree are discarded. The child nodes themselves are
// kept so a refetch preserves their identity.
func (n *Node) InvalidateChildren() {
	n.mu.Lock()
	if n.detached {
		n.mu.Unlock()
		return
	}
	n.gen++
	n.childrenLoaded = false
	children := slices.Clone(n.children)
	n.mu.Unlock()

	for _, c := range children {
		c.InvalidateChildren()
	}
}

// InvalidateParent invalidates the children of the node's parent, or the
// tree roots when the node is top level.
func (n *Node) InvalidateParent() {
	if n.parent != nil && !n.parent.IsSyntheticRoot() {
		n.parent.InvalidateChildren()
		return
	}
	if n.tree != nil {
		n.tree.InvalidateRoots()
	}
}

// refresh copies newly listed attributes into a node kept across refetches.
func (n *Node) refresh(info Info) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.info = info
	n.meta = nil
	if !info.HasChildren {
		n.children = nil
		n.childrenLoaded = false
	}
}

// SetChildren fixes the children of a client-built node. Such nodes never
// fetch their children from the listing service.
func (n *Node) SetChildren(children []*Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.detached = true
	n.children = slices.Clone(children)
	n.info.HasChildren = len(children) > 0
}

// RemoveChild detaches the child with the given id from a client-built node.
func (n *Node) RemoveChild(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, c := range n.children {
		if c.id == id {
			n.children = slices.Delete(n.children, i, i+1)
			n.info.HasChildren = len(n.children) > 0
			return true
		}
	}
	return false
}
