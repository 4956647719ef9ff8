package tree

import (
	"path"
	"slices"
	"strings"
)

type RowKind int

const (
	RowNode RowKind = iota
	RowGoUp
	RowRoot
)

// Segment is a half-open rune range of a row label that matched a search.
type Segment struct {
	Start int
	End   int
}

// Row is one rendered line of a browser. Its visibility and search flags
// are presentational; the underlying Node is shared with the cache.
type Row struct {
	ID         string
	Node       *Node
	Label      string
	Depth      int
	Kind       RowKind
	Expandable bool
	Expanded   bool
	Favorite   bool
	Count      int
	// UpTo is the folder the go-up row returns to; nil means the roots.
	UpTo *Node

	Hidden   bool
	Matched  bool
	Segments []Segment
}

// Target is the node a row acts on: the node itself, or for the go-up row
// the folder being returned to (nil for the roots).
func (r *Row) Target() *Node {
	if r.Kind == RowGoUp {
		return r.UpTo
	}
	return r.Node
}

// SearchText is the text incremental search runs against.
func (r *Row) SearchText() string {
	if r.Kind == RowNode && r.Node != nil && r.Node.IsTrashcan() {
		return "Trash Can"
	}
	return r.Label
}

// ClearMatch resets the search highlight of the row.
func (r *Row) ClearMatch() {
	r.Matched = false
	r.Segments = nil
}

var packageArchiveTypes = []string{
	"bower", "npm", "cocoapods", "gitlfs", "opkg", "composer", "pypi", "vagrant", "helm",
}

// Glyph names the icon class for a node: its type, or its package type
// for archives whose packages are the archives themselves.
func Glyph(n *Node) string {
	if n == nil {
		return string(TypeFile)
	}
	switch n.Type() {
	case TypeArchive:
		if pkg := strings.ToLower(n.Root().PackageType()); slices.Contains(packageArchiveTypes, pkg) {
			return pkg
		}
		return string(TypeArchive)
	case TypeFile:
		pkg := strings.ToLower(n.Root().PackageType())
		if pkg == "gradle" && path.Ext(n.Text()) == ".gradle" {
			return pkg
		}
		return string(TypeFile)
	case TypeVirtualRemoteRepo:
		return string(TypeRepository)
	}
	return string(n.Type())
}
