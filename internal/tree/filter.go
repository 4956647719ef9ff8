package tree

import (
	"regexp"
	"slices"
	"strings"
)

// Filter restricts repositories by package type and repository type. It is
// written as "pkg:npm,docker;repo:local". Each axis is an OR over its
// values; axes combine with AND.
type Filter struct {
	Pkg  []string
	Repo []string
}

var filterPattern = regexp.MustCompile(`(pkg|repo): *([^;]+)(?:;|$) *`)

// ParseFilter reads a filter expression. Text that is not a filter
// expression yields an empty Filter.
func ParseFilter(s string) Filter {
	var f Filter
	for _, m := range filterPattern.FindAllStringSubmatch(s, -1) {
		values := splitValues(m[2])
		if len(values) == 0 {
			continue
		}
		switch m[1] {
		case "pkg":
			f.Pkg = append(f.Pkg, values...)
		case "repo":
			f.Repo = append(f.Repo, values...)
		}
	}
	return f
}

// IsFilterExpression reports whether s uses the filter grammar at all,
// even with an empty term.
func IsFilterExpression(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "pkg:") || strings.HasPrefix(strings.TrimSpace(s), "repo:")
}

func splitValues(s string) []string {
	var values []string
	for _, v := range strings.Split(s, ",") {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

func (f Filter) IsEmpty() bool {
	return len(f.Pkg) == 0 && len(f.Repo) == 0
}

func (f Filter) String() string {
	var parts []string
	if len(f.Pkg) > 0 {
		parts = append(parts, "pkg:"+strings.Join(f.Pkg, ","))
	}
	if len(f.Repo) > 0 {
		parts = append(parts, "repo:"+strings.Join(f.Repo, ","))
	}
	return strings.Join(parts, ";")
}

// CombineFilters merges the persistent filter with one typed into the
// search box. Per axis, the persistent values the temporary ones narrow
// down to are kept; when the temporary values match none of them, the
// persistent values win. An axis with no persistent values takes the
// temporary ones.
func CombineFilters(persistent, temporary Filter) Filter {
	return Filter{
		Pkg:  combineAxis(persistent.Pkg, temporary.Pkg),
		Repo: combineAxis(persistent.Repo, temporary.Repo),
	}
}

func combineAxis(persistent, temporary []string) []string {
	if len(persistent) == 0 {
		return slices.Clone(temporary)
	}
	var narrowed []string
	for _, p := range persistent {
		lp := strings.ToLower(p)
		if slices.ContainsFunc(temporary, func(t string) bool {
			return strings.Contains(lp, strings.ToLower(t))
		}) {
			narrowed = append(narrowed, p)
		}
	}
	if len(narrowed) == 0 {
		return slices.Clone(persistent)
	}
	return narrowed
}

func matchesAny(candidate string, values []string) bool {
	candidate = strings.ToLower(strings.TrimSpace(candidate))
	if candidate == "" {
		return false
	}
	for _, v := range values {
		if strings.Contains(candidate, v) {
			return true
		}
	}
	return false
}

// Scope tells the filter which browser it is evaluated for. The pinned
// trash can only exists in the hierarchical repository browser.
type Scope int

const (
	ScopeTree Scope = iota
	ScopeStash
)

// FilterState is the preference snapshot a visibility query is answered
// against. It is taken fresh for every query.
type FilterState struct {
	Persistent    Filter
	FavoritesOnly bool
	Favorites     []string
	PinnedTrash   bool
}

// PersistentString renders the persistent filter as the user would type
// it, or "*" when only the favorites toggle is active.
func (s FilterState) PersistentString() string {
	if !s.Persistent.IsEmpty() {
		return s.Persistent.String()
	}
	if s.FavoritesOnly {
		return "*"
	}
	return ""
}

func (s FilterState) HasPersistent() bool {
	return s.PersistentString() != ""
}

// Visible reports whether a node passes the persistent filter combined
// with the temporary filter text.
func (s FilterState) Visible(n *Node, temporary string, scope Scope) bool {
	if n == nil {
		return false
	}
	if n.IsGoUp() || n.IsSyntheticRoot() {
		return true
	}

	combined := CombineFilters(s.Persistent, ParseFilter(temporary))
	pinned := s.PinnedTrash && scope == ScopeTree && (n.IsTrashcan() || n.IsInTrashcan())
	root := n.Root()

	if len(combined.Pkg) > 0 {
		ok := (n.IsRepo() && matchesAny(n.PackageType(), combined.Pkg)) ||
			(!n.IsRepo() && root.IsRepo() && matchesAny(root.PackageType(), combined.Pkg)) ||
			pinned
		if !ok {
			return false
		}
	}
	if len(combined.Repo) > 0 {
		ok := (n.IsRepo() && matchesAny(string(n.RepoType()), combined.Repo)) ||
			(!n.IsRepo() && root.IsRepo() && matchesAny(string(root.RepoType()), combined.Repo)) ||
			pinned
		if !ok {
			return false
		}
	}
	return s.passesFavorites(n, scope)
}

func (s FilterState) passesFavorites(n *Node, scope Scope) bool {
	if !s.FavoritesOnly {
		return true
	}
	if n.IsTrashcan() {
		return s.PinnedTrash && scope == ScopeTree
	}
	if !n.IsRepo() {
		return true
	}
	return n.IsFavorite(s.Favorites)
}

type FilterMode int

const (
	// FilterInactive means the search box holds plain search text, or nothing.
	FilterInactive FilterMode = iota
	// FilterActive means the tree is being narrowed by a filter.
	FilterActive
	// FilterNoResults means the typed filter hides every node.
	FilterNoResults
	// FilterEmptyTerm means a filter keyword with nothing after it.
	FilterEmptyTerm
)

// Filtering reports whether any filter, persistent or typed, narrows the tree.
func (s FilterState) Filtering(text string) bool {
	return s.HasPersistent() || !ParseFilter(text).IsEmpty()
}

// ActiveFilterMode classifies the search box text. When candidates is
// non-nil a typed filter that matches none of them reports FilterNoResults.
func (s FilterState) ActiveFilterMode(text string, candidates []*Node, scope Scope) FilterMode {
	if !IsFilterExpression(text) {
		return FilterInactive
	}
	if ParseFilter(text).IsEmpty() {
		return FilterEmptyTerm
	}
	if candidates == nil {
		return FilterActive
	}
	for _, n := range candidates {
		if s.Visible(n, text, scope) {
			return FilterActive
		}
	}
	return FilterNoResults
}
