package tree

import (
	"cmp"
	"slices"
	"strings"
)

type SortMethod string

const (
	SortByRepoType    SortMethod = "repo_type"
	SortByPackageType SortMethod = "pkg_type"
	SortAlphabetical  SortMethod = "alpha"
)

// ParseSortMethod maps a persisted sort preference to a method. An unset
// preference means repository type order; anything unknown sorts by name.
func ParseSortMethod(s string) SortMethod {
	switch SortMethod(s) {
	case "", SortByRepoType:
		return SortByRepoType
	case SortByPackageType:
		return SortByPackageType
	}
	return SortAlphabetical
}

// DefaultRepoOrder is the repository type precedence used when none is configured.
var DefaultRepoOrder = []RepoType{RepoVirtual, RepoDistribution, RepoLocal, RepoRemote}

type SortOptions struct {
	Method    SortMethod
	RepoOrder []RepoType
}

// RepoTiers turns an ordered list of repository types into ranks, lowest
// first. Cached repositories share the tier of remote ones; types missing
// from the order rank after all listed ones.
func RepoTiers(order []RepoType) map[RepoType]int {
	if len(order) == 0 {
		order = DefaultRepoOrder
	}
	tiers := make(map[RepoType]int, len(order)+1)
	for i, rt := range order {
		rt = RepoType(strings.ToLower(string(rt)))
		if _, seen := tiers[rt]; seen {
			continue
		}
		tiers[rt] = i
		if rt == RepoRemote {
			tiers[RepoCached] = i
		}
	}
	return tiers
}

func repoTier(tiers map[RepoType]int, rt RepoType) int {
	if tier, ok := tiers[RepoType(strings.ToLower(string(rt)))]; ok {
		return tier
	}
	return len(tiers) + 1
}

// SortNodes orders nodes in place.
func SortNodes(nodes []*Node, opts SortOptions) {
	tiers := RepoTiers(opts.RepoOrder)
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		return compare(a, b, opts.Method, tiers)
	})
}

// Compare is a three-way comparison defining a strict weak ordering over
// nodes: the go-up entry first, repositories before anything else, the
// trash can last, folders before files, then names in natural order.
func Compare(a, b *Node, opts SortOptions) int {
	return compare(a, b, opts.Method, RepoTiers(opts.RepoOrder))
}

func compare(a, b *Node, method SortMethod, tiers map[RepoType]int) int {
	switch {
	case a == b:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if ag, bg := a.IsGoUp(), b.IsGoUp(); ag != bg {
		if ag {
			return -1
		}
		return 1
	}
	if at, bt := a.IsTrashcan(), b.IsTrashcan(); at != bt {
		if at {
			return 1
		}
		return -1
	}

	ar, br := a.IsRepo(), b.IsRepo()
	var c int
	switch {
	case ar && br:
		c = compareRepos(a, b, method, tiers)
	case ar:
		return -1
	case br:
		return 1
	default:
		c = compareEntries(a, b)
	}
	if c != 0 {
		return c
	}

	if c := strings.Compare(a.Text(), b.Text()); c != 0 {
		return c
	}
	return strings.Compare(a.ID(), b.ID())
}

func compareRepos(a, b *Node, method SortMethod, tiers map[RepoType]int) int {
	if method == SortByPackageType {
		ap := strings.ToLower(a.PackageType())
		bp := strings.ToLower(b.PackageType())
		if c := strings.Compare(ap, bp); c != 0 {
			return c
		}
	}
	if method != SortAlphabetical {
		if c := cmp.Compare(repoTier(tiers, a.RepoType()), repoTier(tiers, b.RepoType())); c != 0 {
			return c
		}
	}
	return strings.Compare(strings.ToLower(a.Text()), strings.ToLower(b.Text()))
}

func compareEntries(a, b *Node) int {
	if af, bf := a.IsFolder(), b.IsFolder(); af != bf {
		if af {
			return -1
		}
		return 1
	}
	return CompareNames(a.Text(), b.Text())
}

// CompareNames orders names case-insensitively, comparing embedded version
// numbers numerically when both names share the text before their first
// digit.
func CompareNames(a, b string) int {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	ia, ib := firstDigit(la), firstDigit(lb)
	if ia >= 0 && ia == ib && la[:ia] == lb[:ib] {
		if c := CompareVersions(la[ia:], lb[ib:]); c != 0 {
			return c
		}
	}
	return strings.Compare(la, lb)
}

func firstDigit(s string) int {
	return strings.IndexFunc(s, isDigit)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// CompareVersions splits both strings on '-', '.' and '_' and compares the
// segments pairwise. Numeric segments compare by value and sort before
// non-numeric ones; other segments compare as text. The first differing
// segment decides, otherwise the version with fewer segments comes first.
func CompareVersions(a, b string) int {
	as, bs := splitVersion(a), splitVersion(b)
	for i := range min(len(as), len(bs)) {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(as), len(bs))
}

func splitVersion(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '.' || r == '_'
	})
}

func compareSegment(a, b string) int {
	an, bn := isNumeric(a), isNumeric(b)
	switch {
	case an && bn:
		return compareNumeric(a, b)
	case an:
		return -1
	case bn:
		return 1
	}
	return strings.Compare(a, b)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isDigit(r) {
			return false
		}
	}
	return true
}

// compareNumeric compares digit strings by value without overflowing.
func compareNumeric(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if c := cmp.Compare(len(ta), len(tb)); c != 0 {
		return c
	}
	return strings.Compare(ta, tb)
}
