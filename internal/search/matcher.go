package search

import (
	"strings"
	"unicode/utf8"

	"github.com/bantamhq/arbor/internal/tree"
	"github.com/sahilm/fuzzy"
)

// Match is the outcome of matching one row label.
type Match struct {
	Matched  bool
	Segments []tree.Segment
}

// Matcher decides whether a label matches the search text and which parts
// of it to highlight.
type Matcher interface {
	Match(text, pattern string) Match
}

// DefaultMatcher matches case-insensitively. A pattern containing '*' is a
// wildcard whose literal parts must appear in order; any other pattern
// matches as a substring, falling back to a fuzzy subsequence match.
type DefaultMatcher struct {
	// Fuzzy enables the subsequence fallback.
	Fuzzy bool
}

func (m DefaultMatcher) Match(text, pattern string) Match {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" || text == "" {
		return Match{}
	}
	// ToLower maps rune for rune, so rune offsets into lower are offsets
	// into text even where the byte lengths differ.
	lower := strings.ToLower(text)

	if strings.Contains(pattern, "*") {
		return wildcardMatch(lower, pattern)
	}
	if i := strings.Index(lower, pattern); i >= 0 {
		return Match{Matched: true, Segments: []tree.Segment{byteSegment(lower, i, i+len(pattern))}}
	}
	if !m.Fuzzy {
		return Match{}
	}

	found := fuzzy.Find(pattern, []string{lower})
	if len(found) == 0 {
		return Match{}
	}
	return Match{Matched: true, Segments: indexSegments(lower, found[0].MatchedIndexes)}
}

func wildcardMatch(lower, pattern string) Match {
	var segs []tree.Segment
	pos := 0
	for _, part := range strings.Split(pattern, "*") {
		if part == "" {
			continue
		}
		i := strings.Index(lower[pos:], part)
		if i < 0 {
			return Match{}
		}
		start := pos + i
		segs = append(segs, byteSegment(lower, start, start+len(part)))
		pos = start + len(part)
	}
	return Match{Matched: true, Segments: segs}
}

func byteSegment(s string, start, end int) tree.Segment {
	return tree.Segment{
		Start: utf8.RuneCountInString(s[:start]),
		End:   utf8.RuneCountInString(s[:end]),
	}
}

// indexSegments turns matched byte offsets into merged rune ranges.
func indexSegments(s string, indexes []int) []tree.Segment {
	var segs []tree.Segment
	for _, idx := range indexes {
		_, size := utf8.DecodeRuneInString(s[idx:])
		seg := byteSegment(s, idx, idx+size)
		if n := len(segs); n > 0 && segs[n-1].End == seg.Start {
			segs[n-1].End = seg.End
			continue
		}
		segs = append(segs, seg)
	}
	return segs
}
