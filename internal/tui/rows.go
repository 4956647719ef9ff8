package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/bantamhq/arbor/internal/tree"
)

var glyphIcons = map[string]string{
	"repository": "◆",
	"folder":     "▢",
	"file":       "·",
	"archive":    "▤",
	"trashcan":   "♻",
	"root":       "◎",
	"gradle":     "𝔤",
}

// glyphIcon maps a glyph name to the symbol drawn before the label.
// Package archives share one symbol.
func glyphIcon(glyph string) string {
	if icon, ok := glyphIcons[glyph]; ok {
		return icon
	}
	return "⬢"
}

func (m Model) renderRow(r *tree.Row, selected bool, current string, width int) string {
	var prefix strings.Builder
	prefix.WriteString(strings.Repeat(" ", r.Depth*indentWidth))

	switch {
	case r.Kind == tree.RowGoUp:
		prefix.WriteString("↰ ")
	case m.current == paneStash && r.Expandable && r.Expanded:
		prefix.WriteString("▾ ")
	case m.current == paneStash && r.Expandable:
		prefix.WriteString("▸ ")
	default:
		prefix.WriteString("  ")
	}
	if r.Kind != tree.RowGoUp {
		glyph := "root"
		if r.Kind == tree.RowNode {
			glyph = tree.Glyph(r.Node)
		}
		prefix.WriteString(glyphIcon(glyph))
		prefix.WriteString(" ")
	}

	var suffix string
	if r.Favorite {
		suffix += " ★"
	}
	if r.Count > 0 {
		suffix += fmt.Sprintf(" (%d)", r.Count)
	}

	room := width - runewidth.StringWidth(prefix.String()) - runewidth.StringWidth(suffix)
	label := []rune(truncateWithEllipsis(r.Label, room))

	if selected {
		line := prefix.String() + string(label) + suffix
		return Styles.Row.Selected.Width(width).Render(line)
	}

	base := lipgloss.NewStyle()
	switch {
	case r.Kind == tree.RowNode && r.Node.IsTrashcan():
		base = Styles.Row.Trash
	case r.Expanded && r.Kind == tree.RowNode && m.current == paneTree:
		base = Styles.Row.Parent
	}
	match := Styles.Row.Match
	if r.ID == current {
		match = Styles.Row.Current
	}

	var b strings.Builder
	b.WriteString(prefix.String())
	b.WriteString(highlight(label, r.Segments, base, match))
	if r.Favorite {
		b.WriteString(Styles.Row.Favorite.Render(" ★"))
	}
	if r.Count > 0 {
		b.WriteString(Styles.Common.MetaText.Render(fmt.Sprintf(" (%d)", r.Count)))
	}
	return b.String()
}

// highlight renders label with the matched rune ranges in match style.
// Ranges past a truncated label are dropped.
func highlight(label []rune, segments []tree.Segment, base, match lipgloss.Style) string {
	if len(segments) == 0 {
		return base.Render(string(label))
	}

	var b strings.Builder
	pos := 0
	for _, seg := range segments {
		start, end := min(seg.Start, len(label)), min(seg.End, len(label))
		if start < pos || start >= end {
			continue
		}
		if start > pos {
			b.WriteString(base.Render(string(label[pos:start])))
		}
		b.WriteString(match.Render(string(label[start:end])))
		pos = end
	}
	if pos < len(label) {
		b.WriteString(base.Render(string(label[pos:])))
	}
	return b.String()
}
