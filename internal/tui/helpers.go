package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/bantamhq/arbor/internal/client"
	"github.com/bantamhq/arbor/internal/tree"
)

func truncateWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return runewidth.Truncate(s, maxWidth, "…")
}

func rightAlignInWidth(left, right string, width int) string {
	if width < 1 {
		width = 1
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// formatMetadata summarises what is known about a node for the status line.
func formatMetadata(n *tree.Node, meta *tree.Metadata) string {
	if meta == nil {
		return ""
	}

	var parts []string
	switch {
	case n.IsRepo() || n.IsTrashcan() || n.IsFolder():
		parts = append(parts, humanize.Comma(int64(meta.ChildCount))+" items")
	default:
		parts = append(parts, humanize.IBytes(uint64(max(meta.Size, 0))))
		if meta.MimeType != "" {
			parts = append(parts, meta.MimeType)
		}
	}
	if !meta.Modified.IsZero() {
		parts = append(parts, "modified "+humanize.Time(meta.Modified))
	}
	if meta.SHA256 != "" {
		parts = append(parts, "sha256 "+meta.SHA256[:min(len(meta.SHA256), 12)])
	}
	if meta.Description != "" {
		parts = append(parts, meta.Description)
	}
	return strings.Join(parts, " · ")
}

// friendlyError turns a load failure into a title and an explanation.
func friendlyError(err error) (string, string) {
	var fetch *tree.FetchError
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return "Not authorized", "The server rejected the token. Run arbor login again."
	case errors.Is(err, tree.ErrNotFound):
		return "Not found", "The location no longer exists on the server."
	case errors.As(err, &fetch):
		return "Could not reach the server", fmt.Sprintf("%s failed: %v", fetch.Op, fetch.Err)
	}
	return "Something went wrong", err.Error()
}
