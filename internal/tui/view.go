package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	sections := []string{
		m.headerView(),
		m.listView(m.listHeight()),
		m.statusView(),
		m.footerView(),
	}

	base := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.modal != modalNone {
		return m.overlayModal(base)
	}

	return base
}

func (m Model) overlayModal(background string) string {
	var modalView string
	switch m.modal {
	case modalHelp:
		modalView = m.helpModalView()
	case modalSort:
		modalView = m.sortPicker.View()
	default:
		modalView = m.dialog.View()
	}
	return overlay.Composite(modalView, background, overlay.Center, overlay.Center, 0, 0)
}

func (m Model) headerView() string {
	title := " arbor · " + m.server

	var flags []string
	if snap, err := m.prefs.Snapshot(); err == nil {
		if fs := snap.FilterState(); fs.HasPersistent() {
			flags = append(flags, "filter "+fs.PersistentString())
		}
		if snap.FavoritesOnly {
			flags = append(flags, "★ only")
		}
		if snap.Compact {
			flags = append(flags, "compact")
		}
	}
	if m.current == paneStash {
		flags = append(flags, fmt.Sprintf("%d stashed", m.stash.Count()))
	}
	right := strings.Join(flags, " · ") + " "

	return Styles.Common.Header.Width(m.width).Render(rightAlignInWidth(title, right, m.width))
}

func (m Model) listView(height int) string {
	p := m.pane()
	style := lipgloss.NewStyle().Width(m.width).Height(height)

	if p.err != nil {
		background := style.Render("")
		return overlay.Composite(m.errorView(p.err), background, overlay.Center, overlay.Center, 0, 0)
	}

	rows := p.browser.VisibleRows()
	if len(rows) == 0 {
		if p.browser.State().Loading() {
			return style.Render(fmt.Sprintf("\n  %s Loading...", m.spinner.View()))
		}
		if m.current == paneStash {
			return style.Render(Styles.Common.MetaText.Render("\n  The stash is empty. Press S to search into it."))
		}
		return style.Render(Styles.Common.MetaText.Render("\n  Nothing here"))
	}

	selected := p.browser.SelectedID()
	current := p.browser.SearchCurrent()
	start := min(p.offset, len(rows))
	end := min(start+height, len(rows))

	lines := make([]string, 0, height)
	for _, r := range rows[start:end] {
		lines = append(lines, m.renderRow(r, r.ID == selected, current, m.width))
	}
	if p.browser.FilterHasNoMatches() && len(lines) < height {
		lines = append(lines, Styles.Common.MetaText.Render("  No repositories match the filter"))
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m Model) errorView(err error) string {
	title, message := friendlyError(err)

	width := errorDialogWidth
	if m.width > 0 && m.width < width+4 {
		width = max(m.width-4, 20)
	}

	var content strings.Builder
	content.WriteString(Styles.Error.Title.Render(title))
	content.WriteString("\n\n")
	content.WriteString(message)
	content.WriteString("\n\n")
	content.WriteString(Styles.Dialog.Hint.Render("r retry • q quit"))

	return Styles.Error.Box.Width(width).Render(content.String())
}

// statusView shows where the selection is and what is known about it.
func (m Model) statusView() string {
	p := m.pane()
	n := p.browser.Selected()
	if n == nil || n.IsGoUp() || n.IsSyntheticRoot() {
		return Styles.Common.MetaText.Width(m.width).Render("")
	}

	location := " " + n.FullPath()
	details := formatMetadata(n, p.meta)
	if details != "" {
		details += " "
	}
	room := max(m.width-lipgloss.Width(details)-1, 1)
	line := rightAlignInWidth(truncateWithEllipsis(location, room), details, m.width)
	return Styles.Common.MetaText.Width(m.width).MaxHeight(1).Render(line)
}

func (m Model) footerView() string {
	badge := Styles.Footer.Badge.Render(m.current.String())
	if m.busy() {
		badge = Styles.Footer.Badge.Render(m.current.String() + " " + m.spinner.View())
	}
	width := max(m.width-lipgloss.Width(badge), 0)
	if width == 0 {
		return badge
	}

	var content string
	var style lipgloss.Style
	switch {
	case m.searching:
		content = m.search.View()
		style = Styles.Footer.Search
	case m.statusMsg != "":
		content = m.statusMsg
		style = Styles.Footer.StatusMessage
	default:
		h := m.help
		h.Width = width - 1
		content = h.ShortHelpView(m.keys.ShortHelp())
		style = Styles.Footer.Help
	}

	if !m.searching {
		content = truncateWithEllipsis(content, width-1)
	}
	return badge + style.Width(width).MaxHeight(1).Render(content)
}

// busy reports whether the active browser is loading or searching.
func (m Model) busy() bool {
	p := m.pane()
	return p.browser.State().Loading() || p.signals.running
}

func (m Model) helpModalView() string {
	width := m.helpModalWidth()
	innerWidth := max(width-4, 1)

	var content strings.Builder
	content.WriteString(Styles.Help.Title.Render("Help"))
	content.WriteString("\n")
	content.WriteString(renderMarkdown(helpMarkdown(m.keys), innerWidth))
	content.WriteString("\n\n")
	content.WriteString(Styles.Dialog.Hint.Render("esc close"))

	return Styles.Help.Box.Width(width).Render(content.String())
}

func (m Model) helpModalWidth() int {
	available := max(m.width-4, 1)
	width := min(available, helpDialogMaxWidth)
	if width < helpDialogMinWidth {
		return available
	}
	return width
}

var helpSections = []string{"Navigation", "Filtering and search", "Actions", "Stash"}

// helpMarkdown lays the key map out as one table per help group.
func helpMarkdown(k KeyMap) string {
	var b strings.Builder
	for i, group := range k.FullHelp() {
		fmt.Fprintf(&b, "### %s\n\n| Key | Action |\n|---|---|\n", helpSections[i])
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString("Search text starting with `pkg:` or `repo:` filters the repositories instead, ")
	b.WriteString("e.g. `pkg:npm,docker;repo:local`. Enter keeps the filter.\n")
	return b.String()
}

func renderMarkdown(content string, width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimSpace(rendered)
}
