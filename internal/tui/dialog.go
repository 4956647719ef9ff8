package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bantamhq/arbor/internal/tree"
)

type dialogKind int

const (
	dialogAsk dialogKind = iota
	dialogConfirm
)

// DialogSubmitMsg carries the entered text. Confirm dialogs submit "".
type DialogSubmitMsg struct {
	Value string
}

type DialogCancelMsg struct{}

// DialogModel is the modal used for node actions: a text prompt, or a
// yes/no question whose focus starts on the safe answer.
type DialogModel struct {
	kind    dialogKind
	title   string
	message string
	input   textinput.Model
	yes     bool
}

func NewInputDialog(title, message, placeholder string) DialogModel {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = inputMaxLength
	in.Width = dialogInputWidth
	in.Focus()
	return DialogModel{kind: dialogAsk, title: title, message: message, input: in}
}

func NewConfirmDialog(title, message string) DialogModel {
	return DialogModel{kind: dialogConfirm, title: title, message: message}
}

func (d DialogModel) Init() tea.Cmd {
	if d.kind == dialogAsk {
		return textinput.Blink
	}
	return nil
}

func submit(value string) tea.Cmd {
	return func() tea.Msg { return DialogSubmitMsg{Value: value} }
}

func cancel() tea.Msg { return DialogCancelMsg{} }

func (d DialogModel) Update(msg tea.Msg) (DialogModel, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	switch {
	case isKey && key.String() == "esc":
		return d, cancel
	case isKey && key.String() == "enter" && d.kind == dialogAsk:
		return d, submit(strings.TrimSpace(d.input.Value()))
	case isKey && key.String() == "enter":
		if d.yes {
			return d, submit("")
		}
		return d, cancel
	case d.kind == dialogConfirm:
		if isKey {
			switch key.String() {
			case "tab", "shift+tab", "left", "right", "h", "l":
				d.yes = !d.yes
			}
		}
		return d, nil
	}

	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return d, cmd
}

func (d DialogModel) body() string {
	if d.kind == dialogAsk {
		return d.input.View() + "\n\n" + Styles.Dialog.Hint.Render("enter submit • esc cancel")
	}
	button := func(label string, focused bool) string {
		if focused {
			return Styles.Dialog.ButtonFocused.Render(label)
		}
		return Styles.Dialog.Button.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, button("Confirm", d.yes), "  ", button("Cancel", !d.yes))
}

func (d DialogModel) View() string {
	parts := []string{Styles.Common.Header.Render(" " + d.title + " ")}
	if d.message != "" {
		parts = append(parts, d.message)
	}
	parts = append(parts, d.body())
	return Styles.Dialog.Box.Width(dialogWidth).Render(strings.Join(parts, "\n\n"))
}

// SetValue prefills the prompt and puts the cursor after it.
func (d *DialogModel) SetValue(value string) {
	d.input.SetValue(value)
	d.input.CursorEnd()
}

type SortPickerCloseMsg struct{}

type SortPickerSelectMsg struct {
	Method tree.SortMethod
}

var sortChoices = []struct {
	method tree.SortMethod
	label  string
}{
	{tree.SortByRepoType, "Repository type"},
	{tree.SortByPackageType, "Package type"},
	{tree.SortAlphabetical, "Name"},
}

// SortPickerModel chooses how repositories are ordered.
type SortPickerModel struct {
	current tree.SortMethod
	cursor  int
	width   int
}

func NewSortPickerModel(current tree.SortMethod) SortPickerModel {
	cursor := 0
	for i, c := range sortChoices {
		if c.method == current {
			cursor = i
			break
		}
	}
	return SortPickerModel{current: current, cursor: cursor, width: sortPickerWidth}
}

func (p SortPickerModel) Update(msg tea.Msg) (SortPickerModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch keyMsg.String() {
	case "esc", "q":
		return p, func() tea.Msg { return SortPickerCloseMsg{} }

	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}

	case "down", "j":
		if p.cursor < len(sortChoices)-1 {
			p.cursor++
		}

	case "enter":
		method := sortChoices[p.cursor].method
		return p, func() tea.Msg { return SortPickerSelectMsg{Method: method} }
	}
	return p, nil
}

func (p SortPickerModel) View() string {
	var content strings.Builder

	content.WriteString(Styles.Common.Header.Render(" Sort repositories by "))
	content.WriteString("\n\n")

	for i, c := range sortChoices {
		prefix := " "
		if c.method == p.current {
			prefix = "✓"
		} else if i == p.cursor {
			prefix = "→"
		}
		line := prefix + " " + c.label
		if i == p.cursor {
			line = Styles.Picker.Selected.Width(p.width - 4).Render(line)
		}
		content.WriteString(line)
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(Styles.Dialog.Hint.Render("enter select • esc close"))

	return Styles.Dialog.Box.Width(p.width).Render(content.String())
}
