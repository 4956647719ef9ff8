package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up             key.Binding
	Down           key.Binding
	PageUp         key.Binding
	PageDown       key.Binding
	Open           key.Binding
	Back           key.Binding
	Search         key.Binding
	Filter         key.Binding
	ClearFilter    key.Binding
	Delete         key.Binding
	Move           key.Binding
	Copy           key.Binding
	Refresh        key.Binding
	Compact        key.Binding
	Favorite       key.Binding
	FavoritesOnly  key.Binding
	PinTrash       key.Binding
	Sort           key.Binding
	SwitchBrowser  key.Binding
	StashSearch    key.Binding
	Discard        key.Binding
	DiscardAll     key.Binding
	Collapse       key.Binding
	HistoryBack    key.Binding
	HistoryForward key.Binding
	Help           key.Binding
	Quit           key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("k/up", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("j/down", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("pgup", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("pgdn", "page down"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter", "right", "l"),
		key.WithHelp("enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("left", "h", "backspace"),
		key.WithHelp("h/left", "up a level"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Filter: key.NewBinding(
		key.WithKeys(":"),
		key.WithHelp(":", "set filter"),
	),
	ClearFilter: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear filter"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete"),
	),
	Move: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "move"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Compact: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "compact folders"),
	),
	Favorite: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "favorite"),
	),
	FavoritesOnly: key.NewBinding(
		key.WithKeys("F"),
		key.WithHelp("F", "favorites only"),
	),
	PinTrash: key.NewBinding(
		key.WithKeys("T"),
		key.WithHelp("T", "pin trash can"),
	),
	Sort: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sort"),
	),
	SwitchBrowser: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "tree/stash"),
	),
	StashSearch: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "search into stash"),
	),
	Discard: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "discard from stash"),
	),
	DiscardAll: key.NewBinding(
		key.WithKeys("X"),
		key.WithHelp("X", "discard stash"),
	),
	Collapse: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "collapse to repo"),
	),
	HistoryBack: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "back"),
	),
	HistoryForward: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "forward"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp and FullHelp implement help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Open, k.Back, k.SwitchBrowser, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Open, k.Back, k.HistoryBack, k.HistoryForward},
		{k.Search, k.Filter, k.ClearFilter, k.Sort, k.Compact, k.Favorite, k.FavoritesOnly, k.PinTrash},
		{k.Delete, k.Move, k.Copy, k.Refresh},
		{k.SwitchBrowser, k.StashSearch, k.Discard, k.DiscardAll, k.Collapse, k.Help, k.Quit},
	}
}
