package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary       = lipgloss.Color("62")
	colorPrimaryDark   = lipgloss.Color("60")
	colorTextOnPrimary = lipgloss.Color("230")
	colorText          = lipgloss.Color("255")
	colorTextMuted     = lipgloss.Color("243")
	colorSurface       = lipgloss.Color("236")
	colorMatch         = lipgloss.Color("214")
	colorFavorite      = lipgloss.Color("220")
	colorWarning       = lipgloss.Color("11")
	colorError         = lipgloss.Color("9")
)

type commonStyles struct {
	Header   lipgloss.Style
	MetaText lipgloss.Style
}

type rowStyles struct {
	Selected lipgloss.Style
	Match    lipgloss.Style
	Current  lipgloss.Style
	Favorite lipgloss.Style
	Parent   lipgloss.Style
	Trash    lipgloss.Style
}

type footerStyles struct {
	Badge         lipgloss.Style
	Help          lipgloss.Style
	StatusMessage lipgloss.Style
	Search        lipgloss.Style
}

type dialogStyles struct {
	Box           lipgloss.Style
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	Hint          lipgloss.Style
}

type errorStyles struct {
	Title lipgloss.Style
	Box   lipgloss.Style
}

// Styles groups every lipgloss style the views use.
var Styles = struct {
	Common commonStyles
	Row    rowStyles
	Footer footerStyles
	Dialog dialogStyles
	Picker struct{ Selected lipgloss.Style }
	Help   struct{ Title, Box lipgloss.Style }
	Error  errorStyles
}{
	Common: commonStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTextOnPrimary).
			Background(colorPrimary),
		MetaText: lipgloss.NewStyle().
			Foreground(colorTextMuted),
	},
	Row: rowStyles{
		Selected: lipgloss.NewStyle().
			Background(colorPrimaryDark).
			Foreground(colorTextOnPrimary).
			Bold(true),
		Match: lipgloss.NewStyle().
			Foreground(colorMatch).
			Underline(true),
		Current: lipgloss.NewStyle().
			Foreground(colorMatch).
			Bold(true),
		Favorite: lipgloss.NewStyle().
			Foreground(colorFavorite),
		Parent: lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true),
		Trash: lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Italic(true),
	},
	Footer: footerStyles{
		Badge: lipgloss.NewStyle().
			Background(colorPrimary).
			Foreground(colorTextOnPrimary).
			Bold(true).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorTextMuted).
			PaddingLeft(1),
		StatusMessage: lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorWarning).
			Italic(true).
			PaddingLeft(1),
		Search: lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorText).
			PaddingLeft(1),
	},
	Dialog: dialogStyles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2).
			Background(colorSurface),
		Button: lipgloss.NewStyle().
			Padding(0, 2).
			Background(colorSurface).
			Foreground(colorText).
			Faint(true),
		ButtonFocused: lipgloss.NewStyle().
			Padding(0, 2).
			Background(colorPrimary).
			Foreground(colorTextOnPrimary).
			Bold(true),
		Hint: lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Italic(true),
	},
	Picker: struct{ Selected lipgloss.Style }{
		Selected: lipgloss.NewStyle().Reverse(true),
	},
	Help: struct{ Title, Box lipgloss.Style }{
		Title: lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2),
	},
	Error: errorStyles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(colorError),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(1, 2),
	},
}
