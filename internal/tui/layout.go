package tui

const (
	footerHeight = 1
	headerHeight = 1
	statusHeight = 1

	indentWidth = 2

	dialogWidth        = 50
	dialogInputWidth   = 40
	inputMaxLength     = 256
	helpDialogMinWidth = 40
	helpDialogMaxWidth = 90
	errorDialogWidth   = 50

	sortPickerWidth = 36

	// lenSearchChrome is the footer width taken by the badge and prompt.
	lenSearchChrome = 12
)

// listHeight is how many rows of the browser fit on screen.
func (m Model) listHeight() int {
	return max(m.height-headerHeight-statusHeight-footerHeight, 1)
}

// scrollTo moves the window over p's visible rows so that index i is on
// screen, and reports the new window to the browser.
func (m Model) scrollTo(p *pane, i int) {
	height := m.listHeight()
	total := len(p.browser.VisibleRows())

	switch {
	case i < 0:
	case i < p.offset:
		p.offset = i
	case i >= p.offset+height:
		p.offset = i - height + 1
	}
	p.offset = max(min(p.offset, total-height), 0)

	last := min(p.offset+height, total) - 1
	p.browser.OnScroll(p.offset, last)
}
