package tui

import (
	"github.com/bantamhq/arbor/internal/browser"
)

// resultMsg carries the outcome of a browser Op back to the browser that
// asked for it.
type resultMsg struct {
	browser browser.Browser
	result  browser.Result
}

// actionDoneMsg reports a finished server action as the browser event it
// completes.
type actionDoneMsg struct {
	event  browser.Event
	pane   paneKind
	status string
}

// stashSearchedMsg reports a search whose results went into the stash.
type stashSearchedMsg struct {
	pattern string
	found   int
	added   int
}

type ActionErrorMsg struct {
	Operation string
	Err       error
}

// prefsChangedMsg is sent when the preference database was written, by
// this process or another one.
type prefsChangedMsg struct{}
