// Package debug provides opt-in debug logging for arbor.
//
// Logging is enabled by setting ARBOR_DEBUG:
//
//	ARBOR_DEBUG=1 arbor
//
// The terminal belongs to the browser while it runs, so messages go to
// arbor-debug.log (or the path in ARBOR_DEBUG_FILE). When disabled every
// function is a no-op.
package debug

import (
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const defaultFile = "arbor-debug.log"

var (
	enabled bool
	logger  *log.Logger
)

func init() {
	enabled = os.Getenv("ARBOR_DEBUG") != ""
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func Enabled() bool {
	return enabled
}

// Open starts writing debug output to the log file. The returned closer
// must be closed on exit. Without ARBOR_DEBUG it does nothing.
func Open() (io.Closer, error) {
	if !enabled {
		return nopCloser{}, nil
	}
	path := os.Getenv("ARBOR_DEBUG_FILE")
	if path == "" {
		path = defaultFile
	}
	f, err := tea.LogToFile(path, "arbor")
	if err != nil {
		return nil, err
	}
	logger = log.Default()
	logger.SetFlags(log.Ltime | log.Lmicroseconds)
	return f, nil
}

// SetOutput enables logging to w. Tests use it to capture output.
func SetOutput(w io.Writer) {
	enabled = w != nil
	if w == nil {
		logger = nil
		return
	}
	logger = log.New(w, "[arbor] ", 0)
}

func Log(format string, args ...any) {
	if !enabled || logger == nil {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming logs how long name took since start.
func LogTiming(name string, start time.Time) {
	if !enabled || logger == nil {
		return
	}
	logger.Printf("%s took %v", name, time.Since(start))
}
