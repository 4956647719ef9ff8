// Package search runs incremental searches over the rows a browser has
// rendered. A search is a task that advances one batch per Step so the
// caller's event loop is never blocked for the whole scan.
package search

import (
	"fmt"
	"slices"
	"time"

	"github.com/bantamhq/arbor/internal/debug"
	"github.com/bantamhq/arbor/internal/tree"
)

const (
	// BatchSize is the number of rows scanned per Step.
	BatchSize = 500
	// SpinnerThreshold is the row count above which a search reports
	// itself as running.
	SpinnerThreshold = 250
)

// Source is the rendered row set a search scans.
type Source interface {
	// SearchRows returns the rendered rows in traversal order. The engine
	// sets match flags on them in place.
	SearchRows() []*tree.Row
	// Searchable reports whether the row stays visible under the filter
	// for the given search text.
	Searchable(row *tree.Row, text string) bool
	// InView reports whether row i is scrolled into the viewport.
	InView(i int) bool
}

// Options tune a single search.
type Options struct {
	// GoToFirst makes the first match current as soon as it is found.
	GoToFirst bool
	// ShowSpinner allows the running signal for large row sets.
	ShowSpinner bool
	// From is the id of the selected row. The first match below it is
	// preferred as the current result.
	From string
}

// Task is one scan in progress.
type Task struct {
	ID   uint64
	Text string

	opts     Options
	rows     []*tree.Row
	pos      int
	fromIdx  int
	gotBelow bool
	started  time.Time
}

type Engine struct {
	src       Source
	matcher   Matcher
	batchSize int
	threshold int
	onRunning func(bool)

	nextID   uint64
	task     *Task
	text     string
	rows     []*tree.Row
	results  []string
	segments map[string][]tree.Segment
	current  string
	running  bool
}

type Option func(*Engine)

func WithMatcher(m Matcher) Option {
	return func(e *Engine) {
		e.matcher = m
	}
}

func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithRunningHook registers a callback for the search running and search
// complete signals.
func WithRunningHook(fn func(running bool)) Option {
	return func(e *Engine) {
		e.onRunning = fn
	}
}

func NewEngine(src Source, opts ...Option) *Engine {
	e := &Engine{
		src:       src,
		matcher:   DefaultMatcher{Fuzzy: true},
		batchSize: BatchSize,
		threshold: SpinnerThreshold,
		segments:  make(map[string][]tree.Segment),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search cancels any scan in progress and starts a new one. Empty text
// clears the search state and returns nil. Otherwise the caller drives
// the returned task with Step until it reports no more work.
func (e *Engine) Search(text string, opts Options) *Task {
	e.Cancel()
	e.reset()
	e.text = text
	if text == "" {
		return nil
	}

	e.nextID++
	t := &Task{
		ID:      e.nextID,
		Text:    text,
		opts:    opts,
		rows:    e.src.SearchRows(),
		fromIdx: -1,
		started: time.Now(),
	}
	if opts.From != "" {
		t.fromIdx = slices.IndexFunc(t.rows, func(r *tree.Row) bool { return r.ID == opts.From })
	}
	e.rows = t.rows
	e.task = t

	if opts.ShowSpinner && len(t.rows) > e.threshold {
		e.setRunning(true)
	}
	return t
}

// Step scans the next batch of the task with the given id. It returns
// whether another Step is needed; a cancelled or superseded task does no
// work and returns false.
func (e *Engine) Step(id uint64) bool {
	t := e.task
	if t == nil || t.ID != id {
		return false
	}

	end := min(t.pos+e.batchSize, len(t.rows))
	for ; t.pos < end; t.pos++ {
		e.scan(t, t.pos)
	}

	if t.pos < len(t.rows) {
		return true
	}
	e.task = nil
	e.setRunning(false)
	debug.LogTiming(fmt.Sprintf("search %q over %d rows", t.Text, len(t.rows)), t.started)
	return false
}

func (e *Engine) scan(t *Task, i int) {
	row := t.rows[i]
	row.ClearMatch()
	if row.Hidden || row.Kind == tree.RowGoUp || !e.src.Searchable(row, t.Text) {
		return
	}

	m := e.matcher.Match(row.SearchText(), t.Text)
	if !m.Matched {
		return
	}

	e.results = append(e.results, row.ID)
	e.segments[row.ID] = m.Segments
	row.Matched = true

	// The first match is current until one strictly below the selected row
	// shows up; the selected row itself never wins.
	first := len(e.results) == 1
	if first || (!t.gotBelow && i > t.fromIdx) {
		e.current = row.ID
		t.gotBelow = i > t.fromIdx
	}
	if (first && t.opts.GoToFirst) || e.src.InView(i) {
		row.Segments = m.Segments
	}
}

// Cancel stops the scan in progress. Results found so far are kept.
func (e *Engine) Cancel() {
	if e.task == nil {
		return
	}
	e.task = nil
	e.setRunning(false)
}

// Clear cancels the scan and removes every match flag it set.
func (e *Engine) Clear() {
	e.Cancel()
	e.reset()
	e.text = ""
}

func (e *Engine) reset() {
	for _, r := range e.rows {
		r.ClearMatch()
	}
	e.rows = nil
	e.results = nil
	e.current = ""
	clear(e.segments)
}

// SyncViewport applies highlight segments to matched rows that scrolled
// into view since the scan passed them.
func (e *Engine) SyncViewport() {
	for i, r := range e.rows {
		if !r.Matched || r.Segments != nil || !e.src.InView(i) {
			continue
		}
		r.Segments = e.segments[r.ID]
	}
}

func (e *Engine) setRunning(running bool) {
	if e.running == running {
		return
	}
	e.running = running
	if e.onRunning != nil {
		e.onRunning(running)
	}
}

func (e *Engine) Text() string      { return e.text }
func (e *Engine) Running() bool     { return e.running }
func (e *Engine) Active() bool      { return e.task != nil }
func (e *Engine) Current() string   { return e.current }
func (e *Engine) Results() []string { return slices.Clone(e.results) }

// SelectNext moves the current result forward, wrapping at the end.
func (e *Engine) SelectNext() (string, bool) {
	if len(e.results) == 0 {
		return "", false
	}
	i := slices.Index(e.results, e.current) + 1
	if i >= len(e.results) {
		i = 0
	}
	e.current = e.results[i]
	return e.current, true
}

// SelectPrevious moves the current result backward, wrapping at the start.
func (e *Engine) SelectPrevious() (string, bool) {
	if len(e.results) == 0 {
		return "", false
	}
	i := slices.Index(e.results, e.current) - 1
	if i < 0 {
		i = len(e.results) - 1
	}
	e.current = e.results[i]
	return e.current, true
}
