package browser

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bantamhq/arbor/internal/prefs"
	"github.com/bantamhq/arbor/internal/tree"
)

// fakeLister serves a mutable in-memory repository layout.
type fakeLister struct {
	mu       sync.Mutex
	roots    []tree.Info
	children map[string][]tree.Info
	compact  bool
	calls    map[string]int
	errs     map[string]error
}

func newFakeLister() *fakeLister {
	return &fakeLister{children: map[string][]tree.Info{}, calls: map[string]int{}, errs: map[string]error{}}
}

func (f *fakeLister) Roots(ctx context.Context, opts tree.ListOptions) ([]tree.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["roots"]++
	f.compact = opts.Compact
	if err := f.errs["roots"]; err != nil {
		return nil, err
	}
	return append([]tree.Info(nil), f.roots...), nil
}

func (f *fakeLister) Children(ctx context.Context, parent tree.Info, opts tree.ListOptions) ([]tree.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := tree.NodeID(parent)
	f.calls["children:"+id]++
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	return append([]tree.Info(nil), f.children[id]...), nil
}

func (f *fakeLister) Metadata(ctx context.Context, node tree.Info) (*tree.Metadata, error) {
	return &tree.Metadata{Size: 1}, nil
}

// fail makes listing key ("roots" or a node id) return err; nil clears it.
func (f *fakeLister) fail(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, key)
		return
	}
	f.errs[key] = err
}

func (f *fakeLister) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeLister) addRepo(key string, rt tree.RepoType, pkg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roots = append(f.roots, tree.Info{
		RepoKey: key, Text: key, Type: tree.TypeRepository,
		RepoType: rt, PackageType: pkg, HasChildren: true,
	})
}

// add lists "repoKey/some/path" under its parent, creating folders for
// every intermediate segment. Paths ending in "/" are folders.
func (f *fakeLister) add(full string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	isFolder := strings.HasSuffix(full, "/")
	repoKey, rel, _ := strings.Cut(strings.Trim(full, "/"), "/")
	parts := strings.Split(rel, "/")
	parent := repoKey
	for i, name := range parts {
		p := strings.Join(parts[:i+1], "/")
		info := tree.Info{RepoKey: repoKey, Path: p, Text: name, Type: tree.TypeFile}
		if i < len(parts)-1 || isFolder {
			info.Type = tree.TypeFolder
			info.HasChildren = true
		}
		if !containsID(f.children[parent], tree.NodeID(info)) {
			f.children[parent] = append(f.children[parent], info)
		}
		parent = tree.NodeID(info)
	}
}

func (f *fakeLister) remove(full string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	full = strings.Trim(full, "/")
	parent := path.Dir(full)
	if !strings.Contains(full, "/") {
		for i, r := range f.roots {
			if r.RepoKey == full {
				f.roots = append(f.roots[:i], f.roots[i+1:]...)
				return
			}
		}
		return
	}
	kids := f.children[parent]
	for i, k := range kids {
		if tree.NodeID(k) == full {
			f.children[parent] = append(kids[:i:i], kids[i+1:]...)
			return
		}
	}
}

func containsID(infos []tree.Info, id string) bool {
	for _, i := range infos {
		if tree.NodeID(i) == id {
			return true
		}
	}
	return false
}

type recorder struct {
	selections []string
	running    []bool
	warnings   []string
	exits      []string
}

func (r *recorder) SelectionChanged(n *tree.Node) { r.selections = append(r.selections, n.ID()) }
func (r *recorder) SearchRunning(running bool)    { r.running = append(r.running, running) }
func (r *recorder) Warn(msg string)               { r.warnings = append(r.warnings, msg) }
func (r *recorder) ExitStash(path string)         { r.exits = append(r.exits, path) }

func (r *recorder) lastSelection() string {
	if len(r.selections) == 0 {
		return ""
	}
	return r.selections[len(r.selections)-1]
}

type memPrefs struct {
	snap   prefs.Snapshot
	resets int
}

func (m *memPrefs) Snapshot() (prefs.Snapshot, error) { return m.snap, nil }

func (m *memPrefs) SetFilter(f tree.Filter) error {
	m.snap.Filter = f
	return nil
}

func (m *memPrefs) ResetFilters() error {
	m.resets++
	m.snap.Filter = tree.Filter{}
	m.snap.FavoritesOnly = false
	return nil
}

type harness struct {
	lister *fakeLister
	tree   *tree.Tree
	prefs  *memPrefs
	nav    *History
	rec    *recorder
}

func newHarness(start string) *harness {
	l := newFakeLister()
	return &harness{
		lister: l,
		tree:   tree.New(l),
		prefs:  &memPrefs{snap: prefs.Snapshot{SortMethod: tree.SortByRepoType}},
		nav:    NewHistory(start),
		rec:    &recorder{},
	}
}

func (h *harness) config() Config {
	return Config{
		Tree:     h.tree,
		Prefs:    h.prefs,
		Nav:      h.nav,
		Listener: h.rec,
		Settle:   time.Millisecond,
	}
}

// drive runs ops and everything they lead to until the browser is idle.
func drive(t *testing.T, b Browser, ops []Op) {
	t.Helper()
	require.NoError(t, driveErr(b, ops))
}

func driveErr(b Browser, ops []Op) error {
	ctx := context.Background()
	var firstErr error
	for steps := 0; len(ops) > 0; steps++ {
		if steps > 10000 {
			return fmt.Errorf("browser did not settle")
		}
		op := ops[0]
		ops = ops[1:]
		next, err := b.Apply(op(ctx))
		if err != nil && firstErr == nil {
			firstErr = err
		}
		ops = append(ops, next...)
	}
	return firstErr
}

func labels(rows []*tree.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Label
	}
	return out
}
