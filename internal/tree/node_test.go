package tree

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	mu       sync.Mutex
	roots    []Info
	children map[string][]Info
	errs     map[string]error
	calls    map[string]int
	gate     chan struct{}
}

func newFakeLister() *fakeLister {
	return &fakeLister{
		children: make(map[string][]Info),
		errs:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeLister) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeLister) Roots(ctx context.Context, opts ListOptions) ([]Info, error) {
	f.mu.Lock()
	f.calls["roots"]++
	roots := append([]Info(nil), f.roots...)
	f.mu.Unlock()
	return roots, nil
}

func (f *fakeLister) Children(ctx context.Context, parent Info, opts ListOptions) ([]Info, error) {
	id := NodeID(parent)
	f.mu.Lock()
	f.calls["children:"+id]++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	return append([]Info(nil), f.children[id]...), nil
}

func (f *fakeLister) Metadata(ctx context.Context, node Info) (*Metadata, error) {
	f.mu.Lock()
	f.calls["meta:"+NodeID(node)]++
	f.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	return &Metadata{Size: 42}, nil
}

func repo(key string, rt RepoType, pkg string) Info {
	return Info{RepoKey: key, Text: key, Type: TypeRepository, RepoType: rt, PackageType: pkg, HasChildren: true}
}

func folder(key, p string) Info {
	return Info{RepoKey: key, Path: p, Text: baseName(p), Type: TypeFolder, HasChildren: true}
}

func file(key, p string) Info {
	return Info{RepoKey: key, Path: p, Text: baseName(p), Type: TypeFile}
}

func baseName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

func newTestTree(t *testing.T) (*Tree, *fakeLister) {
	t.Helper()
	l := newFakeLister()
	l.roots = []Info{repo("libs", RepoLocal, "maven"), repo("npm-remote", RepoRemote, "npm")}
	l.children["libs"] = []Info{folder("libs", "org"), file("libs", "readme.txt")}
	l.children["libs/org"] = []Info{file("libs", "org/a.jar")}
	return New(l), l
}

func TestNode_Load(t *testing.T) {
	t.Run("concurrent loads share one fetch", func(t *testing.T) {
		tr, l := newTestTree(t)
		roots, err := tr.Roots(context.Background())
		require.NoError(t, err)
		libs := roots[0]

		var wg sync.WaitGroup
		results := make([]*Metadata, 8)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				meta, err := libs.Load(context.Background())
				assert.NoError(t, err)
				results[i] = meta
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, l.count("meta:libs"))
		for _, m := range results {
			assert.Same(t, results[0], m)
		}
	})

	t.Run("loaded metadata is cached", func(t *testing.T) {
		tr, l := newTestTree(t)
		roots, err := tr.Roots(context.Background())
		require.NoError(t, err)

		_, err = roots[0].Load(context.Background())
		require.NoError(t, err)
		_, err = roots[0].Load(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, l.count("meta:libs"))
		assert.Equal(t, int64(42), roots[0].Metadata().Size)
	})
}

func TestNode_Children(t *testing.T) {
	t.Run("fetches once and caches", func(t *testing.T) {
		tr, l := newTestTree(t)
		roots, err := tr.Roots(context.Background())
		require.NoError(t, err)

		children, err := roots[0].Children(context.Background())
		require.NoError(t, err)
		require.Len(t, children, 2)
		assert.Equal(t, "libs/org", children[0].ID())
		assert.Same(t, roots[0], children[0].Parent())

		_, err = roots[0].Children(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, l.count("children:libs"))
	})

	t.Run("node without children does not fetch", func(t *testing.T) {
		tr, l := newTestTree(t)
		roots, err := tr.Roots(context.Background())
		require.NoError(t, err)
		children, err := roots[0].Children(context.Background())
		require.NoError(t, err)

		readme := children[1]
		got, err := readme.Children(context.Background())
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, 0, l.count("children:libs/readme.txt"))
	})

	t.Run("invalidation refetches and keeps identity", func(t *testing.T) {
		tr, l := newTestTree(t)
		roots, err := tr.Roots(context.Background())
		require.NoError(t, err)
		before, err := roots[0].Children(context.Background())
		require.NoError(t, err)

		roots[0].InvalidateChildren()
		after, err := roots[0].Children(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 2, l.count("children:libs"))
		assert.Same(t, before[0], after[0])
	})

	t.Run("invalidation reaches loaded descendants", func(t *testing.T) {
		tr, l := newTestTree(t)
		roots, err := tr.Roots(context.Background())
		require.NoError(t, err)
		libs := roots[0]
		children, err := libs.Children(context.Background())
		require.NoError(t, err)
		org := children[0]
		got, err := org.Children(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 1)

		l.mu.Lock()
		l.children["libs/org"] = append(l.children["libs/org"], file("libs", "org/b.jar"))
		l.mu.Unlock()

		libs.InvalidateChildren()
		_, cached := org.LoadedChildren()
		assert.False(t, cached)

		children, err = libs.Children(context.Background())
		require.NoError(t, err)
		assert.Same(t, org, children[0])
		got, err = children[0].Children(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, 2, l.count("children:libs/org"))
	})

	t.Run("invalidation does not touch siblings", func(t *testing.T) {
		tr, l := newTestTree(t)
		l.children["npm-remote"] = []Info{folder("npm-remote", "lodash")}
		roots, err := tr.Roots(context.Background())
		require.NoError(t, err)
		_, err = roots[0].Children(context.Background())
		require.NoError(t, err)
		_, err = roots[1].Children(context.Background())
		require.NoError(t, err)

		roots[0].InvalidateChildren()

		_, cached := roots[1].LoadedChildren()
		assert.True(t, cached)
		_, cached = roots[0].LoadedChildren()
		assert.False(t, cached)
		assert.Equal(t, 1, l.count("children:npm-remote"))
	})

	t.Run("load finishing after invalidation is discarded", func(t *testing.T) {
		tr, l := newTestTree(t)
		roots, err := tr.Roots(context.Background())
		require.NoError(t, err)

		l.gate = make(chan struct{})
		errc := make(chan error, 1)
		go func() {
			_, err := roots[0].Children(context.Background())
			errc <- err
		}()

		require.Eventually(t, func() bool { return l.count("children:libs") == 1 }, time.Second, time.Millisecond)
		roots[0].InvalidateChildren()
		close(l.gate)

		assert.ErrorIs(t, <-errc, ErrStale)
		_, cached := roots[0].LoadedChildren()
		assert.False(t, cached)
	})

	t.Run("fetch failure is wrapped", func(t *testing.T) {
		tr, l := newTestTree(t)
		boom := errors.New("boom")
		l.errs["libs"] = boom
		roots, err := tr.Roots(context.Background())
		require.NoError(t, err)

		_, err = roots[0].Children(context.Background())
		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "libs", fetchErr.Path)
	})
}

func TestNode_Predicates(t *testing.T) {
	tr, l := newTestTree(t)
	l.roots = append(l.roots, Info{RepoKey: TrashcanRepoKey, Text: "Trash", Type: TypeTrashcan, HasChildren: true})
	l.children[TrashcanRepoKey] = []Info{folder(TrashcanRepoKey, "libs")}

	roots, err := tr.Roots(context.Background())
	require.NoError(t, err)
	trash := roots[2]
	trashed, err := trash.Children(context.Background())
	require.NoError(t, err)

	assert.True(t, roots[0].IsRepo())
	assert.True(t, roots[0].IsFavorite([]string{"libs"}))
	assert.False(t, roots[1].IsFavorite([]string{"libs"}))
	assert.True(t, trash.IsTrashcan())
	assert.False(t, trash.IsInTrashcan())
	assert.Equal(t, "Trash Can", trash.DisplayText())
	assert.True(t, trashed[0].IsInTrashcan())
	assert.Same(t, trash, trashed[0].Root())
	assert.True(t, NewGoUp().IsGoUp())
}

func TestTree_InvalidateRoots(t *testing.T) {
	tr, l := newTestTree(t)
	roots, err := tr.Roots(context.Background())
	require.NoError(t, err)
	_, err = roots[0].Children(context.Background())
	require.NoError(t, err)

	tr.InvalidateRoots()

	_, cached := tr.LoadedRoots()
	assert.False(t, cached)
	_, cached = roots[0].LoadedChildren()
	assert.False(t, cached)

	again, err := tr.Roots(context.Background())
	require.NoError(t, err)
	assert.Same(t, roots[0], again[0])
	assert.Equal(t, 2, l.count("roots"))
}

func TestTree_FindByFullPath(t *testing.T) {
	t.Run("resolves nested path", func(t *testing.T) {
		tr, _ := newTestTree(t)
		n, err := tr.FindByFullPath(context.Background(), "libs/org/a.jar")
		require.NoError(t, err)
		assert.Equal(t, "libs/org/a.jar", n.FullPath())
		assert.Equal(t, "libs/org", n.Parent().FullPath())
	})

	t.Run("resolves repository", func(t *testing.T) {
		tr, _ := newTestTree(t)
		n, err := tr.FindByFullPath(context.Background(), "/libs/")
		require.NoError(t, err)
		assert.True(t, n.IsRepo())
	})

	t.Run("missing leaf returns deepest ancestor", func(t *testing.T) {
		tr, _ := newTestTree(t)
		n, err := tr.FindByFullPath(context.Background(), "libs/org/gone.jar")
		assert.ErrorIs(t, err, ErrNotFound)
		require.NotNil(t, n)
		assert.Equal(t, "libs/org", n.FullPath())
	})

	t.Run("unknown repository", func(t *testing.T) {
		tr, _ := newTestTree(t)
		n, err := tr.FindByFullPath(context.Background(), "nope/x")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, n)
	})

	t.Run("compacted entry covers intermediate folders", func(t *testing.T) {
		tr, l := newTestTree(t)
		l.children["libs"] = []Info{{RepoKey: "libs", Path: "org/acme/core", Text: "org/acme/core", Type: TypeFolder, HasChildren: true}}
		n, err := tr.FindByFullPath(context.Background(), "libs/org/acme")
		require.NoError(t, err)
		assert.Equal(t, "libs/org/acme/core", n.ID())
	})
}

func TestNode_DetachedChildren(t *testing.T) {
	tr, l := newTestTree(t)
	root := tr.NewDetached(nil, Info{Type: TypeRoot, Text: "Stashed Search Results"})
	a := tr.NewDetached(root, folder("libs", "org"))
	b := tr.NewDetached(a, file("libs", "org/a.jar"))
	a.SetChildren([]*Node{b})
	root.SetChildren([]*Node{a})

	children, err := a.Children(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*Node{b}, children)
	assert.Equal(t, 0, l.count("children:libs/org"))

	assert.True(t, a.RemoveChild(b.ID()))
	assert.False(t, a.HasChildren())
	assert.Same(t, a, b.Root())
	assert.Equal(t, RootNodeID, root.ID())
}
