package client

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bantamhq/arbor/internal/auth"
	"github.com/bantamhq/arbor/internal/server"
	"github.com/bantamhq/arbor/internal/store"
	"github.com/bantamhq/arbor/internal/tree"
)

const testToken = "arb_test"

func testVerifier(t *testing.T) *auth.Verifier {
	t.Helper()
	hash, err := auth.HashToken(testToken)
	require.NoError(t, err)
	v, err := auth.NewVerifier(hash)
	require.NoError(t, err)
	return v
}

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0755))
	require.NoError(t, os.WriteFile(name, []byte(content), 0644))
}

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "repos.toml"), `
[[repo]]
key = "npm-local"
package_type = "npm"

[[repo]]
key = "maven-remote"
type = "remote"
package_type = "maven"
`)
	writeFile(t, filepath.Join(dataDir, "repos", "npm-local", "lodash", "lodash-1.0.tgz"), "one")
	writeFile(t, filepath.Join(dataDir, "repos", "npm-local", "lodash", "lodash-2.0.tgz"), "two")
	writeFile(t, filepath.Join(dataDir, "repos", "maven-remote", "org", "acme", "lib-1.0.jar"), "jar")

	repos, err := server.LoadRepos(dataDir)
	require.NoError(t, err)
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.Initialize())
	t.Cleanup(func() { st.Close() })

	ts := httptest.NewServer(server.NewServer(st, repos, testVerifier(t)))
	t.Cleanup(ts.Close)

	return New(ts.URL+"/", testToken), dataDir
}

func TestBrowse(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	roots, err := c.Roots(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 3)
	assert.Equal(t, "npm-local", roots[0].RepoKey)
	assert.Equal(t, tree.RepoLocal, roots[0].RepoType)
	assert.Equal(t, tree.TypeTrashcan, roots[2].Type)

	children, err := c.Children(ctx, "maven-remote", "", true)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "org/acme", children[0].Text)

	children, err = c.Children(ctx, "maven-remote", "", false)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "org", children[0].Text)

	meta, err := c.Info(ctx, "npm-local", "lodash/lodash-1.0.tgz")
	require.NoError(t, err)
	assert.EqualValues(t, 3, meta.Size)

	_, err = c.Children(ctx, "npm-local", "gone", false)
	assert.ErrorIs(t, err, tree.ErrNotFound)
}

func TestUnauthorized(t *testing.T) {
	c, _ := newTestClient(t)
	c.token = "wrong"

	_, err := c.Roots(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLister_DrivesTree(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	tr := tree.New(c.Lister())
	n, err := tr.FindByFullPath(ctx, "npm-local/lodash/lodash-2.0.tgz")
	require.NoError(t, err)
	assert.Equal(t, "lodash-2.0.tgz", n.Text())
	assert.Equal(t, tree.TypeArchive, n.Type())

	meta, err := n.Load(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, meta.Size)

	n, err = tr.FindByFullPath(ctx, "npm-local/lodash/missing.tgz")
	assert.ErrorIs(t, err, tree.ErrNotFound)
	require.NotNil(t, n)
	assert.Equal(t, "npm-local/lodash", n.FullPath())
}

func TestArtifacts(t *testing.T) {
	c, dataDir := newTestClient(t)
	ctx := context.Background()

	target, err := c.Copy(ctx, "npm-local", "lodash/lodash-1.0.tgz", "maven-remote", "org")
	require.NoError(t, err)
	assert.Equal(t, "maven-remote/org/lodash-1.0.tgz", target)

	target, err = c.Move(ctx, "npm-local", "lodash", "maven-remote", "")
	require.NoError(t, err)
	assert.Equal(t, "maven-remote/lodash", target)
	assert.NoDirExists(t, filepath.Join(dataDir, "repos", "npm-local", "lodash"))

	require.NoError(t, c.Delete(ctx, "maven-remote", "lodash"))
	assert.FileExists(t, filepath.Join(dataDir, "trash", "maven-remote", "lodash", "lodash-2.0.tgz"))

	err = c.Delete(ctx, "maven-remote", "lodash")
	assert.ErrorIs(t, err, tree.ErrNotFound)
}

func TestStash(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	res, err := c.SearchIntoStash(ctx, "*.tgz")
	require.NoError(t, err)
	assert.Equal(t, &SearchResult{Found: 2, Added: 2}, res)

	res, err = c.SearchIntoStash(ctx, "*")
	require.NoError(t, err)
	assert.Equal(t, &SearchResult{Found: 3, Added: 1}, res)

	items, err := c.Stash(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "maven", items[0].PackageType)

	require.NoError(t, c.DiscardFromStash(ctx, "npm-local", "lodash"))
	items, err = c.Stash(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	err = c.DiscardFromStash(ctx, "npm-local", "lodash")
	assert.ErrorIs(t, err, tree.ErrNotFound)

	require.NoError(t, c.DiscardStash(ctx))
	items, err = c.Stash(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStash_FollowsPages(t *testing.T) {
	c, dataDir := newTestClient(t)
	ctx := context.Background()

	for i := range stashPageSize + 20 {
		writeFile(t, filepath.Join(dataDir, "repos", "npm-local", "bulk", "pkg-"+strconv.Itoa(i)+".tgz"), "x")
	}

	res, err := c.SearchIntoStash(ctx, "*.tgz")
	require.NoError(t, err)
	assert.Equal(t, stashPageSize+22, res.Added)

	items, err := c.Stash(ctx)
	require.NoError(t, err)
	assert.Len(t, items, stashPageSize+22)
}
