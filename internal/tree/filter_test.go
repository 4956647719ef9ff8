package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want Filter
	}{
		{"pkg:npm", Filter{Pkg: []string{"npm"}}},
		{"pkg: npm, Docker ;repo:local", Filter{Pkg: []string{"npm", "docker"}, Repo: []string{"local"}}},
		{"repo:remote;pkg:maven", Filter{Pkg: []string{"maven"}, Repo: []string{"remote"}}},
		{"pkg:", Filter{}},
		{"pkg: , ", Filter{}},
		{"lodash", Filter{}},
		{"", Filter{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFilter(tt.in))
		})
	}
}

func TestFilter_String(t *testing.T) {
	f := Filter{Pkg: []string{"npm", "docker"}, Repo: []string{"local"}}
	assert.Equal(t, "pkg:npm,docker;repo:local", f.String())
	assert.Equal(t, f, ParseFilter(f.String()))
}

func TestCombineFilters(t *testing.T) {
	tests := []struct {
		name       string
		persistent string
		temporary  string
		want       string
	}{
		{"temporary narrows persistent", "pkg:npm,maven", "pkg:np", "pkg:npm"},
		{"unmatched temporary keeps persistent", "repo:local", "repo:xyz", "repo:local"},
		{"axis without persistent takes temporary", "pkg:npm", "repo:remote", "pkg:npm;repo:remote"},
		{"plain text keeps persistent", "pkg:npm", "lodash", "pkg:npm"},
		{"no persistent", "", "pkg:docker", "pkg:docker"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CombineFilters(ParseFilter(tt.persistent), ParseFilter(tt.temporary))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFilterState_PersistentString(t *testing.T) {
	assert.Equal(t, "", FilterState{}.PersistentString())
	assert.Equal(t, "*", FilterState{FavoritesOnly: true}.PersistentString())
	assert.Equal(t, "repo:local", FilterState{Persistent: ParseFilter("repo:local"), FavoritesOnly: true}.PersistentString())
}

type filterFixture struct {
	npm, maven, trash *Node
	npmFolder         *Node
	trashed           *Node
}

func newFilterFixture(t *testing.T) filterFixture {
	t.Helper()
	l := newFakeLister()
	l.roots = []Info{
		repo("npm-local", RepoLocal, "npm"),
		repo("maven-remote", RepoRemote, "maven"),
		{RepoKey: TrashcanRepoKey, Text: "Trash", Type: TypeTrashcan, HasChildren: true},
	}
	l.children["npm-local"] = []Info{folder("npm-local", "lodash")}
	l.children[TrashcanRepoKey] = []Info{folder(TrashcanRepoKey, "old")}
	tr := New(l)

	roots, err := tr.Roots(context.Background())
	require.NoError(t, err)
	npmChildren, err := roots[0].Children(context.Background())
	require.NoError(t, err)
	trashChildren, err := roots[2].Children(context.Background())
	require.NoError(t, err)

	return filterFixture{
		npm:       roots[0],
		maven:     roots[1],
		trash:     roots[2],
		npmFolder: npmChildren[0],
		trashed:   trashChildren[0],
	}
}

func TestFilterState_Visible(t *testing.T) {
	fx := newFilterFixture(t)

	t.Run("no filter shows everything", func(t *testing.T) {
		s := FilterState{}
		for _, n := range []*Node{fx.npm, fx.maven, fx.trash, fx.npmFolder} {
			assert.True(t, s.Visible(n, "", ScopeTree), n.ID())
		}
		assert.False(t, s.Visible(nil, "", ScopeTree))
	})

	t.Run("package filter applies to repositories and their content", func(t *testing.T) {
		s := FilterState{Persistent: ParseFilter("pkg:npm")}
		assert.True(t, s.Visible(fx.npm, "", ScopeTree))
		assert.True(t, s.Visible(fx.npmFolder, "", ScopeTree))
		assert.False(t, s.Visible(fx.maven, "", ScopeTree))
		assert.False(t, s.Visible(fx.trash, "", ScopeTree))
	})

	t.Run("repository type filter", func(t *testing.T) {
		s := FilterState{}
		assert.True(t, s.Visible(fx.maven, "repo:remote", ScopeTree))
		assert.False(t, s.Visible(fx.npm, "repo:remote", ScopeTree))
	})

	t.Run("comma values are alternatives", func(t *testing.T) {
		s := FilterState{}
		assert.True(t, s.Visible(fx.npm, "pkg:maven,npm", ScopeTree))
		assert.True(t, s.Visible(fx.maven, "pkg:maven,npm", ScopeTree))
	})

	t.Run("axes must all match", func(t *testing.T) {
		s := FilterState{}
		assert.False(t, s.Visible(fx.npm, "pkg:npm;repo:remote", ScopeTree))
	})

	t.Run("pinned trash survives filters in the tree only", func(t *testing.T) {
		s := FilterState{Persistent: ParseFilter("pkg:npm"), PinnedTrash: true}
		assert.True(t, s.Visible(fx.trash, "", ScopeTree))
		assert.True(t, s.Visible(fx.trashed, "", ScopeTree))
		assert.False(t, s.Visible(fx.trash, "", ScopeStash))
	})

	t.Run("favorites only", func(t *testing.T) {
		s := FilterState{FavoritesOnly: true, Favorites: []string{"maven-remote"}}
		assert.True(t, s.Visible(fx.maven, "", ScopeTree))
		assert.False(t, s.Visible(fx.npm, "", ScopeTree))
		assert.True(t, s.Visible(fx.npmFolder, "", ScopeTree))
		assert.False(t, s.Visible(fx.trash, "", ScopeTree))

		s.PinnedTrash = true
		assert.True(t, s.Visible(fx.trash, "", ScopeTree))
	})

	t.Run("go-up is always visible", func(t *testing.T) {
		s := FilterState{Persistent: ParseFilter("pkg:nothing")}
		assert.True(t, s.Visible(NewGoUp(), "", ScopeTree))
	})
}

func TestFilterState_ActiveFilterMode(t *testing.T) {
	fx := newFilterFixture(t)
	candidates := []*Node{fx.npm, fx.maven}

	tests := []struct {
		name string
		s    FilterState
		text string
		want FilterMode
	}{
		{"plain text", FilterState{}, "lodash", FilterInactive},
		{"empty", FilterState{}, "", FilterInactive},
		{"empty term", FilterState{}, "pkg: ", FilterEmptyTerm},
		{"matching filter", FilterState{}, "pkg:npm", FilterActive},
		{"filter without matches", FilterState{}, "pkg:conan", FilterNoResults},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.ActiveFilterMode(tt.text, candidates, ScopeTree))
		})
	}

	assert.True(t, FilterState{FavoritesOnly: true}.Filtering(""))
	assert.True(t, FilterState{}.Filtering("repo:local"))
	assert.False(t, FilterState{}.Filtering("lodash"))
}
