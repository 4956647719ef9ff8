package tree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func node(info Info) *Node {
	return newNode(nil, nil, info)
}

func texts(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Text()
	}
	return out
}

func TestSortNodes_Repositories(t *testing.T) {
	nodes := []*Node{
		node(repo("zeta-remote", RepoRemote, "npm")),
		node(Info{RepoKey: TrashcanRepoKey, Text: "Trash", Type: TypeTrashcan}),
		node(repo("alpha-local", RepoLocal, "maven")),
		node(repo("cache", RepoCached, "docker")),
		node(repo("virt", RepoVirtual, "npm")),
		node(repo("dist", RepoDistribution, "generic")),
		node(repo("beta-local", RepoLocal, "docker")),
	}

	tests := []struct {
		name   string
		method SortMethod
		want   []string
	}{
		{
			name:   "repository type order",
			method: SortByRepoType,
			want:   []string{"virt", "dist", "alpha-local", "beta-local", "cache", "zeta-remote", "Trash"},
		},
		{
			name:   "package type first",
			method: SortByPackageType,
			want:   []string{"beta-local", "cache", "dist", "alpha-local", "virt", "zeta-remote", "Trash"},
		},
		{
			name:   "alphabetical",
			method: SortAlphabetical,
			want:   []string{"alpha-local", "beta-local", "cache", "dist", "virt", "zeta-remote", "Trash"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sorted := append([]*Node(nil), nodes...)
			SortNodes(sorted, SortOptions{Method: tt.method})
			assert.Equal(t, tt.want, texts(sorted))
		})
	}
}

func TestSortNodes_CustomRepoOrder(t *testing.T) {
	nodes := []*Node{
		node(repo("virt", RepoVirtual, "npm")),
		node(repo("remote", RepoRemote, "npm")),
		node(repo("local", RepoLocal, "npm")),
	}
	SortNodes(nodes, SortOptions{RepoOrder: []RepoType{"REMOTE", "LOCAL"}})
	assert.Equal(t, []string{"remote", "local", "virt"}, texts(nodes))
}

func TestSortNodes_Entries(t *testing.T) {
	nodes := []*Node{
		node(file("r", "b.txt")),
		node(folder("r", "zeta")),
		node(file("r", "A.txt")),
		NewGoUp(),
		node(folder("r", "alpha")),
		node(file("r", "file-10.txt")),
		node(file("r", "file-2.txt")),
	}
	SortNodes(nodes, SortOptions{})
	assert.Equal(t, []string{"..", "alpha", "zeta", "A.txt", "b.txt", "file-2.txt", "file-10.txt"}, texts(nodes))
}

func TestCompareNames(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.0", "1.10.0", -1},
		{"1.10.0", "1.2.0", 1},
		{"v2", "v10", -1},
		{"lib-1.0-SNAPSHOT", "lib-1.0.1", 1},
		{"Alpha", "beta", -1},
		{"readme", "README", 0},
		{"2", "10", -1},
		{"a1", "b0", -1},
		{"1.0", "1.0.0", -1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s vs %s", tt.a, tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, CompareNames(tt.a, tt.b))
		})
	}
}

func TestCompare_MixedKinds(t *testing.T) {
	r := node(repo("libs", RepoLocal, "maven"))
	f := node(folder("libs", "org"))
	trash := node(Info{RepoKey: TrashcanRepoKey, Text: "Trash", Type: TypeTrashcan})
	up := NewGoUp()

	assert.Equal(t, -1, Compare(nil, r, SortOptions{}))
	assert.Equal(t, 1, Compare(r, nil, SortOptions{}))
	assert.Equal(t, -1, Compare(r, f, SortOptions{}))
	assert.Equal(t, 1, Compare(trash, f, SortOptions{}))
	assert.Equal(t, -1, Compare(up, r, SortOptions{}))
	assert.Equal(t, 0, Compare(r, r, SortOptions{}))
}

func genNode(t *rapid.T, label string) *Node {
	name := rapid.StringOfN(rapid.RuneFrom([]rune("ab01.9-_Z")), 0, 6, -1).Draw(t, label+"-name")
	kind := rapid.SampledFrom([]NodeType{TypeFile, TypeFolder, TypeRepository, TypeTrashcan, TypeArchive}).Draw(t, label+"-type")
	info := Info{RepoKey: "r", Path: name, Text: name, Type: kind}
	if kind == TypeRepository {
		info.RepoKey = name
		info.Path = ""
		info.RepoType = rapid.SampledFrom([]RepoType{RepoLocal, RepoRemote, RepoCached, RepoVirtual, "odd"}).Draw(t, label+"-repo")
		info.PackageType = rapid.SampledFrom([]string{"npm", "maven", "Docker", ""}).Draw(t, label+"-pkg")
	}
	return node(info)
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

func TestCompare_StrictWeakOrdering(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		opts := SortOptions{Method: rapid.SampledFrom([]SortMethod{SortByRepoType, SortByPackageType, SortAlphabetical}).Draw(t, "method")}
		a, b, c := genNode(t, "a"), genNode(t, "b"), genNode(t, "c")

		if Compare(a, a, opts) != 0 {
			t.Fatalf("irreflexivity violated for %q", a.Text())
		}
		if sign(Compare(a, b, opts)) != -sign(Compare(b, a, opts)) {
			t.Fatalf("asymmetry violated for %q, %q", a.Text(), b.Text())
		}
		if Compare(a, b, opts) < 0 && Compare(b, c, opts) < 0 && Compare(a, c, opts) >= 0 {
			t.Fatalf("transitivity violated for %q < %q < %q", a.Text(), b.Text(), c.Text())
		}
	})
}
