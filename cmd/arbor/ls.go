package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bantamhq/arbor/internal/client"
	"github.com/bantamhq/arbor/internal/prefs"
	"github.com/bantamhq/arbor/internal/tree"
)

// metadataLoads bounds the concurrent info requests of ls -l.
const metadataLoads = 8

type lsOptions struct {
	long bool
	all  bool
}

func newLsCmd() *cobra.Command {
	var opts lsOptions

	cmd := &cobra.Command{
		Use:   "ls [repo/path]",
		Short: "List a folder, or the repositories",
		Long: `List the children of a location in the order the browser shows them.
Repositories hidden by the saved filter are left out unless --all is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var location string
			if len(args) > 0 {
				location = args[0]
			}
			return runLs(cmd.Context(), cmd.OutOrStdout(), location, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.long, "long", "l", false, "show size and modification time")
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "ignore the saved filter")
	return cmd
}

func runLs(ctx context.Context, w io.Writer, location string, opts lsOptions) error {
	cfg, err := loadClientConfig()
	if err != nil {
		return err
	}
	store, err := openPrefs(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Snapshot()
	if err != nil {
		return err
	}

	c := client.New(cfg.Server, cfg.Token)
	nodes, err := listNodes(ctx, c.Lister(), snap, location, opts.all)
	if err != nil {
		return formatAPIError("list "+location, err)
	}

	color := w == io.Writer(os.Stdout) && isTerminal(stdoutFd())
	if !opts.long {
		for _, n := range nodes {
			fmt.Fprintln(w, styledName(n, snap.Favorites, color))
		}
		return nil
	}

	metas, err := loadMetadata(ctx, nodes)
	if err != nil {
		return formatAPIError("list "+location, err)
	}
	fmt.Fprintln(w, longListing(nodes, metas, snap.Favorites, color))
	return nil
}

// listNodes returns the children of location, or the roots when location
// is empty, filtered and sorted the way the tree browser shows them.
func listNodes(ctx context.Context, l tree.Lister, snap prefs.Snapshot, location string, all bool) ([]*tree.Node, error) {
	t := tree.New(l)
	t.SetCompact(snap.Compact)

	var nodes []*tree.Node
	var err error
	if location == "" {
		nodes, err = t.Roots(ctx)
	} else {
		var n *tree.Node
		if n, err = t.FindByFullPath(ctx, location); err != nil {
			return nil, err
		}
		nodes, err = n.Children(ctx)
	}
	if err != nil {
		return nil, err
	}

	fs := snap.FilterState()
	visible := make([]*tree.Node, 0, len(nodes))
	for _, n := range nodes {
		if all || fs.Visible(n, "", tree.ScopeTree) {
			visible = append(visible, n)
		}
	}
	tree.SortNodes(visible, snap.SortOptions())
	return visible, nil
}

func loadMetadata(ctx context.Context, nodes []*tree.Node) ([]*tree.Metadata, error) {
	metas := make([]*tree.Metadata, len(nodes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(metadataLoads)
	for i, n := range nodes {
		g.Go(func() error {
			meta, err := n.Load(ctx)
			metas[i] = meta
			return err
		})
	}
	return metas, g.Wait()
}

var (
	containerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	favoriteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Bold(true)
)

func isContainer(n *tree.Node) bool {
	return n.IsRepo() || n.IsFolder() || n.IsTrashcan()
}

func styledName(n *tree.Node, favorites []string, color bool) string {
	name := n.DisplayText()
	if isContainer(n) {
		name += "/"
	}
	star := n.IsRepo() && n.IsFavorite(favorites)
	if !color {
		if star {
			name += " *"
		}
		return name
	}
	if isContainer(n) {
		name = containerStyle.Render(name)
	}
	if star {
		name += favoriteStyle.Render(" ★")
	}
	return name
}

func longListing(nodes []*tree.Node, metas []*tree.Metadata, favorites []string, color bool) string {
	t := table.New().
		Headers("NAME", "TYPE", "SIZE", "MODIFIED").
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).BorderBottom(false).BorderLeft(false).BorderRight(false).
		BorderHeader(false).BorderColumn(false)
	if color {
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})
	} else {
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().PaddingRight(2)
		})
	}

	for i, n := range nodes {
		meta := metas[i]
		kind := string(n.Type())
		if n.IsRepo() {
			kind = string(n.RepoType()) + " " + n.PackageType()
		}
		size, modified := "-", "-"
		if meta != nil {
			if isContainer(n) {
				size = humanize.Comma(int64(meta.ChildCount)) + " items"
			} else {
				size = humanize.IBytes(uint64(max(meta.Size, 0)))
			}
			if !meta.Modified.IsZero() {
				modified = humanize.Time(meta.Modified)
			}
		}
		t.Row(styledName(n, favorites, color), kind, size, modified)
	}
	return t.Render()
}
