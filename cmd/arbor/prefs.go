package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bantamhq/arbor/internal/config"
	"github.com/bantamhq/arbor/internal/prefs"
	"github.com/bantamhq/arbor/internal/tree"
)

// withPrefs runs fn against the preference store. No login is needed.
func withPrefs(fn func(*prefs.Store) error) error {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNotFound) {
		cfg, err = &config.ClientConfig{}, nil
	}
	if err != nil {
		return err
	}
	store, err := openPrefs(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newFilterCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "filter [expression]",
		Short: "Show or set the saved repository filter",
		Long: `Show or set the filter the browser starts with.

An expression names package types and repository types:

  arbor filter 'pkg:npm,docker;repo:local'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPrefs(func(store *prefs.Store) error {
				w := cmd.OutOrStdout()
				switch {
				case reset:
					if err := store.ResetFilters(); err != nil {
						return err
					}
					fmt.Fprintln(w, "Filter cleared")
					return nil
				case len(args) == 0:
					return printFilter(w, store)
				}

				f := tree.ParseFilter(args[0])
				if f.IsEmpty() {
					return fmt.Errorf("not a filter: %q (expected pkg:<types> or repo:<types>)", args[0])
				}
				if err := store.SetFilter(f); err != nil {
					return err
				}
				fmt.Fprintf(w, "Filter set to %s\n", f)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&reset, "clear", false, "remove the filter and show every repository")
	return cmd
}

func printFilter(w io.Writer, store *prefs.Store) error {
	snap, err := store.Snapshot()
	if err != nil {
		return err
	}
	if snap.Filter.IsEmpty() {
		fmt.Fprintln(w, "No filter")
	} else {
		fmt.Fprintln(w, snap.Filter.String())
	}
	if snap.FavoritesOnly {
		fmt.Fprintln(w, "Favorites only")
	}
	return nil
}

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "List favorite repositories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPrefs(func(store *prefs.Store) error {
				snap, err := store.Snapshot()
				if err != nil {
					return err
				}
				favs := slices.Clone(snap.Favorites)
				slices.SortFunc(favs, func(a, b string) int {
					return strings.Compare(strings.ToLower(a), strings.ToLower(b))
				})
				for _, f := range favs {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(
		newFavoriteSetCmd("add", "Mark repositories as favorites", true),
		newFavoriteSetCmd("remove", "Unmark favorite repositories", false),
		newFavoritesOnlyCmd(),
	)
	return cmd
}

func newFavoriteSetCmd(use, short string, favorite bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <repo>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPrefs(func(store *prefs.Store) error {
				for _, key := range args {
					if err := store.SetFavorite(key, favorite); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newFavoritesOnlyCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "only <on|off>",
		Short:     "Show only favorite repositories in the browser",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var on bool
			switch args[0] {
			case "on":
				on = true
			case "off":
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}
			return withPrefs(func(store *prefs.Store) error {
				return store.SetFavoritesOnly(on)
			})
		},
	}
}
