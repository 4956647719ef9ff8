package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bantamhq/arbor/internal/client"
	"github.com/bantamhq/arbor/internal/config"
	"github.com/bantamhq/arbor/internal/debug"
	"github.com/bantamhq/arbor/internal/prefs"
	"github.com/bantamhq/arbor/internal/tui"
)

var errNotLoggedIn = errors.New("not logged in. Run 'arbor login' first")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var stash bool

	rootCmd := &cobra.Command{
		Use:   "arbor [repo/path]",
		Short: "Browse an artifact repository from the terminal",
		Long: `Arbor browses the repositories of an artifact server as a tree.

Give a location such as npm-local/lodash to open the browser there.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return runBrowse(cmd.Context(), path, stash)
		},
	}
	rootCmd.Flags().BoolVar(&stash, "stash", false, "open the stashed search results")

	rootCmd.AddCommand(
		newServeCmd(),
		newTokenCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newLsCmd(),
		newFilterCmd(),
		newFavoritesCmd(),
	)

	return rootCmd
}

func runBrowse(ctx context.Context, path string, stash bool) error {
	cfg, err := loadClientConfig()
	if err != nil {
		return err
	}

	logFile, err := debug.Open()
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	defer logFile.Close()

	store, err := openPrefs(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	watcher, err := store.Watch(prefs.WithOnError(func(err error) {
		debug.Log("prefs watcher: %v", err)
	}))
	if err != nil {
		return fmt.Errorf("watch preferences: %w", err)
	}
	defer watcher.Stop()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(cfg.Server, cfg.Token)
	return tui.Run(ctx, tui.Options{
		Actions: c,
		Lister:  c.Lister(),
		Prefs:   store,
		Changes: watcher.Changed(),
		Server:  cfg.Server,
		Stash:   stash || cfg.Browser() == config.BrowserStash,
		Path:    path,
	})
}

func loadClientConfig() (*config.ClientConfig, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNotFound) {
		return nil, errNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	if !cfg.IsConfigured() {
		return nil, errNotLoggedIn
	}
	return cfg, nil
}

// openPrefs opens the preference database and applies the configured
// repository order to it.
func openPrefs(cfg *config.ClientConfig) (*prefs.Store, error) {
	path, err := cfg.Prefs()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create preferences dir: %w", err)
	}
	store, err := prefs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open preferences: %w", err)
	}
	if order := cfg.RepoTypes(); order != nil {
		if err := store.SetRepoOrder(order); err != nil {
			store.Close()
			return nil, fmt.Errorf("save repository order: %w", err)
		}
	}
	return store, nil
}
