package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bantamhq/arbor/internal/auth"
	"github.com/bantamhq/arbor/internal/config"
	"github.com/bantamhq/arbor/internal/server"
	"github.com/bantamhq/arbor/internal/store"
)

const tokenFile = "server-token"

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the development listing server",
		Long: `Serve the repositories under <data_dir>/repos over the browse API.

Repositories are described in <data_dir>/repos.toml. Without it every
directory under <data_dir>/repos is served as a generic local repository.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "server.toml", "server configuration file")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the server token",
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Replace the server token with a new one",
		Long:  `Generate a new server token. Clients logged in with the old token must log in again.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openServerStore(configPath)
			if err != nil {
				return err
			}
			defer st.Close()

			_, err = issueToken(st, cfg.Storage.DataDir)
			return err
		},
	}
	resetCmd.Flags().StringVarP(&configPath, "config", "c", "server.toml", "server configuration file")

	cmd.AddCommand(resetCmd)
	return cmd
}

func openServerStore(configPath string) (*config.ServerConfig, *store.SQLiteStore, error) {
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.NewSQLiteStore(filepath.Join(cfg.Storage.DataDir, "arbor.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("initialize database: %w", err)
	}
	if err := st.Initialize(); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("initialize schema: %w", err)
	}
	return cfg, st, nil
}

func runServe(configPath string) error {
	cfg, st, err := openServerStore(configPath)
	if err != nil {
		return err
	}
	defer st.Close()

	repos, err := server.LoadRepos(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("load repositories: %w", err)
	}

	verifier, err := serverVerifier(cfg, st)
	if err != nil {
		return err
	}

	srv := server.NewServer(st, repos, verifier)

	fmt.Printf("Data directory: %s\n", cfg.Storage.DataDir)
	if verifier == nil {
		fmt.Println("Authentication is disabled.")
	}
	fmt.Printf("Log in with: arbor login http://localhost:%d\n", cfg.Server.Port)

	return srv.Start(cfg.Server.Host, cfg.Server.Port)
}

// serverVerifier decides how clients authenticate: auth.token from the
// config when set ("none" disables authentication), otherwise the stored
// token, which is generated on first start.
func serverVerifier(cfg *config.ServerConfig, st store.Store) (*auth.Verifier, error) {
	switch cfg.Auth.Token {
	case "none":
		return nil, nil
	case "":
	default:
		hash, err := auth.HashToken(cfg.Auth.Token)
		if err != nil {
			return nil, err
		}
		return auth.NewVerifier(hash)
	}

	hash, err := st.ServerTokenHash()
	if err != nil {
		return nil, err
	}
	if hash == "" {
		if hash, err = issueToken(st, cfg.Storage.DataDir); err != nil {
			return nil, err
		}
	}
	return auth.NewVerifier(hash)
}

// issueToken stores the hash of a fresh token and shows the token once.
func issueToken(st store.Store, dataDir string) (string, error) {
	token, err := auth.GenerateToken()
	if err != nil {
		return "", err
	}
	hash, err := auth.HashToken(token)
	if err != nil {
		return "", err
	}
	if err := st.SetServerTokenHash(hash); err != nil {
		return "", err
	}

	path := filepath.Join(dataDir, tokenFile)
	if err := os.WriteFile(path, []byte(token+"\n"), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save server token to file: %v\n", err)
		path = ""
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SERVER TOKEN GENERATED")
	if path != "" {
		fmt.Println("Saved to: " + path)
	}
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println(token)
	fmt.Println(strings.Repeat("=", 60) + "\n")

	return hash, nil
}
