package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/bantamhq/arbor/internal/client"
	"github.com/bantamhq/arbor/internal/config"
)

const defaultServer = "http://localhost:8081"

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [server]",
		Short: "Authenticate with an artifact server",
		Long: `Authenticate with an artifact server and save the credentials.

If no server is specified, defaults to ` + defaultServer + `.
When stdin is not a terminal the token is read from it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runLogin,
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	switch {
	case errors.Is(err, config.ErrNotFound):
		cfg = &config.ClientConfig{}
	case err != nil:
		return err
	case cfg.IsConfigured():
		return fmt.Errorf("already logged in to %s. Run 'arbor logout' first to switch servers", cfg.Server)
	}

	serverURL := defaultServer
	if len(args) > 0 {
		serverURL = args[0]
	}

	var token string
	if isTerminal(stdinFd()) {
		serverURL, token, err = promptLogin(serverURL)
		if err != nil {
			return err
		}
	} else {
		if token, err = readToken(); err != nil {
			return fmt.Errorf("read token: %w", err)
		}
	}

	serverURL = normalizeServerURL(serverURL)
	if token == "" {
		return errors.New("token cannot be empty")
	}

	c := client.New(serverURL, token)
	err = runSpinner("Validating token...", func() error {
		_, err := c.Roots(cmd.Context())
		return err
	})
	if err != nil {
		return formatLoginError(serverURL, err)
	}

	cfg.Server = serverURL
	cfg.Token = token
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Logged in to %s\n", serverURL)
	return nil
}

func promptLogin(serverURL string) (string, string, error) {
	var token string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server").
				Value(&serverURL).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("server is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Token").
				Description("Printed by 'arbor serve' on first start").
				EchoMode(huh.EchoModePassword).
				Value(&token),
		),
	).WithTheme(huh.ThemeBase())

	if err := form.Run(); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(serverURL), strings.TrimSpace(token), nil
}

func normalizeServerURL(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "http://" + s
	}
	return s
}

func formatLoginError(serverURL string, err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return errors.New("invalid token")
	case errors.Is(err, context.DeadlineExceeded), isConnectionError(err):
		return fmt.Errorf("could not connect to %s", serverURL)
	}
	return formatAPIError("authentication failed", err)
}

func newLogoutCmd() *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved server and token",
		Long: `Forget the saved server and token. Browser settings in the config
file are kept unless --purge is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadClientConfig()
			if err != nil {
				return err
			}
			server := cfg.Server

			if purge {
				err = config.Delete()
			} else {
				cfg.Server = ""
				cfg.Token = ""
				err = cfg.Save()
			}
			if err != nil {
				return err
			}

			fmt.Printf("Logged out of %s\n", server)
			return nil
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "remove the whole config file")
	return cmd
}
