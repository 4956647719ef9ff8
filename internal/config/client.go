// Package config loads the client and server configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/bantamhq/arbor/internal/tree"
)

// ErrNotFound is returned by Load when no config file exists yet.
var ErrNotFound = errors.New("config file not found")

const (
	BrowserSimple = "simple"
	BrowserStash  = "stash"
)

type ClientConfig struct {
	Server         string   `toml:"server"`
	Token          string   `toml:"token"`
	DefaultBrowser string   `toml:"default_browser,omitempty"`
	RepoOrder      []string `toml:"repo_order,omitempty"`
	PrefsPath      string   `toml:"prefs_path,omitempty"`
}

const (
	globalConfigDir  = ".config/arbor"
	globalConfigFile = "config.toml"
	prefsFile        = "prefs.db"
)

func configPath() (string, error) {
	// Check ARBOR_CONFIG env var first
	if envPath := os.Getenv("ARBOR_CONFIG"); envPath != "" {
		return envPath, nil
	}

	// Default to global config
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}

	return filepath.Join(home, globalConfigDir, globalConfigFile), nil
}

func Load() (*ClientConfig, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("access config: %w", err)
	}

	config := &ClientConfig{}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects values the browsers cannot use.
func (c *ClientConfig) Validate() error {
	switch c.DefaultBrowser {
	case "", BrowserSimple, BrowserStash:
	default:
		return fmt.Errorf("default_browser must be %q or %q, got %q", BrowserSimple, BrowserStash, c.DefaultBrowser)
	}

	known := []tree.RepoType{tree.RepoLocal, tree.RepoRemote, tree.RepoVirtual, tree.RepoDistribution, tree.RepoCached}
	for _, r := range c.RepoOrder {
		if !slices.Contains(known, tree.RepoType(strings.ToLower(r))) {
			return fmt.Errorf("repo_order: unknown repository type %q", r)
		}
	}
	return nil
}

// Browser returns the browser to open when none is asked for.
func (c *ClientConfig) Browser() string {
	if c.DefaultBrowser == "" {
		return BrowserSimple
	}
	return c.DefaultBrowser
}

// RepoTypes returns the configured repository order, or nil when unset.
func (c *ClientConfig) RepoTypes() []tree.RepoType {
	if len(c.RepoOrder) == 0 {
		return nil
	}
	order := make([]tree.RepoType, len(c.RepoOrder))
	for i, r := range c.RepoOrder {
		order[i] = tree.RepoType(strings.ToLower(r))
	}
	return order
}

// Prefs returns where the preferences database lives: prefs_path when set,
// otherwise next to the config file.
func (c *ClientConfig) Prefs() (string, error) {
	if c.PrefsPath != "" {
		return c.PrefsPath, nil
	}
	path, err := configPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(path), prefsFile), nil
}

func (c *ClientConfig) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := f.Chmod(0600); err != nil {
		return fmt.Errorf("set config permissions: %w", err)
	}

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return nil
}

func (c *ClientConfig) IsConfigured() bool {
	return c.Server != ""
}

func Delete() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove config: %w", err)
	}

	return nil
}
