package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ServerConfig represents the listing server configuration.
type ServerConfig struct {
	Server struct {
		Port int    `toml:"port"`
		Host string `toml:"host"`
	} `toml:"server"`
	Storage struct {
		DataDir string `toml:"data_dir"`
	} `toml:"storage"`
	Auth struct {
		// Token overrides the token generated on first start. "none"
		// disables authentication.
		Token string `toml:"token"`
	} `toml:"auth"`
}

// DefaultServerConfig returns the configuration used when no file exists.
func DefaultServerConfig() *ServerConfig {
	c := &ServerConfig{}
	c.Server.Port = 8081
	c.Server.Host = "0.0.0.0"
	c.Storage.DataDir = "./data"
	return c
}

// LoadServerConfig reads path over the defaults. A missing file is not an error.
func LoadServerConfig(path string) (*ServerConfig, error) {
	config := DefaultServerConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", config.Server.Port)
	}
	if config.Storage.DataDir == "" {
		return nil, fmt.Errorf("storage.data_dir is required")
	}

	return config, nil
}
