package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Local    LocalConfig    `toml:"local"`
	Remote   RemoteConfig   `toml:"remote"`
	Session  SessionConfig  `toml:"session"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Stats    StatsConfig    `toml:"stats"`
}

// LocalConfig locates the on-device history slot.
type LocalConfig struct {
	Dir string `toml:"dir"`
}

// RemoteConfig contains the hosted table endpoint and keys.
type RemoteConfig struct {
	URL            string `toml:"url"`
	AnonKey        string `toml:"anon_key"`
	ServiceKey     string `toml:"service_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// SessionConfig locates the persisted sign-in session.
type SessionConfig struct {
	Path string `toml:"path"`
}

// DatabaseConfig contains database connection settings for the reference backend.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings for the reference backend.
type ServerConfig struct {
	Host          string  `toml:"host"`
	Port          int     `toml:"port"`
	TokenTTLHours int     `toml:"token_ttl_hours"`
	RateLimit     float64 `toml:"rate_limit"`
	Burst         int     `toml:"burst"`
}

// StatsConfig tunes the admin statistics fan-out.
type StatsConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.expand(); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	if err := config.expand(); err != nil {
		panic(fmt.Sprintf("failed to expand embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expand resolves "~" prefixes in every configured path.
func (c *Config) expand() error {
	for _, p := range []*string{&c.Local.Dir, &c.Session.Path, &c.Database.Path} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		*p = expanded
	}
	return nil
}
