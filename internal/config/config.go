// Package config handles application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alienxp03/parley/internal/profile"
)

// Config represents the application configuration.
type Config struct {
	Defaults DefaultsConfig    `yaml:"defaults"`
	Storage  StorageConfig     `yaml:"storage"`
	Server   ServerConfig      `yaml:"server,omitempty"`
	Log      LogConfig         `yaml:"log,omitempty"`
	Profiles []profile.Profile `yaml:"profiles,omitempty"`
}

// DefaultsConfig holds the settings used when a negotiation does not specify
// its own.
type DefaultsConfig struct {
	MaxRounds  int    `yaml:"max_rounds"`
	CorpusSize int    `yaml:"corpus_size"`
	ProfileA   string `yaml:"profile_a"`
	ProfileB   string `yaml:"profile_b"`
	Catalog    string `yaml:"catalog,omitempty"` // YAML catalog path, empty generates a corpus
}

// StorageConfig holds database settings.
type StorageConfig struct {
	Path string `yaml:"path,omitempty"` // empty uses the default path
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			MaxRounds:  50,
			CorpusSize: 10,
			ProfileA:   profile.Random,
			ProfileB:   profile.Random,
		},
		Server: ServerConfig{
			Port: 8182,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path. A missing file yields the
// defaults. A .env file in the working directory overrides both.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if env, err := LoadEnv(".env"); err == nil {
		ApplyEnvOverrides(cfg, env)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks defaults and custom profiles.
func (c *Config) Validate() error {
	if c.Defaults.MaxRounds <= 0 {
		return fmt.Errorf("defaults.max_rounds must be positive, got %d", c.Defaults.MaxRounds)
	}
	if c.Defaults.CorpusSize < 2 {
		return fmt.Errorf("defaults.corpus_size must be at least 2, got %d", c.Defaults.CorpusSize)
	}

	seen := make(map[string]bool, len(c.Profiles))
	for _, p := range c.Profiles {
		if err := p.Validate(); err != nil {
			return err
		}
		if profile.Valid(p.ID) {
			return fmt.Errorf("profile %s shadows a builtin profile", p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("profile %s defined twice", p.ID)
		}
		seen[p.ID] = true
	}

	for _, id := range []string{c.Defaults.ProfileA, c.Defaults.ProfileB} {
		if !profile.ValidWithStore(id, c) {
			return fmt.Errorf("unknown default profile %q", id)
		}
	}
	return nil
}

// GetProfile returns a custom profile defined in the config file.
func (c *Config) GetProfile(id string) (*profile.Profile, error) {
	for _, p := range c.Profiles {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, fmt.Errorf("profile %s not found in config", id)
}

// AllProfiles lists builtin profiles followed by custom ones.
func (c *Config) AllProfiles() []profile.Profile {
	return append(profile.DefaultProfiles(), c.Profiles...)
}

// LogLevel maps the configured level name to a slog level.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo saves the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "parley.yaml"
	}
	return filepath.Join(home, ".parley", "config.yaml")
}

// GenerateExample generates an example configuration file.
func GenerateExample() string {
	return `# parley configuration file
# Place this file at ~/.parley/config.yaml

defaults:
  max_rounds: 50            # Round cap per negotiation
  corpus_size: 10           # Generated catalog size (rounded down to a multiple of 10)
  profile_a: random         # Profile of the first party
  profile_b: random         # Profile of the second party
  catalog: ""               # YAML catalog file (empty = generated engine corpus)

storage:
  path: ""                  # SQLite database (empty = ~/.parley/parley.db)

server:
  port: 8182

log:
  level: info               # debug, info, warn, error

# Custom profiles (optional). The ranking lists all six criteria, most
# important first.
profiles:
  - id: city_driver
    name: City Driver
    description: Quiet and cheap to run in town
    ranking:
      - NOISE
      - COST_PER_KM
      - ENVIRONMENT_IMPACT
      - CONSUMPTION
      - PRODUCTION_COST
      - DURABILITY
`
}
