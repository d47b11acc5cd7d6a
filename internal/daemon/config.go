// Package daemon manages the MapGrid daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Maps      MapsConfig      `toml:"maps"`
	Storage   StorageConfig   `toml:"storage"`
	Tasks     TasksConfig     `toml:"tasks"`
	Agent     AgentConfig     `toml:"agent"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host   string `toml:"host"`
	Port   int    `toml:"port"`
	APIKey string `toml:"api_key"`
}

// MapsConfig controls the upstream mapping provider client.
type MapsConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// StorageConfig selects the task store backend.
type StorageConfig struct {
	// Backend is "memory" (volatile, the reference behavior) or "sqlite".
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
}

// TasksConfig controls task retention.
type TasksConfig struct {
	// TTL evicts terminal tasks from the memory store after this duration.
	// Empty or "0" keeps records forever, matching the reference behavior.
	TTL string `toml:"ttl"`
}

// AgentConfig identifies this agent on its capability card.
type AgentConfig struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Contact     string `toml:"contact"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8000,
		},
		Maps: MapsConfig{
			Timeout: "10s",
		},
		Storage: StorageConfig{
			Backend: "memory",
			Dir:     filepath.Join(mapgridHome(), "data"),
		},
		Agent: AgentConfig{
			Name:        "MapGrid A2A",
			Description: "An A2A-compliant agent that provides mapping capabilities",
			Contact:     "https://github.com/mapgrid-network/mapgrid",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads config from $MAPGRID_HOME/config.toml, falling back to
// defaults, then applies environment overrides for the two secrets.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(mapgridHome(), "config.toml")

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	// Secrets prefer the environment over the config file.
	if v := os.Getenv("MAPGRID_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("GOOGLE_MAPS_API_KEY"); v != "" {
		cfg.Maps.APIKey = v
	}

	return cfg, nil
}

// SaveConfig writes the config to $MAPGRID_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(mapgridHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// mapgridHome returns the MapGrid data directory.
func mapgridHome() string {
	if env := os.Getenv("MAPGRID_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mapgrid")
}

// MapgridHome is exported for use by other packages.
func MapgridHome() string {
	return mapgridHome()
}

// parseDuration parses a config duration string with a fallback.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
