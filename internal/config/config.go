package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Tail   TailConfig   `yaml:"tail"`
	Server ServerConfig `yaml:"server"`
}

// TailConfig contains tail-engine settings.
type TailConfig struct {
	// BackfillLines is the number of lines delivered to a subscriber at
	// attach time, before live events begin.
	BackfillLines int `yaml:"backfill_lines"`
	// Poll forces the polling watch fallback instead of native
	// filesystem change notification.
	Poll bool `yaml:"poll"`
	// WatchRoots lists directories the HTTP file-listing endpoint
	// (/api/files) may expose. It does not restrict which paths a watch
	// control message may name.
	WatchRoots []string `yaml:"watch_roots"`
}

// ServerConfig contains the outward HTTP/WebSocket surface settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoadConfig loads configuration from a YAML file. A missing file is
// not an error: the default configuration is returned instead.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), nil
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Tail: TailConfig{
			BackfillLines: 10,
			Poll:          false,
			WatchRoots:    []string{"/var/log"},
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
	}
}
