// Package config loads the funnel service's YAML configuration file. CLI
// flags cover the HTTP-server knobs; this file covers service settings:
// storage location, webhooks, auth, analytics refresh, and the optional
// remote content source.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CMS configures the optional remote content source the published quiz can
// be fetched from.
type CMS struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Config represents the service configuration file.
type Config struct {
	StorageDir      string        `yaml:"storage_dir"`
	WebhookURL      string        `yaml:"webhook_url"`
	WebhookSecret   string        `yaml:"webhook_secret"`
	AdminSecret     string        `yaml:"admin_secret"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	CMS             CMS           `yaml:"cms"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		StorageDir:      "data",
		RefreshInterval: 30 * time.Second,
	}
}

// Load reads the config from path. An empty path or a missing file yields
// the defaults; a file that exists but does not parse is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "data"
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 30 * time.Second
	}
	return cfg, nil
}

// SnapshotPath returns the path of the editor state snapshot file.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.StorageDir, "state.json")
}

// JournalPath returns the path of the analytics event journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.StorageDir, "events.json")
}
