package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"uptimeboard/internal/models"
)

const (
	HistoryBackendJSON   = "json"
	HistoryBackendSQLite = "sqlite"
)

// Config represents configuration data for the checker and the dashboard.
type Config struct {
	DataDirectory    string          `yaml:"data_directory"`
	TargetsFile      string          `yaml:"targets_file"`
	Targets          []models.Target `yaml:"targets"`
	TimeoutSeconds   int             `yaml:"timeout_seconds"`
	FailThreshold    int             `yaml:"fail_threshold"`
	MaxHistoryEvents int             `yaml:"max_history_events"`
	UserAgent        string          `yaml:"user_agent"`
	HistoryBackend   string          `yaml:"history_backend"`
	Dashboard        Dashboard       `yaml:"dashboard"`
}

// Dashboard controls how the status page is fetched and rendered.
type Dashboard struct {
	Title       string `yaml:"title"`
	Source      string `yaml:"source"`
	ContainerID string `yaml:"container_id"`
	TimeZone    string `yaml:"time_zone"`
	TimeLayout  string `yaml:"time_layout"`
}

// DefaultConfig returns sensible defaults in case no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		DataDirectory:    filepath.Join("docs", "data"),
		TimeoutSeconds:   10,
		FailThreshold:    3,
		MaxHistoryEvents: 2000,
		UserAgent:        "uptimeboard",
		HistoryBackend:   HistoryBackendJSON,
		Dashboard: Dashboard{
			Title:       "Uptime",
			ContainerID: "status",
			TimeLayout:  "1/2/2006, 3:04:05 PM",
		},
	}
}

// Load reads configuration from yaml file. Missing files fall back to defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(content, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.normalize()
	if cfg.TargetsFile != "" {
		targets, err := loadTargets(cfg.TargetsFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Targets = append(cfg.Targets, targets...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Timeout returns the per-request check timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Location resolves the dashboard time zone. An empty zone means the process local zone.
func (c Config) Location() (*time.Location, error) {
	if c.Dashboard.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Dashboard.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", c.Dashboard.TimeZone, err)
	}
	return loc, nil
}

// SnapshotSource returns where the dashboard reads latest.json from.
func (c Config) SnapshotSource() string {
	if c.Dashboard.Source != "" {
		return c.Dashboard.Source
	}
	return filepath.Join(c.DataDirectory, "latest.json")
}

// Validate checks the invariants Load relies on.
func (c Config) Validate() error {
	switch c.HistoryBackend {
	case HistoryBackendJSON, HistoryBackendSQLite:
	default:
		return fmt.Errorf("unknown history_backend %q", c.HistoryBackend)
	}
	for i, t := range c.Targets {
		if strings.TrimSpace(t.URL) == "" {
			return fmt.Errorf("target %d is missing url", i)
		}
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("target %s must define a name", t.URL)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalize() {
	def := DefaultConfig()
	if c.DataDirectory == "" {
		c.DataDirectory = def.DataDirectory
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = def.TimeoutSeconds
	}
	if c.FailThreshold <= 0 {
		c.FailThreshold = def.FailThreshold
	}
	if c.MaxHistoryEvents <= 0 {
		c.MaxHistoryEvents = def.MaxHistoryEvents
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	c.HistoryBackend = strings.ToLower(strings.TrimSpace(c.HistoryBackend))
	if c.HistoryBackend == "" {
		c.HistoryBackend = def.HistoryBackend
	}
	if c.Dashboard.Title == "" {
		c.Dashboard.Title = def.Dashboard.Title
	}
	if c.Dashboard.ContainerID == "" {
		c.Dashboard.ContainerID = def.Dashboard.ContainerID
	}
	if c.Dashboard.TimeLayout == "" {
		c.Dashboard.TimeLayout = def.Dashboard.TimeLayout
	}
}

// loadTargets reads a JSON list of targets. A missing file yields no targets.
func loadTargets(path string) ([]models.Target, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	var targets []models.Target
	if err := json.Unmarshal(content, &targets); err != nil {
		return nil, fmt.Errorf("parse targets: %w", err)
	}
	return targets, nil
}
