package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/riskaudit/pkg/storage"
	"gopkg.in/yaml.v3"
)

const configFile = "config.yaml"

const (
	DriverFilesystem = "filesystem"
	DriverMemory     = "memory"
	DriverBadger     = "badger"
	DriverSQLite     = "sqlite"
)

// EnvLogLevel overrides log.level when set.
const EnvLogLevel = "RISKAUDIT_LOG_LEVEL"

type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SelectionConfig struct {
	ProposalSize int `yaml:"proposal_size"`
}

// JiraConfig holds the issue tracker connection. Blank fields fall back to
// the JIRA_* environment variables when the client is built.
type JiraConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Domain     string `yaml:"domain"`
	ProjectKey string `yaml:"project_key"`
	Email      string `yaml:"email"`
	APIToken   string `yaml:"api_token"`
	IssueType  string `yaml:"issue_type"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Config is the workspace configuration stored in .riskaudit/config.yaml.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`
	Selection SelectionConfig `yaml:"selection"`
	Jira      JiraConfig      `yaml:"jira"`
	Watch     WatchConfig     `yaml:"watch"`
}

func Default() *Config {
	return &Config{
		Store:     StoreConfig{Driver: DriverFilesystem},
		Log:       LogConfig{Level: "info", Format: "text"},
		Selection: SelectionConfig{ProposalSize: 10},
		Jira:      JiraConfig{IssueType: "Task"},
		Watch:     WatchConfig{Debounce: 500 * time.Millisecond},
	}
}

// Path returns the location of the config file for a workspace root.
func Path(root string) string {
	return filepath.Join(root, storage.RiskauditDir, configFile)
}

// Load reads the workspace config. A missing file yields the defaults.
func Load(root string) (*Config, error) {
	cfg := Default()

	// #nosec G304 -- path is built from the workspace root
	data, err := os.ReadFile(Path(root))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Log.Level = level
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if err := cfg.normalize(); err != nil {
		return err
	}

	path := Path(root)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) normalize() error {
	defaults := Default()

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = defaults.Store.Driver
	}
	switch c.Store.Driver {
	case DriverFilesystem, DriverMemory, DriverBadger, DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q (want filesystem, memory, badger or sqlite)", c.Store.Driver)
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}

	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}

	if c.Selection.ProposalSize <= 0 {
		c.Selection.ProposalSize = defaults.Selection.ProposalSize
	}
	if c.Jira.IssueType == "" {
		c.Jira.IssueType = defaults.Jira.IssueType
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = defaults.Watch.Debounce
	}
	return nil
}

// StorePath resolves the on-disk location for the badger and sqlite drivers.
// Relative paths are taken from the workspace root.
func (c *Config) StorePath(root string) string {
	path := c.Store.Path
	if path == "" {
		switch c.Store.Driver {
		case DriverBadger:
			path = filepath.Join(storage.RiskauditDir, "badger")
		case DriverSQLite:
			path = filepath.Join(storage.RiskauditDir, "riskaudit.db")
		default:
			return ""
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
