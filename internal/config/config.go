package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/85.0.4183.121 Safari/537.36"
	DefaultReferer   = "https://www.google.com/"
	DefaultCacheFile = "cybersecnews.json"
)

type Config struct {
	Sources  Sources  `yaml:"sources"`
	Keywords []string `yaml:"keywords"`
	Filter   Filter   `yaml:"filter"`
	Fetch    Fetch    `yaml:"fetch"`
	Cache    Cache    `yaml:"cache"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type Sources struct {
	Feeds []Feed `yaml:"feeds"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Filter struct {
	WindowDays int `yaml:"window_days"`
}

type Fetch struct {
	Timeout   time.Duration `yaml:"timeout"`
	Workers   int           `yaml:"workers"`
	UserAgent string        `yaml:"user_agent"`
	Referer   string        `yaml:"referer"`
	MaxBytes  int64         `yaml:"max_bytes"`
}

type Cache struct {
	Path string `yaml:"path"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for cybernews.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "cybernews")
}

// DataDir returns the XDG data directory for cybernews.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "cybernews")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/cybernews/config.yaml > ./config.yaml.
// An empty path with a nil error means no file was found and the embedded
// default should be used.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path loads the embedded default.
func Load(path string) (*Config, error) {
	if path == "" {
		return parse(DefaultConfigYAML)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Filter: Filter{WindowDays: 30},
		Fetch: Fetch{
			Timeout:   10 * time.Second,
			Workers:   4,
			UserAgent: DefaultUserAgent,
			Referer:   DefaultReferer,
			MaxBytes:  10 * 1024 * 1024,
		},
		Server:  Server{Port: 8501},
		Logging: Logging{Level: "info"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the config can drive an ingestion run.
func (c *Config) Validate() error {
	if len(c.Sources.Feeds) == 0 {
		return errors.New("no feeds configured")
	}
	for i, feed := range c.Sources.Feeds {
		if strings.TrimSpace(feed.URL) == "" {
			return fmt.Errorf("feed #%d has an empty URL", i+1)
		}
	}

	if len(c.Keywords) == 0 {
		return errors.New("no keywords configured")
	}
	for i, keyword := range c.Keywords {
		if strings.TrimSpace(keyword) == "" {
			return fmt.Errorf("keyword #%d is empty", i+1)
		}
	}

	if c.Filter.WindowDays <= 0 {
		return fmt.Errorf("invalid recency window: %d days", c.Filter.WindowDays)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("invalid fetch timeout: %s", c.Fetch.Timeout)
	}
	if c.Fetch.Workers <= 0 {
		return fmt.Errorf("invalid number of fetch workers: %d", c.Fetch.Workers)
	}

	return nil
}

// GetCachePath returns the effective cache file path from config or the XDG data directory.
func (c *Config) GetCachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(DataDir(), DefaultCacheFile)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
