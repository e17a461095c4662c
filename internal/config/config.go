package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config models config.yml.
type Config struct {
	Zebra struct {
		URL    string `yaml:"url" json:"url"`
		Token  string `yaml:"token" json:"token"`
		UserID int    `yaml:"user_id" json:"user_id"`
	} `yaml:"zebra" json:"zebra"`
	Timezone string `yaml:"timezone" json:"timezone"`
	Storage  struct {
		Driver string `yaml:"driver" json:"driver"`
		Dir    string `yaml:"dir" json:"dir"`
	} `yaml:"storage" json:"storage"`
	// Aliases map short names to activity references.
	Aliases map[string]string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Keys lists the settings accepted by Get and Set, besides aliases.<name>.
var Keys = []string{"zebra.url", "zebra.token", "zebra.user_id", "timezone", "storage.driver", "storage.dir"}

// DefaultPath is $ZEBRA_CONFIG, or ~/.config/zebra/config.yml.
func DefaultPath() string {
	if p := os.Getenv("ZEBRA_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "zebra", "config.yml")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// Load reads and validates the config at path; a missing file yields Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Unset fields
// keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config.timezone %q is not a known time zone", c.Timezone)
	}
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("config.storage.driver must be %q or %q, got %q", DriverFile, DriverSQLite, c.Storage.Driver)
	}
	if c.Zebra.URL != "" {
		u, err := url.Parse(c.Zebra.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config.zebra.url %q must be an absolute http(s) url", c.Zebra.URL)
		}
	}
	if c.Zebra.UserID < 0 {
		return fmt.Errorf("config.zebra.user_id must be positive")
	}
	for alias, target := range c.Aliases {
		if strings.TrimSpace(alias) == "" || strings.TrimSpace(target) == "" {
			return fmt.Errorf("config.aliases has an empty entry")
		}
	}
	return nil
}

// Location loads the configured time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DataDir is the storage directory with a leading ~ expanded.
func (c *Config) DataDir() string {
	dir := c.Storage.Dir
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return dir
}

// Get returns the value of a setting as text.
func (c *Config) Get(key string) (string, error) {
	if name, ok := strings.CutPrefix(key, "aliases."); ok {
		return c.Aliases[name], nil
	}
	switch key {
	case "zebra.url":
		return c.Zebra.URL, nil
	case "zebra.token":
		return c.Zebra.Token, nil
	case "zebra.user_id":
		return strconv.Itoa(c.Zebra.UserID), nil
	case "timezone":
		return c.Timezone, nil
	case "storage.driver":
		return c.Storage.Driver, nil
	case "storage.dir":
		return c.Storage.Dir, nil
	}
	return "", fmt.Errorf("unknown config key %q (known: %s, aliases.<name>)", key, strings.Join(Keys, ", "))
}

// Set changes one setting and validates the result. An empty value removes an alias.
func (c *Config) Set(key, value string) error {
	next := *c
	next.Aliases = make(map[string]string, len(c.Aliases))
	for k, v := range c.Aliases {
		next.Aliases[k] = v
	}
	if name, ok := strings.CutPrefix(key, "aliases."); ok {
		if value == "" {
			delete(next.Aliases, name)
		} else {
			next.Aliases[name] = value
		}
	} else {
		switch key {
		case "zebra.url":
			next.Zebra.URL = value
		case "zebra.token":
			next.Zebra.Token = value
		case "zebra.user_id":
			id, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("zebra.user_id must be an integer")
			}
			next.Zebra.UserID = id
		case "timezone":
			next.Timezone = value
		case "storage.driver":
			next.Storage.Driver = value
		case "storage.dir":
			next.Storage.Dir = value
		default:
			_, err := c.Get(key)
			return err
		}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// AliasNames returns the configured aliases in order.
func (c *Config) AliasNames() []string {
	names := make([]string, 0, len(c.Aliases))
	for k := range c.Aliases {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Save writes the config as YAML, creating the directory.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

const defaultTemplate = `zebra:
  url: ""
  token: ""
  user_id: 0
timezone: Local
storage:
  driver: file
  dir: ~/.local/share/zebra
`
