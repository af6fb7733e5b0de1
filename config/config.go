package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	AppName  = "dysaccess"
	fileName = "config.yaml"
)

type Store struct {
	Backend string `yaml:"backend"` // memory | sqlite | diskv | remote
	Path    string `yaml:"path,omitempty"`
	URL     string `yaml:"url,omitempty"`
	Key     string `yaml:"-"`
	Table   string `yaml:"table,omitempty"`
}

type Speech struct {
	Provider   string        `yaml:"provider"` // groq | openai
	Endpoint   string        `yaml:"endpoint,omitempty"`
	Model      string        `yaml:"model,omitempty"`
	Language   string        `yaml:"language"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	AutoPaste  bool          `yaml:"auto_paste"`
	APIKey     string        `yaml:"-"`
}

type Config struct {
	AlwaysOnTop bool   `yaml:"always_on_top"`
	AutoLaunch  bool   `yaml:"auto_launch"`
	Capacity    int    `yaml:"capacity"`
	Hotkey      bool   `yaml:"hotkey"`
	UI          string `yaml:"ui"` // tui | gui | tray
	Store       Store  `yaml:"store"`
	Speech      Speech `yaml:"speech"`

	path string
}

func Default() *Config {
	return &Config{
		AlwaysOnTop: true,
		Capacity:    6,
		Hotkey:      true,
		UI:          "tui",
		Store:       Store{Backend: "sqlite", Table: "shortcuts"},
		Speech: Speech{
			Provider:   "groq",
			Language:   "fr",
			RetryDelay: 2 * time.Second,
		},
	}
}

// Dir returns the per-user directory holding the config file and local stores.
func Dir() (string, error) {
	if p := os.Getenv("DYSACCESS_CONFIG"); p != "" {
		return filepath.Dir(p), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

func defaultPath() (string, error) {
	if p := os.Getenv("DYSACCESS_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the config file at path (or the default location when empty).
// A missing file yields defaults. Secrets come from the environment only.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = defaultPath(); err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
	}
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DYSACCESS_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("DYSACCESS_SUPABASE_URL"); v != "" {
		c.Store.URL = v
	}
	c.Store.Key = os.Getenv("DYSACCESS_SUPABASE_KEY")

	switch c.Speech.Provider {
	case "openai":
		c.Speech.APIKey = os.Getenv("OPENAI_API_KEY")
	default:
		c.Speech.APIKey = os.Getenv("GROQ_API_KEY")
	}
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "memory", "sqlite", "diskv":
	case "remote":
		if c.Store.URL == "" {
			return fmt.Errorf("store backend remote needs store.url or DYSACCESS_SUPABASE_URL")
		}
	default:
		return fmt.Errorf("unknown store backend %q (use memory, sqlite, diskv or remote)", c.Store.Backend)
	}
	switch c.Speech.Provider {
	case "groq", "openai":
	default:
		return fmt.Errorf("unknown speech provider %q (use groq or openai)", c.Speech.Provider)
	}
	switch c.UI {
	case "tui", "gui", "tray":
	default:
		return fmt.Errorf("unknown ui %q (use tui, gui or tray)", c.UI)
	}
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must be >= 0")
	}
	return nil
}

func (c *Config) Path() string { return c.path }

// DataDir is where local stores live: next to the config file.
func (c *Config) DataDir() string {
	return filepath.Dir(c.path)
}

// Save writes the config atomically.
func (c *Config) Save() error {
	if c.path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		c.path = p
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp, c.path)
}
