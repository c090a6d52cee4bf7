// Package config loads promptdex configuration. Precedence, lowest first:
// built-in defaults, the user config (~/.config/promptdex/config.yaml), the
// project config (.promptdex.yaml in the working directory), PROMPTDEX_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	pdexerrors "github.com/promptdex/promptdex/internal/errors"
)

// Config is the complete promptdex configuration.
type Config struct {
	Version int           `yaml:"version"`
	DataDir string        `yaml:"data_dir"`
	Storage StorageConfig `yaml:"storage"`
	Index   IndexConfig   `yaml:"index"`
	Persist PersistConfig `yaml:"persist"`
	Watch   WatchConfig   `yaml:"watch"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects the durable key-value backend.
type StorageConfig struct {
	// Backend is one of "badger", "sqlite", "memory".
	Backend string `yaml:"backend"`
	// Path overrides the backend's location under DataDir.
	Path string `yaml:"path"`
}

// IndexConfig tunes the indexing engine.
type IndexConfig struct {
	// MaxTextLen caps extracted entry text in runes.
	MaxTextLen int `yaml:"max_text_len"`
}

// PersistConfig tunes the persistence adapter.
type PersistConfig struct {
	// Namespace prefixes every storage key.
	Namespace string `yaml:"namespace"`
	// DebounceWindow is the save quiescence window, e.g. "500ms".
	DebounceWindow string `yaml:"debounce_window"`
}

// WatchConfig tunes the observation fallbacks.
type WatchConfig struct {
	// PollInterval is the address poll frequency, e.g. "800ms".
	PollInterval string `yaml:"poll_interval"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Stderr bool   `yaml:"stderr"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		DataDir: defaultDataDir(),
		Storage: StorageConfig{Backend: "badger"},
		Index:   IndexConfig{MaxTextLen: 4000},
		Persist: PersistConfig{Namespace: "promptdex", DebounceWindow: "500ms"},
		Watch:   WatchConfig{PollInterval: "800ms"},
		Log:     LogConfig{Level: "info"},
	}
}

// DebounceDuration parses the configured save window.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Persist.DebounceWindow)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// PollDuration parses the configured poll interval.
func (c *Config) PollDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.PollInterval)
	if err != nil || d <= 0 {
		return 800 * time.Millisecond
	}
	return d
}

// StoragePath returns the backend location, defaulting under DataDir.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	switch c.Storage.Backend {
	case "sqlite":
		return filepath.Join(c.DataDir, "promptdex.db")
	default:
		return filepath.Join(c.DataDir, "badger")
	}
}

// Load builds the effective configuration for a working directory.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	userPath := GetUserConfigPath()
	if fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadProjectFile(dir); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetUserConfigPath returns the user configuration file path, honoring
// XDG_CONFIG_HOME.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "promptdex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "promptdex", "config.yaml")
	}
	return filepath.Join(home, ".config", "promptdex", "config.yaml")
}

func (c *Config) loadProjectFile(dir string) error {
	for _, name := range []string{".promptdex.yaml", ".promptdex.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return pdexerrors.Wrap(pdexerrors.ErrCodeConfigNotFound, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return pdexerrors.Wrap(pdexerrors.ErrCodeConfigInvalid, err)
	}
	return nil
}

// applyEnvOverrides applies PROMPTDEX_* environment variables, the highest
// precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PROMPTDEX_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PROMPTDEX_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("PROMPTDEX_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("PROMPTDEX_NAMESPACE"); v != "" {
		c.Persist.Namespace = v
	}
	if v := os.Getenv("PROMPTDEX_DEBOUNCE_WINDOW"); v != "" {
		c.Persist.DebounceWindow = v
	}
	if v := os.Getenv("PROMPTDEX_POLL_INTERVAL"); v != "" {
		c.Watch.PollInterval = v
	}
	if v := os.Getenv("PROMPTDEX_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PROMPTDEX_MAX_TEXT_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Index.MaxTextLen = n
		}
	}
}

// Validate checks the final configuration.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "badger", "sqlite", "memory":
	default:
		return pdexerrors.New(pdexerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown storage backend %q (use badger, sqlite, or memory)", c.Storage.Backend), nil)
	}
	if c.Index.MaxTextLen <= 0 {
		return pdexerrors.New(pdexerrors.ErrCodeConfigInvalid, "index.max_text_len must be positive", nil)
	}
	if _, err := time.ParseDuration(c.Persist.DebounceWindow); err != nil {
		return pdexerrors.New(pdexerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid persist.debounce_window %q", c.Persist.DebounceWindow), err)
	}
	if _, err := time.ParseDuration(c.Watch.PollInterval); err != nil {
		return pdexerrors.New(pdexerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid watch.poll_interval %q", c.Watch.PollInterval), err)
	}
	if c.Persist.Namespace == "" {
		return pdexerrors.New(pdexerrors.ErrCodeConfigInvalid, "persist.namespace must not be empty", nil)
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".promptdex")
	}
	return filepath.Join(home, ".promptdex")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
