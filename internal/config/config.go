// Package config handles the XDG configuration directory and the optional
// config.yaml inside it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "taskflow"

	// ConfigFile is the optional settings file in the config directory.
	ConfigFile = "config.yaml"

	// DBFile is the reference server's database filename.
	DBFile = "taskflow.sqlite"

	// LogFile is written under logs/ while the terminal UI owns the screen.
	LogFile = "taskflow.log"
)

// Defaults for the settings in config.yaml.
const (
	DefaultBaseURL   = "http://127.0.0.1:8000"
	DefaultUpdateURL = "/update-task/"
	DefaultTimeout   = 5 * time.Second
)

// File models config.yaml.
type File struct {
	BaseURL   string        `yaml:"base_url"`
	UpdateURL string        `yaml:"update_url"`
	CSRFToken string        `yaml:"csrf_token"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// BaseURL is the task server's root URL.
	BaseURL string

	// UpdateURL is the update endpoint, relative to BaseURL unless absolute.
	UpdateURL string

	// CSRFToken, when set, is used instead of the token found in pages.
	CSRFToken string

	// Timeout bounds each request to the server.
	Timeout time.Duration
}

// New creates a new Config with the default or specified config directory
// and applies config.yaml from it when present.
// If configDir is empty, uses XDG_CONFIG_HOME/taskflow or $HOME/.config/taskflow.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	c := &Config{
		Dir:       dir,
		BaseURL:   DefaultBaseURL,
		UpdateURL: DefaultUpdateURL,
		Timeout:   DefaultTimeout,
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) load() error {
	data, err := os.ReadFile(c.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", ConfigFile, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	if s := strings.TrimSpace(f.BaseURL); s != "" {
		c.BaseURL = s
	}
	if s := strings.TrimSpace(f.UpdateURL); s != "" {
		c.UpdateURL = s
	}
	c.CSRFToken = strings.TrimSpace(f.CSRFToken)
	if f.Timeout < 0 {
		return fmt.Errorf("invalid %s: timeout must not be negative", ConfigFile)
	}
	if f.Timeout > 0 {
		c.Timeout = f.Timeout
	}
	return nil
}

// Save writes the current settings to config.yaml.
func (c *Config) Save() error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(File{
		BaseURL:   c.BaseURL,
		UpdateURL: c.UpdateURL,
		CSRFToken: c.CSRFToken,
		Timeout:   c.Timeout,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(c.Path(), data, 0600)
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Path returns the path to config.yaml.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// DBPath returns the default path of the server database.
func (c *Config) DBPath() string {
	return filepath.Join(c.Dir, DBFile)
}

// LogsDir returns the directory holding log files.
func (c *Config) LogsDir() string {
	return filepath.Join(c.Dir, "logs")
}

// LogPath returns the path of the terminal UI's log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), LogFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}
