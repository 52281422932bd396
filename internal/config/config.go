package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	werrors "github.com/opentangerine/watch/internal/errors"
)

// Environment variable prefix for overrides.
const EnvPrefix = "TANGERINE_WATCH_"

// Project config file names, in lookup order.
var projectConfigNames = []string{".tangerine-watch.yaml", ".tangerine-watch.yml"}

// Config represents the complete tangerine-watch configuration.
type Config struct {
	Version int          `yaml:"version" json:"version"`
	Watch   WatchConfig  `yaml:"watch" json:"watch"`
	Output  OutputConfig `yaml:"output" json:"output"`
	Log     LogConfig    `yaml:"log" json:"log"`
}

// WatchConfig configures the watch session.
// Durations are Go duration strings ("250ms", "3s").
type WatchConfig struct {
	// Root is the directory to watch. Empty means the current directory.
	Root string `yaml:"root" json:"root"`

	// PollInterval bounds one native poll. Default: "250ms"
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`

	// AwaitTimeout bounds the wait for registration. Default: "3s"
	AwaitTimeout string `yaml:"await_timeout" json:"await_timeout"`

	// CloseTimeout bounds shutdown. Default: "1s"
	CloseTimeout string `yaml:"close_timeout" json:"close_timeout"`

	// FollowNewDirs watches directories created after registration.
	// Default: true
	FollowNewDirs bool `yaml:"follow_new_dirs" json:"follow_new_dirs"`

	// Recovery re-registers the root after it is deleted. Default: true
	Recovery bool `yaml:"recovery" json:"recovery"`

	// Lock takes a per-root lock so only one CLI instance watches a root.
	// Default: true
	Lock bool `yaml:"lock" json:"lock"`
}

// OutputConfig configures how changes are printed.
type OutputConfig struct {
	// Format is "text" or "json". Default: "text"
	Format string `yaml:"format" json:"format"`

	// Color is "auto", "always" or "never". Default: "auto"
	Color string `yaml:"color" json:"color"`
}

// LogConfig configures file logging.
type LogConfig struct {
	// Level is debug, info, warn or error. Default: "info"
	Level string `yaml:"level" json:"level"`

	// MaxSizeMB is the log size that triggers rotation. Default: 10
	MaxSizeMB int `yaml:"max_size_mb" json:"max_size_mb"`

	// MaxFiles is the number of rotated logs to keep. Default: 5
	MaxFiles int `yaml:"max_files" json:"max_files"`
}

// Durations holds the parsed duration fields of WatchConfig.
type Durations struct {
	PollInterval time.Duration
	AwaitTimeout time.Duration
	CloseTimeout time.Duration
}

var (
	validFormats = []string{"text", "json"}
	validColors  = []string{"auto", "always", "never"}
	validLevels  = []string{"debug", "info", "warn", "error"}
)

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Watch: WatchConfig{
			Root:          "",
			PollInterval:  "250ms",
			AwaitTimeout:  "3s",
			CloseTimeout:  "1s",
			FollowNewDirs: true,
			Recovery:      true,
			Lock:          true,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  "auto",
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/tangerine-watch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/tangerine-watch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tangerine-watch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "tangerine-watch", "config.yaml")
	}
	return filepath.Join(home, ".config", "tangerine-watch", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// FindProjectConfig returns the project config file in dir, or "" if none.
// .yaml takes precedence over .yml.
func FindProjectConfig(dir string) string {
	for _, name := range projectConfigNames {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/tangerine-watch/config.yaml)
//  3. Project config (.tangerine-watch.yaml in dir)
//  4. Environment variables (TANGERINE_WATCH_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	if path := FindProjectConfig(dir); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadUserConfig loads the user configuration file on top of the defaults.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	return LoadFile(path)
}

// LoadFile loads a single config file on top of the defaults, without
// environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML decodes path on top of c. Keys absent from the file keep their
// current values, so an explicit false overrides a true default.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return werrors.New(werrors.ErrCodeConfigNotFound, "read config file", err).
			WithDetail("path", path)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return werrors.ConfigError("parse config file", err).
			WithDetail("path", path).
			WithSuggestion("Check the YAML syntax, or regenerate it with 'tangerine-watch config init --force'")
	}
	return nil
}

// applyEnvOverrides applies TANGERINE_WATCH_* environment variable overrides.
// Unparseable boolean values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvPrefix + "ROOT"); v != "" {
		c.Watch.Root = v
	}
	if v := os.Getenv(EnvPrefix + "POLL_INTERVAL"); v != "" {
		c.Watch.PollInterval = v
	}
	if v := os.Getenv(EnvPrefix + "AWAIT_TIMEOUT"); v != "" {
		c.Watch.AwaitTimeout = v
	}
	if v := os.Getenv(EnvPrefix + "CLOSE_TIMEOUT"); v != "" {
		c.Watch.CloseTimeout = v
	}
	if b, ok := envBool(EnvPrefix + "FOLLOW_NEW_DIRS"); ok {
		c.Watch.FollowNewDirs = b
	}
	if b, ok := envBool(EnvPrefix + "RECOVERY"); ok {
		c.Watch.Recovery = b
	}
	if b, ok := envBool(EnvPrefix + "LOCK"); ok {
		c.Watch.Lock = b
	}
	if v := os.Getenv(EnvPrefix + "FORMAT"); v != "" {
		c.Output.Format = strings.ToLower(v)
	}
	if v := os.Getenv(EnvPrefix + "COLOR"); v != "" {
		c.Output.Color = strings.ToLower(v)
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// ParseDurations parses the duration strings of the watch section.
func (c *Config) ParseDurations() (Durations, error) {
	var d Durations
	fields := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"watch.poll_interval", c.Watch.PollInterval, &d.PollInterval},
		{"watch.await_timeout", c.Watch.AwaitTimeout, &d.AwaitTimeout},
		{"watch.close_timeout", c.Watch.CloseTimeout, &d.CloseTimeout},
	}

	for _, f := range fields {
		parsed, err := time.ParseDuration(f.value)
		if err != nil {
			return Durations{}, werrors.ConfigError(fmt.Sprintf("%s is not a duration: %q", f.key, f.value), err).
				WithDetail("field", f.key)
		}
		if parsed <= 0 {
			return Durations{}, werrors.ConfigError(fmt.Sprintf("%s must be positive, got %s", f.key, f.value), nil).
				WithDetail("field", f.key)
		}
		*f.dst = parsed
	}
	return d, nil
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return werrors.ConfigError(fmt.Sprintf("unsupported config version %d", c.Version), nil).
			WithDetail("field", "version")
	}

	if _, err := c.ParseDurations(); err != nil {
		return err
	}

	if !slices.Contains(validFormats, strings.ToLower(c.Output.Format)) {
		return werrors.ConfigError(fmt.Sprintf("output.format must be 'text' or 'json', got %s", c.Output.Format), nil).
			WithDetail("field", "output.format")
	}
	if !slices.Contains(validColors, strings.ToLower(c.Output.Color)) {
		return werrors.ConfigError(fmt.Sprintf("output.color must be 'auto', 'always' or 'never', got %s", c.Output.Color), nil).
			WithDetail("field", "output.color")
	}
	if !slices.Contains(validLevels, strings.ToLower(c.Log.Level)) {
		return werrors.ConfigError(fmt.Sprintf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level), nil).
			WithDetail("field", "log.level")
	}

	if c.Log.MaxSizeMB < 0 {
		return werrors.ConfigError(fmt.Sprintf("log.max_size_mb must be non-negative, got %d", c.Log.MaxSizeMB), nil)
	}
	if c.Log.MaxFiles < 0 {
		return werrors.ConfigError(fmt.Sprintf("log.max_files must be non-negative, got %d", c.Log.MaxFiles), nil)
	}

	return nil
}

// ResolveRoot returns the absolute watch root, using dir when Root is empty.
// A relative Root is taken relative to dir.
func (c *Config) ResolveRoot(dir string) (string, error) {
	root := c.Watch.Root
	switch {
	case root == "":
		root = dir
	case !filepath.IsAbs(root):
		root = filepath.Join(dir, root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", werrors.New(werrors.ErrCodeInvalidInput, "resolve watch root", err).
			WithDetail("root", root)
	}
	return abs, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
