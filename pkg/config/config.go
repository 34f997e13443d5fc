package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the non-follower report
type Config struct {
	// Instagram account and session
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Request pacing
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// HTTP client settings
	Client ClientConfig `yaml:"client" json:"client"`

	// Report output
	Output OutputConfig `yaml:"output" json:"output"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds the account credentials and session location
type InstagramConfig struct {
	Username    string `yaml:"username" json:"username"`
	Password    string `yaml:"password" json:"password"`
	SessionFile string `yaml:"session_file" json:"session_file"`
	UserAgent   string `yaml:"user_agent" json:"user_agent"`
}

// PacingConfig holds the randomized delay bounds, in seconds
type PacingConfig struct {
	MinDelay          float64 `yaml:"min_delay" json:"min_delay"`
	MaxDelay          float64 `yaml:"max_delay" json:"max_delay"`
	LongMultiplier    float64 `yaml:"long_multiplier" json:"long_multiplier"`
	RequestsPerMinute int     `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// ClientConfig holds HTTP client settings
type ClientConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	PageSize       int           `yaml:"page_size" json:"page_size"`
}

// OutputConfig holds report output settings
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			SessionFile: "session.json",
			UserAgent:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Pacing: PacingConfig{
			MinDelay:          1.0,
			MaxDelay:          3.0,
			LongMultiplier:    3.0,
			RequestsPerMinute: 30,
		},
		Client: ClientConfig{
			RequestTimeout: 30 * time.Second,
			PageSize:       100,
		},
		Output: OutputConfig{
			Directory: "output",
		},
		Notifications: NotificationConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("INSTAGRAM_USERNAME"); v != "" {
		c.Instagram.Username = v
	}
	if v := os.Getenv("INSTAGRAM_PASSWORD"); v != "" {
		c.Instagram.Password = v
	}
	if v := os.Getenv("SESSION_FILE"); v != "" {
		c.Instagram.SessionFile = v
	}
	if v := os.Getenv("INSTAGRAM_USER_AGENT"); v != "" {
		c.Instagram.UserAgent = v
	}

	if v := os.Getenv("MIN_DELAY"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MIN_DELAY: %w", err))
		} else {
			c.Pacing.MinDelay = f
		}
	}
	if v := os.Getenv("MAX_DELAY"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_DELAY: %w", err))
		} else {
			c.Pacing.MaxDelay = f
		}
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT: %w", err))
		} else {
			c.Client.RequestTimeout = d
		}
	}

	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		c.Output.Directory = v
	}
	if v := os.Getenv("NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// parseDuration accepts Go durations ("45s") and plain seconds ("45")
func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in the standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".ignonfollowers.yaml",
		".ignonfollowers.yml",
		filepath.Join(home, ".config", "ignonfollowers", "config.yaml"),
		filepath.Join(home, ".config", "ignonfollowers", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
// Credentials are not required here: the authenticator reports them as a
// config error before any network call, which keeps `config show` usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Instagram.SessionFile == "" {
		errs = append(errs, errors.New("session file path is required"))
	}

	if c.Pacing.MinDelay < 0 {
		errs = append(errs, errors.New("min delay cannot be negative"))
	}
	if c.Pacing.MaxDelay < c.Pacing.MinDelay {
		errs = append(errs, errors.New("max delay must be greater than or equal to min delay"))
	}
	if c.Pacing.LongMultiplier <= 0 {
		errs = append(errs, errors.New("long multiplier must be positive"))
	}
	if c.Pacing.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Client.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Client.PageSize <= 0 || c.Client.PageSize > 200 {
		errs = append(errs, errors.New("page size must be between 1 and 200"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "warning": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level: %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// HasCredentials reports whether both username and password are set
func (c *Config) HasCredentials() bool {
	return c.Instagram.Username != "" && c.Instagram.Password != ""
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Masked returns a copy safe for display
func (c *Config) Masked() *Config {
	m := *c
	if m.Instagram.Password != "" {
		m.Instagram.Password = "********"
	}
	return &m
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["session-file"].(string); ok && v != "" {
		c.Instagram.SessionFile = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.Directory = v
	}
	if v, ok := flags["min-delay"].(float64); ok && v >= 0 {
		c.Pacing.MinDelay = v
	}
	if v, ok := flags["max-delay"].(float64); ok && v >= 0 {
		c.Pacing.MaxDelay = v
	}
	if v, ok := flags["request-timeout"].(time.Duration); ok && v > 0 {
		c.Client.RequestTimeout = v
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".ignonfollowers.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
