package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = zerr.New("invalid config")

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// RateLimitConfig is the token bucket applied to /api requests per client.
// RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" json:"rps"`
	Burst int     `yaml:"burst" json:"burst"`
}

// TelegramConfig sends the daily digest to one Telegram chat.
type TelegramConfig struct {
	Token  string `yaml:"token" json:"token"`
	ChatID int64  `yaml:"chat_id" json:"chat_id"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone that decides what "today" is.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path" json:"db_path"`

	// ReminderCron is a 5-field cron spec for the daily digest. Empty
	// disables reminders.
	ReminderCron string `yaml:"reminder_cron" json:"reminder_cron"`

	// Telegram, if non-nil, delivers reminder digests to a chat instead of
	// the log.
	Telegram *TelegramConfig `yaml:"telegram,omitempty" json:"telegram,omitempty"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// MaxRangeDays bounds the span accepted by range queries.
	MaxRangeDays int `yaml:"max_range_days" json:"max_range_days"`

	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen       = "127.0.0.1:8080"
	defaultDBPath       = "./var/chorecal.db"
	defaultReminderCron = "0 7 * * *"
	defaultMaxRangeDays = 366
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       defaultListen,
		Timezone:     "Local",
		DBPath:       defaultDBPath,
		ReminderCron: defaultReminderCron,
		LogLevel:     "info",
		MaxRangeDays: defaultMaxRangeDays,
		RateLimit:    RateLimitConfig{RPS: 10, Burst: 20},
	}
}

// Normalize fills in missing/zero values so partially-filled configs still
// behave correctly. ReminderCron is left alone: empty means disabled.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.DBPath == "" {
		c.DBPath = defaultDBPath
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxRangeDays <= 0 || c.MaxRangeDays > defaultMaxRangeDays {
		c.MaxRangeDays = defaultMaxRangeDays
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = int(c.RateLimit.RPS) + 1
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.Password == "" {
		c.BasicAuth = nil
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate reports settings that Normalize cannot repair.
func (c *Config) Validate() error {
	if c.Timezone != "" && c.Timezone != "Local" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return zerr.With(zerr.Wrap(ErrInvalidConfig, "unknown timezone"), "timezone", c.Timezone)
		}
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "" || c.BasicAuth.Password == "") {
		return zerr.Wrap(ErrInvalidConfig, "basic_auth needs both username and password")
	}
	if c.Telegram != nil && (c.Telegram.Token == "" || c.Telegram.ChatID == 0) {
		return zerr.Wrap(ErrInvalidConfig, "telegram needs both token and chat_id")
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is decoded, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, zerr.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Caller decides whether an unsaved default is acceptable.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "read config"), "path", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return cfg, nil
}

// Parse decodes, normalizes and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, zerr.Wrap(err, "decode config")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path atomically via a temp file and rename, leaving the
// final file with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return zerr.New("config path is empty")
	}
	if cfg == nil {
		return zerr.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return zerr.With(zerr.Wrap(err, "create config dir"), "dir", dir)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return zerr.Wrap(err, "encode config")
	}

	tmp, err := os.CreateTemp(dir, ".chorecal-config-*.tmp")
	if err != nil {
		return zerr.Wrap(err, "create temp config")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return zerr.Wrap(err, "write temp config")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return zerr.Wrap(err, "sync temp config")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "close temp config")
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return zerr.Wrap(err, "chmod temp config")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(err, "replace config"), "path", path)
	}
	return nil
}

// Save is a convenience method on Config that delegates to Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
