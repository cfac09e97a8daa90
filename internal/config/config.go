package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
)

// Auth modes understood by the primary history endpoint.
const (
	AuthPassword = "password"
	AuthAPIKey   = "api_key"
)

// Environment variables that override the file, named after the variables
// the viewer was historically built with.
const (
	EnvPrimaryURL   = "HISTORY_API_URL"
	EnvPrimaryKey   = "HISTORY_API_KEY"
	EnvSecondaryURL = "WENI_HISTORY_API_URL"
	EnvListenAddr   = "HISTORY_LISTEN_ADDR"
)

// ErrNoPrimaryURL is returned by Validate when the primary endpoint is unset.
var ErrNoPrimaryURL = errors.New("primary.url is required")

// Duration wraps time.Duration so it can be written as "30s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config represents ~/.wpp-history/config.toml.
type Config struct {
	ListenAddr      string   `toml:"listen_addr"`
	DisplayTimezone string   `toml:"display_timezone"`
	HTTPTimeout     Duration `toml:"http_timeout"`

	Primary   PrimaryConfig   `toml:"primary"`
	Secondary SecondaryConfig `toml:"secondary"`
	Session   SessionConfig   `toml:"session"`
	Log       LogConfig       `toml:"log"`
}

// PrimaryConfig describes the conversation history endpoint.
type PrimaryConfig struct {
	URL             string `toml:"url"`
	AuthMode        string `toml:"auth_mode"`
	APIKey          string `toml:"api_key"`
	SortNewestFirst bool   `toml:"sort_newest_first"`
}

// SecondaryConfig describes the chatbot history endpoint. An empty URL is
// allowed and only disables the secondary pane.
type SecondaryConfig struct {
	URL string `toml:"url"`
}

// SessionConfig controls viewer sessions.
type SessionConfig struct {
	IdleTimeout  Duration `toml:"idle_timeout"`
	CookieName   string   `toml:"cookie_name"`
	SecureCookie bool     `toml:"secure_cookie"`
}

// LogConfig controls the daemon log file.
type LogConfig struct {
	Path       string `toml:"path"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		ListenAddr:      "127.0.0.1:8080",
		DisplayTimezone: "America/Sao_Paulo",
		HTTPTimeout:     Duration{30 * time.Second},
		Primary: PrimaryConfig{
			AuthMode:        AuthPassword,
			SortNewestFirst: true,
		},
		Session: SessionConfig{
			IdleTimeout: Duration{12 * time.Hour},
			CookieName:  "history_viewer_session",
		},
		Log: LogConfig{
			Path:       LogPath(),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// BaseDir returns ~/.wpp-history.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".wpp-history")
}

// DefaultPath returns the config file path used when --config is not given.
func DefaultPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// LogPath returns the default daemon log file path.
func LogPath() string {
	return filepath.Join(BaseDir(), "logs", "historyd.log")
}

// Load reads config from the given path on top of Default. Returns an error if
// the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default. In both
// cases environment overrides are applied.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv
// outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvPrimaryURL); ok && v != "" {
		c.Primary.URL = v
	}
	if v, ok := lookup(EnvPrimaryKey); ok && v != "" {
		c.Primary.APIKey = v
		c.Primary.AuthMode = AuthAPIKey
	}
	if v, ok := lookup(EnvSecondaryURL); ok {
		c.Secondary.URL = v
	}
	if v, ok := lookup(EnvListenAddr); ok && v != "" {
		c.ListenAddr = v
	}
}

// Validate checks the settings a viewer cannot start without.
func (c *Config) Validate() error {
	if c.Primary.URL == "" {
		return ErrNoPrimaryURL
	}
	switch c.Primary.AuthMode {
	case AuthPassword:
	case AuthAPIKey:
		if c.Primary.APIKey == "" {
			return fmt.Errorf("primary.api_key is required when auth_mode is %q", AuthAPIKey)
		}
	default:
		return fmt.Errorf("unknown primary.auth_mode %q", c.Primary.AuthMode)
	}
	if c.HTTPTimeout.Duration <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

// Location resolves DisplayTimezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	if c.DisplayTimezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
