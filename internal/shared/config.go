package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	AudioDB  AudioDBConfig  `toml:"audiodb"`
	Auth     AuthConfig     `toml:"auth"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig contains database connection settings. The database file is the durable tier.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	SessionTTLMinutes int    `toml:"session_ttl_minutes"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SessionTTL is the idle time after which an HTTP session is dropped.
func (s ServerConfig) SessionTTL() time.Duration {
	return time.Duration(s.SessionTTLMinutes) * time.Minute
}

// AudioDBConfig contains TheAudioDB client settings.
type AudioDBConfig struct {
	BaseURL        string   `toml:"base_url"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	RateLimit      float64  `toml:"rate_limit"`
	PopularArtists []string `toml:"popular_artists"`
	PerArtist      int      `toml:"per_artist"`
	PopularLimit   int      `toml:"popular_limit"`
}

// Timeout returns the per-request timeout.
func (a AudioDBConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// AuthConfig contains the credential allow-list and password rules.
type AuthConfig struct {
	LoginDelayMS      int          `toml:"login_delay_ms"`
	PasswordMinLength int          `toml:"password_min_length"`
	PasswordRule      string       `toml:"password_rule"`
	Users             []UserConfig `toml:"users"`
}

// LoginDelay is the artificial delay applied to every credential check.
func (a AuthConfig) LoginDelay() time.Duration {
	return time.Duration(a.LoginDelayMS) * time.Millisecond
}

// UserConfig is one allow-listed account.
type UserConfig struct {
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	config.Auth.Users = nil
	config.AudioDB.PopularArtists = nil
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that would make the application misbehave rather than fail loudly.
func (c *Config) Validate() error {
	switch {
	case c.Database.Path == "":
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	case c.AudioDB.BaseURL == "":
		return fmt.Errorf("%w: audiodb.base_url is required", ErrInvalidConfig)
	case c.AudioDB.TimeoutSeconds <= 0:
		return fmt.Errorf("%w: audiodb.timeout_seconds must be positive", ErrInvalidConfig)
	case c.AudioDB.PerArtist <= 0 || c.AudioDB.PopularLimit <= 0:
		return fmt.Errorf("%w: audiodb.per_artist and audiodb.popular_limit must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Auth.PasswordRule) {
	case "", "none", "pictographic":
	default:
		return fmt.Errorf("%w: unknown auth.password_rule %q", ErrInvalidConfig, c.Auth.PasswordRule)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
