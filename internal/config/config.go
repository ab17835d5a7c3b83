package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"

	PresenceMemory = "memory"
	PresenceRedis  = "redis"

	// DefaultJWTSecret is only accepted outside production.
	DefaultJWTSecret = "change-me"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	Mode              string        `mapstructure:"mode" yaml:"mode"`

	DatabasePath string        `mapstructure:"database_path" yaml:"database_path"`
	JWTSecret    string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer    string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience  string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL       time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	ServerName         string `mapstructure:"server_name" yaml:"server_name"`
	ClientType         string `mapstructure:"client_type" yaml:"client_type"`
	MaxFrameBytes      int64  `mapstructure:"max_frame_bytes" yaml:"max_frame_bytes"`
	RateLimitPerMinute int    `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	PresenceBackend string `mapstructure:"presence_backend" yaml:"presence_backend"`
	RedisAddr       string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword   string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB         int    `mapstructure:"redis_db" yaml:"redis_db"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		Mode:               ModeDevelopment,
		DatabasePath:       "gabgate.db",
		JWTSecret:          DefaultJWTSecret,
		JWTIssuer:          "gabgate-api",
		JWTAudience:        "gabgate-cli",
		JWTTTL:             120 * time.Hour,
		ServerName:         "Gabgate",
		ClientType:         "gabgate-cli",
		MaxFrameBytes:      16 << 20,
		RateLimitPerMinute: 120,
		PresenceBackend:    PresenceMemory,
		RedisAddr:          "localhost:6379",
	}
}

// IsProduction reports whether production-only checks are enabled.
func (c Config) IsProduction() bool {
	return c.Mode == ModeProduction
}

// Validate rejects combinations the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Mode {
	case ModeDevelopment, ModeProduction:
	default:
		errs = append(errs, fmt.Errorf("mode %q: want %s or %s", c.Mode, ModeDevelopment, ModeProduction))
	}
	switch c.PresenceBackend {
	case PresenceMemory:
	case PresenceRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis_addr is required for the redis presence backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("presence_backend %q: want %s or %s", c.PresenceBackend, PresenceMemory, PresenceRedis))
	}
	if c.JWTSecret == "" || (c.IsProduction() && c.JWTSecret == DefaultJWTSecret) {
		errs = append(errs, errors.New("jwt_secret must be set"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("jwt_ttl must be positive"))
	}
	if c.MaxFrameBytes <= 0 {
		errs = append(errs, errors.New("max_frame_bytes must be positive"))
	}
	return errors.Join(errs...)
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Mode != "" {
		c.Mode = other.Mode
	}
}

// ClientConfig holds terminal client configuration values.
type ClientConfig struct {
	APIURL      string `mapstructure:"api_url" yaml:"api_url"`
	WSURL       string `mapstructure:"ws_url" yaml:"ws_url"`
	StorageDir  string `mapstructure:"storage_dir" yaml:"storage_dir"`
	SessionPath string `mapstructure:"session_path" yaml:"session_path"`
	LogPath     string `mapstructure:"log_path" yaml:"log_path"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	ClientType  string `mapstructure:"client_type" yaml:"client_type"`
}

// DefaultClient returns client defaults rooted in the user's home and config dirs.
func DefaultClient() ClientConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := clientConfigDir()
	return ClientConfig{
		APIURL:      "http://localhost:8080",
		WSURL:       "ws://localhost:8080/ws",
		StorageDir:  filepath.Join(home, "gabgate"),
		SessionPath: filepath.Join(base, "session.yaml"),
		LogPath:     filepath.Join(base, "error.log"),
		LogLevel:    "error",
		ClientType:  "gabgate-cli",
	}
}

func clientConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "gabgate"
	}
	return filepath.Join(dir, "gabgate")
}
