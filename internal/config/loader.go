package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envConfigDefaultPath       = "GABGATE_CONFIG_DEFAULT_PATH"
	envClientConfigDefaultPath = "GABGATE_CLIENT_CONFIG_DEFAULT_PATH"
	defaultConfigName          = "config.yaml"
	defaultClientConfigName    = "client.yaml"
)

// Load builds server configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetDefault("addr", cfg.Addr)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("database_path", cfg.DatabasePath)
	v.SetDefault("jwt_secret", cfg.JWTSecret)
	v.SetDefault("jwt_issuer", cfg.JWTIssuer)
	v.SetDefault("jwt_audience", cfg.JWTAudience)
	v.SetDefault("jwt_ttl", cfg.JWTTTL)
	v.SetDefault("server_name", cfg.ServerName)
	v.SetDefault("client_type", cfg.ClientType)
	v.SetDefault("max_frame_bytes", cfg.MaxFrameBytes)
	v.SetDefault("rate_limit_per_minute", cfg.RateLimitPerMinute)
	v.SetDefault("presence_backend", cfg.PresenceBackend)
	v.SetDefault("redis_addr", cfg.RedisAddr)
	v.SetDefault("redis_password", cfg.RedisPassword)
	v.SetDefault("redis_db", cfg.RedisDB)

	configPath := resolveConfigPath(explicitPath, envConfigDefaultPath, defaultConfigName, "")
	if err := readConfig(logger, v, "GABGATE", configPath, cfg); err != nil {
		return cfg, configPath, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

// LoadClient is Load for the terminal client. The default file lives in the
// user config dir rather than the working directory.
func LoadClient(logger *zerolog.Logger, explicitPath string) (ClientConfig, string, error) {
	cfg := DefaultClient()

	v := viper.New()
	v.SetDefault("api_url", cfg.APIURL)
	v.SetDefault("ws_url", cfg.WSURL)
	v.SetDefault("storage_dir", cfg.StorageDir)
	v.SetDefault("session_path", cfg.SessionPath)
	v.SetDefault("log_path", cfg.LogPath)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("client_type", cfg.ClientType)

	configPath := resolveConfigPath(explicitPath, envClientConfigDefaultPath, defaultClientConfigName, clientConfigDir())
	if err := readConfig(logger, v, "GABGATE_CLIENT", configPath, cfg); err != nil {
		return cfg, configPath, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal client config: %w", err)
	}

	return cfg, configPath, nil
}

// readConfig wires env overrides and reads path, writing defaults there first if it is missing.
func readConfig(logger *zerolog.Logger, v *viper.Viper, envPrefix, configPath string, defaults any) error {
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(configPath)

	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config: %w", err)
	}

	if writeErr := writeDefaultConfig(configPath, defaults); writeErr != nil {
		if logger != nil {
			logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
		}
		return nil
	}
	if logger != nil {
		logger.Info().Str("path", configPath).Msg("created default config")
	}
	if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
		logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
	}
	return nil
}

func resolveConfigPath(explicitPath, envDir, name, fallbackDir string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envDir); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, name)
		}
	}

	if fallbackDir != "" {
		return filepath.Join(fallbackDir, name)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return name
	}
	return filepath.Join(cwd, name)
}

func writeDefaultConfig(path string, cfg any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
