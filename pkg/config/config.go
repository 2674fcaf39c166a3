package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "EMOJIBLOG"

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Identity  IdentityConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL          string
	MaxIdleConns int
	MaxOpenConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL     string
	Enabled bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int
	Host           string
	AllowedOrigins []string
}

// IdentityConfig holds identity provider configuration
type IdentityConfig struct {
	APIURL            string
	SecretKey         string
	JWTPublicKey      string // PEM encoded RS256 verification key for session tokens
	Timeout           time.Duration
	RequestsPerSecond float64
}

// RateLimitConfig holds the sliding window limiter settings for post and comment creation
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	Prefix string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level         string
	Format        string // "json" or "text"
	FilePath      string // optional rolling log file
	FileMaxSizeMB int
	FileMaxBackup int
	FileMaxAgeDay int
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Enabled           bool
	JaegerURL         string
	PrometheusEnabled bool
	ServiceName       string
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.emojiblog")
	viper.AddConfigPath("/etc/emojiblog")

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found; this is OK if we have env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:          getString("database_url", ""),
			MaxIdleConns: getInt("database_max_idle_conns", 10),
			MaxOpenConns: getInt("database_max_open_conns", 100),
		},
		Redis: RedisConfig{
			URL:     getString("redis_url", ""),
			Enabled: getString("redis_url", "") != "",
		},
		Server: ServerConfig{
			Port:           getInt("http_server_port", 8080),
			Host:           getString("http_server_host", "0.0.0.0"),
			AllowedOrigins: getList("allowed_origins", []string{"http://localhost:3000"}),
		},
		Identity: IdentityConfig{
			APIURL:            getString("identity_api_url", "https://api.clerk.com/v1"),
			SecretKey:         getString("identity_secret_key", ""),
			JWTPublicKey:      getString("identity_jwt_public_key", ""),
			Timeout:           getDuration("identity_timeout", 5*time.Second),
			RequestsPerSecond: getFloat("identity_requests_per_second", 20),
		},
		RateLimit: RateLimitConfig{
			Limit:  getInt("ratelimit_limit", 3),
			Window: getDuration("ratelimit_window", time.Minute),
			Prefix: getString("ratelimit_prefix", "ratelimit"),
		},
		Logging: LoggingConfig{
			Level:         getString("log_level", "INFO"),
			Format:        getString("log_format", "json"),
			FilePath:      getString("log_file", ""),
			FileMaxSizeMB: getInt("log_file_max_size_mb", 100),
			FileMaxBackup: getInt("log_file_max_backups", 3),
			FileMaxAgeDay: getInt("log_file_max_age_days", 7),
		},
		Telemetry: TelemetryConfig{
			Enabled:           getBool("telemetry_enabled", true),
			JaegerURL:         getString("jaeger_url", ""),
			PrometheusEnabled: getBool("prometheus_enabled", true),
			ServiceName:       getString("service_name", "emojiblog"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("http_server_port", 8080)
	viper.SetDefault("http_server_host", "0.0.0.0")
	viper.SetDefault("identity_api_url", "https://api.clerk.com/v1")
	viper.SetDefault("ratelimit_limit", 3)
	viper.SetDefault("ratelimit_window", "1m")
	viper.SetDefault("log_level", "INFO")
	viper.SetDefault("log_format", "json")
	viper.SetDefault("telemetry_enabled", true)
	viper.SetDefault("prometheus_enabled", true)
	viper.SetDefault("service_name", "emojiblog")
}

func getString(key, defaultValue string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	// Also check environment variable directly
	if val := os.Getenv(envKey(key)); val != "" {
		return val
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	if val := os.Getenv(envKey(key)); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	if val := os.Getenv(envKey(key)); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	if val := os.Getenv(envKey(key)); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	if val := os.Getenv(envKey(key)); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultValue
}

// getList reads a comma separated list
func getList(key string, defaultValue []string) []string {
	raw := getString(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envKey(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("http_server_port must be between 1 and 65535")
	}
	if c.RateLimit.Limit <= 0 {
		return fmt.Errorf("ratelimit_limit must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("ratelimit_window must be positive")
	}
	if c.Identity.APIURL == "" {
		return fmt.Errorf("identity_api_url is required")
	}
	if c.Identity.RequestsPerSecond <= 0 {
		return fmt.Errorf("identity_requests_per_second must be positive")
	}
	return nil
}
