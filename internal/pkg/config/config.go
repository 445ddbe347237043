package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Mapbox    MapboxConfig    `mapstructure:"mapbox"`
	Capture   CaptureConfig   `mapstructure:"capture"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Local     LocalConfig     `mapstructure:"local"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// MapboxConfig configures the map and geocoding service. An empty Token is
// allowed: capture endpoints then answer with configuration help.
type MapboxConfig struct {
	Token          string `mapstructure:"token"`
	GeocodingURL   string `mapstructure:"geocoding_url"`
	CacheTTLSecond int    `mapstructure:"cache_ttl_seconds"`
}

// CaptureConfig bounds in-memory capture sessions. Zero IdleTTLSecond keeps
// sessions until they are closed.
type CaptureConfig struct {
	IdleTTLSecond int `mapstructure:"idle_ttl_seconds"`
}

type BackendConfig struct {
	URL string `mapstructure:"url"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// LocalConfig configures the CLI's on-disk state.
type LocalConfig struct {
	SessionPath string `mapstructure:"session_path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, an optional config file, and
// environment variables.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 20)
	v.SetDefault("server.allow_origins", "http://localhost:3000")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "krishi")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "krishi")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("mapbox.token", envOr("NEXT_PUBLIC_MAPBOX_TOKEN", ""))
	v.SetDefault("mapbox.geocoding_url", "https://api.mapbox.com")
	v.SetDefault("mapbox.cache_ttl_seconds", 86400)
	v.SetDefault("capture.idle_ttl_seconds", 1800)
	v.SetDefault("backend.url", envOr("NEXT_PUBLIC_API_URL", "http://localhost:5001/api"))
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "land-onboarding")
	v.SetDefault("local.session_path", defaultSessionPath())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: KRISHI_MAPBOX_TOKEN → mapbox.token
	v.SetEnvPrefix("KRISHI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
// The Mapbox token is deliberately not required.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Backend.URL == "" {
		errs = append(errs, "backend.url is required")
	}
	if c.Mapbox.GeocodingURL == "" {
		errs = append(errs, "mapbox.geocoding_url is required")
	}
	if c.Mapbox.CacheTTLSecond < 0 {
		errs = append(errs, "mapbox.cache_ttl_seconds must not be negative")
	}
	if c.Capture.IdleTTLSecond < 0 {
		errs = append(errs, "capture.idle_ttl_seconds must not be negative")
	}
	if c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// envOr reads the variable names the web client used, so one .env serves both.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "krishi-session.db"
	}
	return filepath.Join(dir, "krishi", "session.db")
}
