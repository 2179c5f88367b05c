package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all application configuration
// In Go, we use structs to group related data together
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	App      AppConfig
	Tracing  TracingConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings
// Redis only backs the ingestion rate limiter, so it is off unless enabled
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Environment        string
	LogLevel           string
	LogFile            string // empty logs to stdout only
	CORSAllowedOrigin  string
	RateLimitEnabled   bool
	RateLimitPerMinute int
	TrustProxy         bool // X-Forwarded-For is set by a proxy we control
	EnableMetrics      bool
	RealtimeBuffer     int
}

// TracingConfig holds OpenTelemetry export settings
type TracingConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	Insecure     bool
	SamplingRate float64
}

// Load builds the configuration from, in order of precedence:
// process environment, a .env file in the working directory, the optional
// YAML file at path, and built-in defaults
func Load(path string) (*Config, error) {
	// godotenv never overrides variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	l := loader{k: k}

	cfg := &Config{
		Server: ServerConfig{
			Port:            l.getEnv("SERVER_PORT", "server.port", "8000"),
			ReadTimeout:     l.parseDuration("SERVER_READ_TIMEOUT", "server.read_timeout", "10s"),
			WriteTimeout:    l.parseDuration("SERVER_WRITE_TIMEOUT", "server.write_timeout", "10s"),
			IdleTimeout:     l.parseDuration("SERVER_IDLE_TIMEOUT", "server.idle_timeout", "120s"),
			ShutdownTimeout: l.parseDuration("SERVER_SHUTDOWN_TIMEOUT", "server.shutdown_timeout", "30s"),
		},
		Database: DatabaseConfig{
			Host:            l.getEnv("DB_HOST", "database.host", "localhost"),
			Port:            l.getEnv("DB_PORT", "database.port", "5432"),
			User:            l.getEnv("DB_USER", "database.user", "postgres"),
			Password:        l.getEnvAny([]string{"DB_PASSWORD", "DB_PASS"}, "database.password", ""),
			DBName:          l.getEnv("DB_NAME", "database.name", "linkpro_analytics"),
			SSLMode:         l.getEnv("DB_SSLMODE", "database.sslmode", "disable"),
			MaxConns:        l.parseInt("DB_MAX_CONNS", "database.max_conns", 25),
			MinConns:        l.parseInt("DB_MIN_CONNS", "database.min_conns", 5),
			ConnMaxLifetime: l.parseDuration("DB_CONN_MAX_LIFETIME", "database.conn_max_lifetime", "5m"),
		},
		Redis: RedisConfig{
			Enabled:  l.parseBool("REDIS_ENABLED", "redis.enabled", false),
			Host:     l.getEnv("REDIS_HOST", "redis.host", "localhost"),
			Port:     l.getEnv("REDIS_PORT", "redis.port", "6379"),
			Password: l.getEnv("REDIS_PASSWORD", "redis.password", ""),
			DB:       l.parseInt("REDIS_DB", "redis.db", 0),
		},
		App: AppConfig{
			Environment:        l.getEnv("APP_ENV", "app.environment", "development"),
			LogLevel:           l.getEnv("LOG_LEVEL", "app.log_level", "info"),
			LogFile:            l.getEnv("LOG_FILE", "app.log_file", ""),
			CORSAllowedOrigin:  l.getEnv("CORS_ALLOWED_ORIGIN", "app.cors_allowed_origin", "*"),
			RateLimitEnabled:   l.parseBool("RATE_LIMIT_ENABLED", "app.rate_limit_enabled", true),
			RateLimitPerMinute: l.parseInt("RATE_LIMIT_REQUESTS_PER_MINUTE", "app.rate_limit_per_minute", 100),
			TrustProxy:         l.parseBool("TRUST_PROXY", "app.trust_proxy", false),
			EnableMetrics:      l.parseBool("ENABLE_METRICS", "app.enable_metrics", true),
			RealtimeBuffer:     l.parseInt("REALTIME_BUFFER", "app.realtime_buffer", 16),
		},
		Tracing: TracingConfig{
			Enabled:      l.parseBool("TRACING_ENABLED", "tracing.enabled", false),
			Exporter:     l.getEnv("TRACING_EXPORTER", "tracing.exporter", "otlp-http"),
			Endpoint:     l.getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "tracing.endpoint", "localhost:4318"),
			Insecure:     l.parseBool("TRACING_INSECURE", "tracing.insecure", true),
			SamplingRate: l.parseFloat("TRACING_SAMPLING_RATE", "tracing.sampling_rate", 0.1),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every setting that cannot work
func (c *Config) Validate() error {
	var errs []error

	if c.Database.DBName == "" {
		errs = append(errs, errors.New("database name is required"))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, fmt.Errorf("database max conns must be positive, got %d", c.Database.MaxConns))
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, fmt.Errorf("database min conns must be between 0 and max conns, got %d", c.Database.MinConns))
	}
	if c.App.RateLimitEnabled && c.App.RateLimitPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("rate limit must be positive, got %d", c.App.RateLimitPerMinute))
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		errs = append(errs, fmt.Errorf("tracing sampling rate must be between 0 and 1, got %g", c.Tracing.SamplingRate))
	}

	return errors.Join(errs...)
}

// DatabaseDSN returns the PostgreSQL connection string
// DSN = Data Source Name, a standard format for database connections
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address in host:port format
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// loader resolves one setting: environment variable first, then the YAML
// file key, then the default
type loader struct {
	k *koanf.Koanf
}

func (l loader) getEnv(key, fileKey, defaultValue string) string {
	if l.k.Exists(fileKey) {
		defaultValue = l.k.String(fileKey)
	}
	return getEnv(key, defaultValue)
}

// getEnvAny checks several environment variables in order before the file key
func (l loader) getEnvAny(keys []string, fileKey, defaultValue string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return l.getEnv("", fileKey, defaultValue)
}

func (l loader) parseInt(key, fileKey string, defaultValue int) int {
	if l.k.Exists(fileKey) {
		defaultValue = l.k.Int(fileKey)
	}
	return parseInt(key, defaultValue)
}

func (l loader) parseBool(key, fileKey string, defaultValue bool) bool {
	if l.k.Exists(fileKey) {
		defaultValue = l.k.Bool(fileKey)
	}
	return parseBool(key, defaultValue)
}

func (l loader) parseFloat(key, fileKey string, defaultValue float64) float64 {
	if l.k.Exists(fileKey) {
		defaultValue = l.k.Float64(fileKey)
	}
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func (l loader) parseDuration(key, fileKey, defaultValue string) time.Duration {
	if l.k.Exists(fileKey) {
		defaultValue = l.k.String(fileKey)
	}
	return parseDuration(key, defaultValue)
}

// Helper functions to parse environment variables with defaults

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		// If parsing fails, parse the default value
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
