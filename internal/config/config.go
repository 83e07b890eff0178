package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server     ServerConfig
	App        AppConfig
	Cache      CacheConfig
	Fetch      FetchConfig
	Database   DatabaseConfig
	SnapshotDB SnapshotDBConfig
	Cleanup    CleanupConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"steamvault-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	LoginKey    string `envconfig:"LOGIN_KEY" default:""`       // Admin dashboard login key
	ClearKey    string `envconfig:"CACHE_CLEAR_KEY" default:""` // Credential for the cache clear endpoint

	// TokenTTL bounds the lifetime of session tokens.
	TokenTTL time.Duration `envconfig:"TOKEN_TTL" default:"1h"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	// TTL after which a stored snapshot or cached item counts as a miss.
	TTL time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// FetchConfig holds upstream inventory fetch settings.
type FetchConfig struct {
	// Strategies is a ";"-separated list of label=url-template entries.
	// The {id} placeholder expands to the SteamID64. Order is attempt order.
	Strategies string `envconfig:"FETCH_STRATEGIES" default:"direct=https://steamcommunity.com/inventory/{id}/730/2?l=english&count=5000;steamapis=https://api.steamapis.com/steam/inventory/{id}/730/2;steamwebapi=https://www.steamwebapi.com/steam/api/inventory?steam_id={id}"`

	Timeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"8s"`
	MaxAttempts int           `envconfig:"FETCH_MAX_ATTEMPTS" default:"3"`
	BackoffBase time.Duration `envconfig:"FETCH_BACKOFF_BASE" default:"500ms"`
	UserAgent   string        `envconfig:"FETCH_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"`
}

// DatabaseConfig holds MySQL connection settings (for api_keys).
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"steamvault"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
}

// SnapshotDBConfig holds snapshot/cache store settings.
type SnapshotDBConfig struct {
	Type string `envconfig:"SNAPSHOT_DB_TYPE" default:"sqlite"` // sqlite or postgres
	Path string `envconfig:"SNAPSHOT_DB_PATH" default:"./data/steamvault.db"`
	// PostgreSQL settings
	Host     string `envconfig:"SNAPSHOT_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"SNAPSHOT_DB_PORT" default:"5432"`
	Name     string `envconfig:"SNAPSHOT_DB_NAME" default:"steamvault"`
	User     string `envconfig:"SNAPSHOT_DB_USER" default:"postgres"`
	Password string `envconfig:"SNAPSHOT_DB_PASS" default:""`
	SSLMode  string `envconfig:"SNAPSHOT_DB_SSLMODE" default:"disable"`
}

// CleanupConfig holds stale snapshot cleanup settings.
type CleanupConfig struct {
	Enabled           bool          `envconfig:"CLEANUP_ENABLED" default:"true"`
	InactiveThreshold time.Duration `envconfig:"CLEANUP_INACTIVE_THRESHOLD" default:"720h"`
	Interval          time.Duration `envconfig:"CLEANUP_INTERVAL" default:"24h"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (s *SnapshotDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.Name, s.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DSN returns the MySQL data source name.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
