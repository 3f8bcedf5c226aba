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
	Server  ServerConfig
	App     AppConfig
	Game    GameConfig
	Cache   CacheConfig
	Ledger  LedgerConfig
	Journal JournalConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"5000"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"0s"` // websockets are long lived
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	StaticDir       string        `envconfig:"STATIC_DIR" default:"./public"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"isuclicker"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	// AdminKeys guard /api/v1/admin; empty leaves it open
	AdminKeys []string `envconfig:"ADMIN_API_KEYS" default:""`
}

// GameConfig holds game engine and session settings.
type GameConfig struct {
	CatalogPath      string        `envconfig:"GAME_CATALOG_PATH" default:""` // empty = embedded table
	PushInterval     time.Duration `envconfig:"GAME_PUSH_INTERVAL" default:"500ms"`
	ActionBatchDelay time.Duration `envconfig:"GAME_ACTION_BATCH_DELAY" default:"200ms"`
	StatusSlack      time.Duration `envconfig:"GAME_STATUS_SLACK" default:"200ms"`
	StatusWorkers    int           `envconfig:"GAME_STATUS_WORKERS" default:"8"`
	MemoCapacity     int           `envconfig:"GAME_MEMO_CAPACITY" default:"100000"`
	StampRequestTime bool          `envconfig:"GAME_STAMP_REQUEST_TIME" default:"false"`
	ActionRate       float64       `envconfig:"GAME_ACTION_RATE" default:"0"` // actions/sec per session, 0 = unlimited
	ActionBurst      int           `envconfig:"GAME_ACTION_BURST" default:"20"`
	StatsInterval    time.Duration `envconfig:"GAME_STATS_INTERVAL" default:"1m"` // 0 = no periodic stats log
}

// CacheConfig holds snapshot cache settings.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"5s"`

	RedisHost      string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort      int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	RedisKeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"isuclicker:cache:"`
}

// LedgerConfig holds ledger store settings.
type LedgerConfig struct {
	Type string `envconfig:"LEDGER_DB_TYPE" default:"sqlite"` // memory, sqlite, mysql or postgres
	Path string `envconfig:"LEDGER_DB_PATH" default:"./data/ledger.db"`
	// MySQL / PostgreSQL settings
	Host     string `envconfig:"LEDGER_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"LEDGER_DB_PORT" default:"0"` // 0 = driver default
	Name     string `envconfig:"LEDGER_DB_NAME" default:"isuclicker"`
	User     string `envconfig:"LEDGER_DB_USER" default:"isucon"`
	Password string `envconfig:"LEDGER_DB_PASS" default:""`
	SSLMode  string `envconfig:"LEDGER_DB_SSLMODE" default:"disable"`
}

// JournalConfig holds mutation journal settings.
type JournalConfig struct {
	Dir    string `envconfig:"JOURNAL_DIR" default:""` // empty = disabled
	Prefix string `envconfig:"JOURNAL_PREFIX" default:"ledger"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// MySQLDSN returns the MySQL data source name.
func (l *LedgerConfig) MySQLDSN() string {
	port := l.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=Local",
		l.User, l.Password, l.Host, port, l.Name)
}

// PostgresDSN returns the PostgreSQL connection string.
func (l *LedgerConfig) PostgresDSN() string {
	port := l.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		l.User, l.Password, l.Host, port, l.Name, l.SSLMode)
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

	switch cfg.Ledger.Type {
	case "memory", "sqlite", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported LEDGER_DB_TYPE %q", cfg.Ledger.Type)
	}
	switch cfg.Cache.Type {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("unsupported CACHE_TYPE %q", cfg.Cache.Type)
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
