package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "shopsmart"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Search       SearchConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPSMART_APP_ENV" default:"dev"`
	Port         string `envconfig:"SHOPSMART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPSMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPSMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"SHOPSMART_DB_DRIVER" default:"sqlite"`
	// DSN is a file path for sqlite and a connection string for postgres.
	DSN string `envconfig:"SHOPSMART_DB_DSN" default:"shopsmart.db"`

	MaxOpenConns    int           `envconfig:"SHOPSMART_DB_MAX_OPEN_CONNS" default:"1"`
	MaxIdleConns    int           `envconfig:"SHOPSMART_DB_MAX_IDLE_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPSMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPSMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d DBConfig) validate() error {
	switch d.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported db driver %q", d.Driver)
	}
	if d.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	return nil
}

// RedisConfig is optional: when URL and Address are both empty, the planner
// falls back to in-process coordination.
type RedisConfig struct {
	URL          string        `envconfig:"SHOPSMART_REDIS_URL"`
	Address      string        `envconfig:"SHOPSMART_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPSMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPSMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPSMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPSMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPSMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPSMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPSMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type SearchConfig struct {
	BaseURL        string        `envconfig:"SHOPSMART_SEARCH_BASE_URL" default:"https://world.openfoodfacts.org"`
	Country        string        `envconfig:"SHOPSMART_SEARCH_COUNTRY" default:"United Kingdom"`
	PageSize       int           `envconfig:"SHOPSMART_SEARCH_PAGE_SIZE" default:"100"`
	Timeout        time.Duration `envconfig:"SHOPSMART_SEARCH_TIMEOUT" default:"15s"`
	CacheTTL       time.Duration `envconfig:"SHOPSMART_SEARCH_CACHE_TTL" default:"24h"`
	DebounceQuiet  time.Duration `envconfig:"SHOPSMART_SEARCH_DEBOUNCE_QUIET" default:"3s"`
	MinQueryLength int           `envconfig:"SHOPSMART_SEARCH_MIN_QUERY_LENGTH" default:"2"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPSMART_AUTO_MIGRATE" default:"true"`
}
