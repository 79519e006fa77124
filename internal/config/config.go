package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"go.uber.org/multierr"
)

const (
	StoreBackendSheets   = "sheets"
	StoreBackendPostgres = "postgres"

	DefaultStoreTimeout = 15 * time.Second
)

type Config struct {
	Host        string `toml:"host" env:"SERVICE_HOST"`
	Port        int    `toml:"port" env:"SERVICE_PORT"`
	Environment string `toml:"environment" env:"SERVICE_ENVIRONMENT"`
	// frontend
	FrontendDir    string   `toml:"frontend_dir" env:"FRONTEND_DIR"`
	AllowedOrigins []string `toml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	// Timezone is the IANA name "today" and the reporting week are computed in, empty means local
	Timezone string `toml:"timezone" env:"TZ_NAME"`
	// logging
	LogLevel      string `toml:"log_level" env:"LOG_LEVEL"`
	LogsPath      string `toml:"logs_path" env:"LOGS_PATH"`
	LogToStdout   bool   `toml:"log_to_stdout" env:"LOG_TO_STDOUT"`
	LogFormatJSON bool   `toml:"log_format_json" env:"LOG_FORMAT_JSON"`
	// telemetry
	SentryEnabled         bool   `toml:"sentry_enabled" env:"SENTRY_ENABLED"`
	SentryDSN             string `toml:"-" env:"SENTRY_DSN"`
	HoneycombEnabled      bool   `toml:"honeycomb_enabled" env:"HONEYCOMB_ENABLED"`
	PrometheusMetricsHost string `toml:"prometheus_metrics_host" env:"PROMETHEUS_METRICS_HOST"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port" env:"PROMETHEUS_METRICS_PORT"`
	// movement store
	StoreBackend          string        `toml:"store_backend" env:"STORE_BACKEND"`
	StoreTimeout          time.Duration `toml:"store_timeout" env:"STORE_TIMEOUT"`
	SpreadsheetID         string        `toml:"spreadsheet_id" env:"MOVEMENT_SPREADSHEET_ID"`
	SheetName             string        `toml:"sheet_name" env:"MOVEMENT_SHEET_NAME"`
	GoogleCredentialsFile string        `toml:"google_credentials_file" env:"GOOGLE_CREDENTIALS_FILE"`
	// postgres
	PostgresHost     string `toml:"postgres_host" env:"POSTGRES_HOST"`
	PostgresPort     string `toml:"postgres_port" env:"POSTGRES_PORT"`
	PostgresDBName   string `toml:"postgres_db_name" env:"POSTGRES_DB_NAME"`
	PostgresUser     string `toml:"postgres_user" env:"POSTGRES_USER"`
	PostgresPassword string `toml:"-" env:"POSTGRES_PASS"`
	PostgresSSLMode  string `toml:"postgres_ssl_mode" env:"POSTGRES_SSL_MODE"`
	// redis
	RedisHost     string `toml:"redis_host" env:"REDIS_HOST"`
	RedisPort     string `toml:"redis_port" env:"REDIS_PORT"`
	RedisPassword string `toml:"-" env:"REDIS_PASS"`
	// rate limiting of the movement write route, 0 disables it
	WriteRateLimitPerMin int `toml:"write_rate_limit_per_min" env:"WRITE_RATE_LIMIT_PER_MIN"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the config of the given environment from the TOML file,
// then applies the environment variable overrides.
func Load(environment, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}

	cfg, err := t.Get(environment)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] not found in [%s]", environment, path)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.StoreBackend == "" {
		c.StoreBackend = StoreBackendSheets
	}
	if c.StoreTimeout == 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}

func (c *Config) Validate() error {
	var errs error

	switch c.StoreBackend {
	case StoreBackendSheets:
		if c.SpreadsheetID == "" {
			errs = multierr.Append(errs, errors.New("spreadsheet_id not set (MOVEMENT_SPREADSHEET_ID)"))
		}
		if c.GoogleCredentialsFile == "" {
			errs = multierr.Append(errs, errors.New("google_credentials_file not set (GOOGLE_CREDENTIALS_FILE)"))
		}
	case StoreBackendPostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			errs = multierr.Append(errs, errors.New("postgres host, port and db name must be set"))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown store backend [%s]", c.StoreBackend))
	}

	if c.StoreTimeout < 0 {
		errs = multierr.Append(errs, errors.New("store_timeout must not be negative"))
	}
	if c.WriteRateLimitPerMin < 0 {
		errs = multierr.Append(errs, errors.New("write_rate_limit_per_min must not be negative"))
	}
	if _, err := c.Location(); err != nil {
		errs = multierr.Append(errs, err)
	}

	if errs != nil {
		return fmt.Errorf("invalid config: %w", errs)
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone [%s]: %w", c.Timezone, err)
	}
	return loc, nil
}
