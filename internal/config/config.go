package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	HashArgon2id = "argon2id"
	HashBcrypt   = "bcrypt"

	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
)

type Config struct {
	Port      string
	AppEnv    string
	LogLevel  string
	LogFormat string
	SentryDSN string

	Database DatabaseConfig
	Auth     AuthConfig
	Movie    MovieConfig

	CORSAllowedOrigins  []string
	TrustProxyHeaders   bool
	ShutdownGracePeriod time.Duration
}

type DatabaseConfig struct {
	URL             string
	Driver          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	RunMigrations   bool

	// RunMigrationsOnStartup applies to the serverless entrypoint only, where
	// every cold start would otherwise run the migrator.
	RunMigrationsOnStartup bool
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	PasswordHash    string
	RateLimitMax    int
	RateLimitWindow time.Duration
}

type MovieConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Load reads and fully validates the configuration from the process
// environment. A .env file, if any, must already have been loaded by the
// caller.
func Load() (Config, error) {
	cfg := Read()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read returns the configuration without validating it, for callers that
// need only part of it (see ValidateDatabase).
func Read() Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return Config{
		Port:      v.GetString("port"),
		AppEnv:    v.GetString("app_env"),
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		SentryDSN: v.GetString("sentry_dsn"),
		Database: DatabaseConfig{
			URL:             v.GetString("database_url"),
			Driver:          strings.ToLower(v.GetString("db_driver")),
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("db_conn_max_idle_time"),
			RunMigrations:   v.GetBool("run_migrations"),

			RunMigrationsOnStartup: v.GetBool("run_migrations_on_startup"),
		},
		Auth: AuthConfig{
			JWTSecret:       v.GetString("jwt_secret"),
			JWTIssuer:       v.GetString("jwt_issuer"),
			AccessTokenTTL:  v.GetDuration("access_token_ttl"),
			PasswordHash:    strings.ToLower(v.GetString("password_hash")),
			RateLimitMax:    v.GetInt("auth_rate_limit_max"),
			RateLimitWindow: v.GetDuration("auth_rate_limit_window"),
		},
		Movie: MovieConfig{
			APIKey:  v.GetString("movie_key"),
			BaseURL: strings.TrimRight(v.GetString("movie_api_base_url"), "/"),
			Timeout: v.GetDuration("movie_api_timeout"),
		},
		CORSAllowedOrigins:  splitList(v.GetString("cors_allowed_origins")),
		TrustProxyHeaders:   v.GetBool("trust_proxy_headers"),
		ShutdownGracePeriod: v.GetDuration("shutdown_grace_period"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("sentry_dsn", "")

	v.SetDefault("database_url", "")
	v.SetDefault("db_driver", DriverPgx)
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_max_lifetime", 30*time.Minute)
	v.SetDefault("db_conn_max_idle_time", 10*time.Minute)
	v.SetDefault("run_migrations", true)
	v.SetDefault("run_migrations_on_startup", false)

	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "movie-favorites")
	v.SetDefault("access_token_ttl", 24*time.Hour)
	v.SetDefault("password_hash", HashArgon2id)
	v.SetDefault("auth_rate_limit_max", 10)
	v.SetDefault("auth_rate_limit_window", time.Minute)

	v.SetDefault("movie_key", "")
	v.SetDefault("movie_api_base_url", "https://api.themoviedb.org/3")
	v.SetDefault("movie_api_timeout", 10*time.Second)

	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("trust_proxy_headers", false)
	v.SetDefault("shutdown_grace_period", 10*time.Second)
}

func (c Config) Validate() error {
	errs := []error{c.ValidateDatabase()}

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("missing required env var: JWT_SECRET"))
	}
	if strings.TrimSpace(c.Movie.APIKey) == "" {
		errs = append(errs, errors.New("missing required env var: MOVIE_KEY"))
	}

	switch c.Auth.PasswordHash {
	case HashArgon2id, HashBcrypt:
	default:
		errs = append(errs, fmt.Errorf("invalid PASSWORD_HASH %q: want %s or %s", c.Auth.PasswordHash, HashArgon2id, HashBcrypt))
	}

	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Auth.RateLimitMax <= 0 || c.Auth.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT_MAX and AUTH_RATE_LIMIT_WINDOW must be positive"))
	}
	if c.Movie.Timeout <= 0 {
		errs = append(errs, errors.New("MOVIE_API_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// ValidateDatabase checks only the settings needed to reach the database.
func (c Config) ValidateDatabase() error {
	var errs []error

	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("missing required env var: DATABASE_URL"))
	}

	switch c.Database.Driver {
	case DriverPgx, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("invalid DB_DRIVER %q: want %s or %s", c.Database.Driver, DriverPgx, DriverPostgres))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
