// Package config resolves service settings from defaults, an optional
// config.toml and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const devJWTSecret = "dev-secret-change-in-production"

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

type Config struct {
	Port     int
	Env      string
	LogLevel zerolog.Level
	Store    string

	DatabaseDSN      string
	DBConnectRetries int
	DBConnectBackoff time.Duration

	JWTSecret string
	JWTExpiry time.Duration

	AllowedOrigins []string
	TrustProxy     bool
	RateLimitRPS   float64
	RateLimitBurst int
}

// IsProduction reports whether the service runs in the production environment.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

var envKeys = map[string]string{
	"port":               "PORT",
	"env":                "ENV",
	"log_level":          "LOG_LEVEL",
	"store":              "STORE",
	"database_dsn":       "DATABASE_DSN",
	"db_connect_retries": "DB_CONNECT_RETRIES",
	"db_connect_backoff": "DB_CONNECT_BACKOFF",
	"jwt_secret":         "JWT_SECRET",
	"jwt_expiry":         "JWT_EXPIRY",
	"allowed_origins":    "ALLOWED_ORIGINS",
	"trust_proxy":        "TRUST_PROXY",
	"rate_limit_rps":     "RATE_LIMIT_RPS",
	"rate_limit_burst":   "RATE_LIMIT_BURST",
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	for key, env := range envKeys {
		v.BindEnv(key, env)
	}

	v.SetDefault("port", 5000)
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("store", StoreMySQL)
	v.SetDefault("database_dsn", "root:password@tcp(127.0.0.1:3306)/nutritrack?parseTime=true")
	v.SetDefault("db_connect_retries", 5)
	v.SetDefault("db_connect_backoff", time.Second)
	v.SetDefault("jwt_secret", devJWTSecret)
	v.SetDefault("jwt_expiry", 7*24*time.Hour)
	v.SetDefault("allowed_origins", "http://localhost:5173")
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_limit_rps", 5)
	v.SetDefault("rate_limit_burst", 10)

	return v
}

// Load reads the configuration. A missing config.toml is not an error; an
// unreadable one or an invalid value is.
func Load() (Config, error) {
	v := newViper()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString("log_level")))
	if err != nil || level == zerolog.NoLevel {
		return Config{}, fmt.Errorf("invalid log level %q", v.GetString("log_level"))
	}

	cfg := Config{
		Port:             v.GetInt("port"),
		Env:              v.GetString("env"),
		LogLevel:         level,
		Store:            strings.ToLower(v.GetString("store")),
		DatabaseDSN:      strings.TrimSpace(v.GetString("database_dsn")),
		DBConnectRetries: v.GetInt("db_connect_retries"),
		DBConnectBackoff: v.GetDuration("db_connect_backoff"),
		JWTSecret:        v.GetString("jwt_secret"),
		JWTExpiry:        v.GetDuration("jwt_expiry"),
		AllowedOrigins:   splitList(v.GetString("allowed_origins")),
		TrustProxy:       v.GetBool("trust_proxy"),
		RateLimitRPS:     v.GetFloat64("rate_limit_rps"),
		RateLimitBurst:   v.GetInt("rate_limit_burst"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	switch c.Store {
	case StoreMySQL:
		if c.DatabaseDSN == "" {
			return errors.New("database_dsn is required for the mysql store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("invalid store %q, must be %q or %q", c.Store, StoreMySQL, StoreMemory)
	}

	if c.DBConnectRetries < 0 {
		return errors.New("db_connect_retries must not be negative")
	}
	if c.DBConnectBackoff <= 0 {
		return errors.New("db_connect_backoff must be positive")
	}

	if c.JWTSecret == "" {
		return errors.New("jwt_secret must not be empty")
	}
	if c.IsProduction() && c.JWTSecret == devJWTSecret {
		return errors.New("JWT_SECRET must be set in production environment")
	}
	if c.JWTExpiry <= 0 {
		return errors.New("jwt_expiry must be positive")
	}

	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("rate_limit_rps and rate_limit_burst must be positive")
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
