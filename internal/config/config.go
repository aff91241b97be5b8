// Package config loads server settings from defaults, an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// EnvPrefix prefixes every environment variable (RECIPEN_HTTP_ADDR, ...).
const EnvPrefix = "RECIPEN"

type Config struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	HealthAddr      string        `mapstructure:"health_addr"` // gRPC health; "" disables
	TLSCert         string        `mapstructure:"tls_cert"`    // PEM; serve HTTPS when set with TLSKey
	TLSKey          string        `mapstructure:"tls_key"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	Debug           bool          `mapstructure:"debug"`    // dev logger, error reasons, gRPC reflection
	LogFile         string        `mapstructure:"log_file"` // rotated by lumberjack when set
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	RatePerMinute   int           `mapstructure:"rate_per_minute"` // per client IP; 0 = off
	RateBurst       int           `mapstructure:"rate_burst"`

	Storage          string        `mapstructure:"storage"`
	DatabaseURL      string        `mapstructure:"database_url"` // postgres:// or jdbc:postgresql://
	PostgresUser     string        `mapstructure:"postgres_user"`
	PostgresPassword string        `mapstructure:"postgres_password"`
	DBMaxConns       int32         `mapstructure:"db_max_conns"`
	HealthInterval   time.Duration `mapstructure:"health_interval"`

	AccessTokenSecret  string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret string        `mapstructure:"refresh_token_secret"`
	AccessTTL          time.Duration `mapstructure:"access_ttl"`  // login, refresh, profile update
	ReissueTTL         time.Duration `mapstructure:"reissue_ttl"` // favorite toggle, role grant
	RefreshTTL         time.Duration `mapstructure:"refresh_ttl"` // refresh token and cookie
	BcryptCost         int           `mapstructure:"bcrypt_cost"`

	LoginWindow   time.Duration `mapstructure:"login_window"`
	LoginMaxFails int           `mapstructure:"login_max_fails"`
	LoginBlockFor time.Duration `mapstructure:"login_block_for"`

	CheckoutURL string `mapstructure:"checkout_url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":3500")
	v.SetDefault("health_addr", ":9090")
	v.SetDefault("tls_cert", "")
	v.SetDefault("tls_key", "")
	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("debug", false)
	v.SetDefault("log_file", "")
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("max_body_bytes", 1<<20)
	v.SetDefault("rate_per_minute", 300)
	v.SetDefault("rate_burst", 60)

	v.SetDefault("storage", StoragePostgres)
	v.SetDefault("database_url", "")
	v.SetDefault("postgres_user", "")
	v.SetDefault("postgres_password", "")
	v.SetDefault("db_max_conns", 10)
	v.SetDefault("health_interval", 10*time.Second)

	v.SetDefault("access_token_secret", "")
	v.SetDefault("refresh_token_secret", "")
	v.SetDefault("access_ttl", 30*time.Minute)
	v.SetDefault("reissue_ttl", 24*time.Hour)
	v.SetDefault("refresh_ttl", 48*time.Hour)
	v.SetDefault("bcrypt_cost", bcrypt.DefaultCost)

	v.SetDefault("login_window", 15*time.Minute)
	v.SetDefault("login_max_fails", 5)
	v.SetDefault("login_block_for", 15*time.Minute)

	v.SetDefault("checkout_url", "")
}

// legacyEnv lets deployments of the previous server keep their variable names.
var legacyEnv = map[string]string{
	"database_url":         "DATABASE_URL",
	"postgres_user":        "POSTGRES_USER",
	"postgres_password":    "POSTGRES_PASSWORD",
	"access_token_secret":  "ACCESS_TOKEN_SECRET",
	"refresh_token_secret": "REFRESH_TOKEN_SECRET",
}

// Load reads configuration. path may be "" to search ./recipen.yaml and /etc/recipen/.
// Precedence: RECIPEN_* env > legacy env > file > defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("recipen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/recipen/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key), legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// no config file; defaults and env only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate reports the first setting that would make the server unusable.
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database_url is required for postgres storage")
		}
		if _, err := c.DSN(); err != nil {
			return err
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("access_token_secret and refresh_token_secret are required")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.AccessTTL <= 0 || c.ReissueTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.HTTPAddr == "" {
		return errors.New("http_addr is required")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("tls_cert and tls_key must be set together")
	}
	return nil
}

// DSN returns a pgx connection string. A jdbc:postgresql://host[:port]/db[?params]
// URL is rewritten with postgres_user / postgres_password as credentials.
func (c *Config) DSN() (string, error) {
	const jdbc = "jdbc:postgresql://"
	raw := c.DatabaseURL
	if !strings.HasPrefix(raw, jdbc) {
		if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
			return raw, nil
		}
		return "", fmt.Errorf("database_url: unsupported scheme in %q", redact(raw))
	}

	rest := strings.TrimPrefix(raw, jdbc)
	hostPort, dbAndQuery, _ := strings.Cut(rest, "/")
	database, query, _ := strings.Cut(dbAndQuery, "?")
	host, port, hasPort := strings.Cut(hostPort, ":")
	if !hasPort {
		port = "5432"
	}
	if host == "" || database == "" {
		return "", errors.New("database_url: jdbc url needs host and database")
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("database_url: bad port %q", port)
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     host + ":" + port,
		Path:     "/" + database,
		RawQuery: query,
	}
	if c.PostgresUser != "" {
		u.User = url.UserPassword(c.PostgresUser, c.PostgresPassword)
	}
	return u.String(), nil
}

// redact hides credentials of a URL-looking string for error messages.
func redact(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return s
	}
	return u.Redacted()
}
