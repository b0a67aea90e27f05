package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ExpirationOneShot deletes a link after its first paid redirect.
	ExpirationOneShot = "one_shot"
	// ExpirationTTL keeps a link until its expires_at passes.
	ExpirationTTL = "ttl"

	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`

	// Store selects the persistence backend.
	Store StoreConfig `mapstructure:"store"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	// Razorpay
	Payment PaymentConfig `mapstructure:"payment"`

	Link      LinkConfig      `mapstructure:"link"`
	Credits   CreditsConfig   `mapstructure:"credits"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type PostgresConfig struct {
	Host              string        `mapstructure:"host"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	Port              int           `mapstructure:"port"`
	SSLMode           string        `mapstructure:"sslmode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type PaymentConfig struct {
	KeyID    string `mapstructure:"key_id"`
	Secret   string `mapstructure:"secret"`
	Currency string `mapstructure:"currency"`
}

type LinkConfig struct {
	// ExpirationPolicy is one of ExpirationOneShot or ExpirationTTL.
	ExpirationPolicy string        `mapstructure:"expiration_policy"`
	TTL              time.Duration `mapstructure:"ttl"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`

	// RequireID makes link_id mandatory on create-link.
	RequireID bool `mapstructure:"require_id"`
}

type CreditsConfig struct {
	SignupBonus int64 `mapstructure:"signup_bonus"`
}

type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects combinations the server cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}

	switch c.Link.ExpirationPolicy {
	case ExpirationOneShot:
	case ExpirationTTL:
		if c.Link.TTL <= 0 {
			return fmt.Errorf("config: link.ttl must be positive for the ttl policy")
		}
	default:
		return fmt.Errorf("config: unknown link expiration policy %q", c.Link.ExpirationPolicy)
	}

	if c.Credits.SignupBonus < 0 {
		return fmt.Errorf("config: credits.signup_bonus must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("store.driver", StoreDriverPostgres)
	v.SetDefault("nats.enabled", true)
	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("payment.currency", "INR")
	v.SetDefault("link.expiration_policy", ExpirationTTL)
	v.SetDefault("link.ttl", "24h")
	v.SetDefault("link.sweep_interval", "5m")
	v.SetDefault("link.require_id", false)
	v.SetDefault("credits.signup_bonus", 1)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.max_requests", 100)
	v.SetDefault("rate_limit.window", "1m")
}

func bindEnvVars(v *viper.Viper) {
	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")

	// Razorpay
	v.BindEnv("payment.key_id", "RAZORPAY_KEY_ID")
	v.BindEnv("payment.secret", "RAZORPAY_SECRET")

	v.BindEnv("link.expiration_policy", "LINK_EXPIRATION_POLICY")
	v.BindEnv("link.ttl", "LINK_TTL")
}
