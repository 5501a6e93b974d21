package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds runtime configuration.
type Config struct {
	// Database
	PostgresConn   string
	RunMigrations  bool
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Server
	ServerAddress   string
	ShutdownTimeout time.Duration
	JWTSecret       string

	// Marketplace rules
	CommissionRate   decimal.Decimal
	CommissionMinFee decimal.Decimal
	RequestTTL       time.Duration
	TxTimeout        time.Duration
	SweepBatchSize   int

	// Notifications
	NotifyWebhookURL string
	NotifyTimeout    time.Duration

	// Logging
	Environment string
	LogLevel    string
	LogFormat   string
}

// Load populates Config from the environment and validates it.
func Load() (*Config, error) {
	p := &parser{}
	cfg := &Config{
		PostgresConn:   os.Getenv("POSTGRES_CONN"),
		RunMigrations:  p.boolean("RUN_MIGRATIONS", true),
		DBMaxOpenConns: p.integer("DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns: p.integer("DB_MAX_IDLE_CONNS", 10),

		ServerAddress:   getEnv("SERVER_ADDRESS", "0.0.0.0:8080"),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		JWTSecret:       os.Getenv("JWT_SECRET"),

		CommissionRate:   p.dec("COMMISSION_RATE", "0.05"),
		CommissionMinFee: p.dec("COMMISSION_MIN_FEE", "1.00"),
		RequestTTL:       p.duration("REQUEST_TTL", 30*24*time.Hour),
		TxTimeout:        p.duration("TX_TIMEOUT", 5*time.Second),
		SweepBatchSize:   p.integer("SWEEP_BATCH_SIZE", 100),

		NotifyWebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		NotifyTimeout:    p.duration("NOTIFY_TIMEOUT", 5*time.Second),

		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   strings.ToLower(os.Getenv("LOG_FORMAT")),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PostgresConn == "" {
		return fmt.Errorf("POSTGRES_CONN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.CommissionRate.IsNegative() || c.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("COMMISSION_RATE must be in [0, 1)")
	}
	// orders.commission_rate хранится как NUMERIC(6,4)
	if !c.CommissionRate.Equal(c.CommissionRate.Truncate(4)) {
		return fmt.Errorf("COMMISSION_RATE must have at most 4 decimal places")
	}
	if c.CommissionMinFee.IsNegative() {
		return fmt.Errorf("COMMISSION_MIN_FEE must be >= 0")
	}
	if c.RequestTTL <= 0 {
		return fmt.Errorf("REQUEST_TTL must be positive")
	}
	if c.TxTimeout <= 0 {
		return fmt.Errorf("TX_TIMEOUT must be positive")
	}
	if c.SweepBatchSize <= 0 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be positive")
	}
	return nil
}

// IsProduction reports whether the environment name denotes production.
func (c *Config) IsProduction() bool {
	return strings.HasPrefix(strings.ToLower(c.Environment), "prod")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parser collects malformed values instead of silently using defaults.
type parser struct {
	errs []error
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return i
}

func (p *parser) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (p *parser) dec(key, def string) decimal.Decimal {
	v := getEnv(key, def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return decimal.RequireFromString(def)
	}
	return d
}
