package config_test

import (
	"testing"
	"time"

	"bidmarket/internal/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("POSTGRES_CONN", "postgres://localhost/bidmarket?sslmode=disable")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress)
	assert.True(t, cfg.CommissionRate.Equal(decimal.RequireFromString("0.05")))
	assert.True(t, cfg.CommissionMinFee.Equal(decimal.RequireFromString("1")))
	assert.Equal(t, 720*time.Hour, cfg.RequestTTL)
	assert.Equal(t, 5*time.Second, cfg.TxTimeout)
	assert.True(t, cfg.RunMigrations)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("COMMISSION_RATE", "0.08")
	t.Setenv("TX_TIMEOUT", "2s")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.CommissionRate.Equal(decimal.RequireFromString("0.08")))
	assert.Equal(t, 2*time.Second, cfg.TxTimeout)
	assert.False(t, cfg.RunMigrations)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("POSTGRES_CONN", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := config.Load()
	assert.ErrorContains(t, err, "POSTGRES_CONN")

	t.Setenv("POSTGRES_CONN", "postgres://x")
	t.Setenv("JWT_SECRET", "")
	_, err = config.Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	setRequired(t)
	t.Setenv("REQUEST_TTL", "a month")
	_, err := config.Load()
	assert.ErrorContains(t, err, "REQUEST_TTL")

	t.Setenv("REQUEST_TTL", "")
	t.Setenv("COMMISSION_RATE", "1.5")
	_, err = config.Load()
	assert.ErrorContains(t, err, "COMMISSION_RATE")
}

func TestCommissionRatePrecision(t *testing.T) {
	setRequired(t)
	t.Setenv("COMMISSION_RATE", "0.12345")
	_, err := config.Load()
	assert.ErrorContains(t, err, "4 decimal places")

	t.Setenv("COMMISSION_RATE", "0.1235")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.CommissionRate.Equal(decimal.RequireFromString("0.1235")))
}
