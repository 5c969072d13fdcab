package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL_TEST", "sqlite://:memory:")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "sqlite://:memory:", cfg.DatabaseURL)
	assert.True(t, cfg.WithdrawalFeeRate.Equal(decimal.RequireFromString("0.005")))
	assert.True(t, cfg.WithdrawalMinFee.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "@every 1h", cfg.LotReleaseSchedule)
	assert.Equal(t, 10*time.Minute, cfg.TierCacheTTL)
}

func TestLoad_InvalidFeeRate(t *testing.T) {
	t.Setenv("WITHDRAWAL_FEE_RATE", "half a percent")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NegativeMinimumFee(t *testing.T) {
	t.Setenv("WITHDRAWAL_MIN_FEE", "-1")
	_, err := Load()
	assert.Error(t, err)
}
