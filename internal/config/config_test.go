package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "ORDER-PREFIX-", cfg.Order.DisplayPrefix)
	require.Equal(t, "N3SB-TXN", cfg.Order.TxnPrefix)
	require.Equal(t, "EGP", cfg.Order.DefaultCurrency)
	require.Equal(t, "postgres", cfg.Order.SequenceBackend)
	require.Equal(t, 25, cfg.Gateway.AuthenticationLimit)
	require.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	require.Equal(t, 5, cfg.Retry.MaxAttempts)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ORDER_PREFIX", "SHOP-")
	t.Setenv("BUSY_RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("BUSY_RETRY_BASE_DELAY", "50ms")
	t.Setenv("NEW_RELIC_ENABLED", "true")
	t.Setenv("GATEWAY_TIMEOUT", "not-a-duration")

	cfg := Load()

	require.Equal(t, "SHOP-", cfg.Order.DisplayPrefix)
	require.Equal(t, 3, cfg.Retry.MaxAttempts)
	require.Equal(t, 50*time.Millisecond, cfg.Retry.BaseDelay)
	require.True(t, cfg.NewRelic.Enabled)
	require.Equal(t, 10*time.Second, cfg.Gateway.Timeout, "unparseable values fall back to the default")
}
