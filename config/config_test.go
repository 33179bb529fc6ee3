package config

import (
	"testing"
	"time"

	"cursedticket/clock"
	"cursedticket/entity"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "POSTGRES_URL", "REDIS_ADDR", "LOG_LEVEL", "RESERVE_CAPACITY", "REFUND_POLICY", "IDEMPOTENCY_TTL", "CLOCK_FIXED_AT"} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_defaults(t *testing.T) {
	clearEnv(t)

	c, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, logrus.InfoLevel, c.LogLevel)
	assert.True(t, c.ReserveCapacity)
	assert.Equal(t, entity.RefundBasePrice, c.RefundPolicy)
	assert.Equal(t, 24*time.Hour, c.IdempotencyTTL)
	assert.Nil(t, c.ClockFixedAt)
	assert.IsType(t, clock.Real{}, c.Clock())
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RESERVE_CAPACITY", "false")
	t.Setenv("REFUND_POLICY", "paid_price")
	t.Setenv("IDEMPOTENCY_TTL", "15m")
	t.Setenv("CLOCK_FIXED_AT", "2026-10-31T23:00:00Z")

	c, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.HTTPAddr)
	assert.Equal(t, logrus.DebugLevel, c.LogLevel)
	assert.False(t, c.ReserveCapacity)
	assert.Equal(t, entity.RefundPaidPrice, c.RefundPolicy)
	assert.Equal(t, 15*time.Minute, c.IdempotencyTTL)
	assert.Equal(t, time.Date(2026, 10, 31, 23, 0, 0, 0, time.UTC), c.Clock().Now())
}

func TestFromEnv_invalid(t *testing.T) {
	for key, value := range map[string]string{
		"LOG_LEVEL":      "loud",
		"REFUND_POLICY":  "double",
		"CLOCK_FIXED_AT": "yesterday",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := fromEnv()
			assert.Error(t, err)
		})
	}
}
