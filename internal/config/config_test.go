package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/rentals")
	t.Setenv("SIGNING_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 7090, cfg.HTTP.Port)
	assert.Equal(t, "http://localhost:7090", cfg.AppURL)
	assert.Equal(t, 72*time.Hour, cfg.Signing.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "contract.events", cfg.Events.Queue)
	assert.Equal(t, 5, cfg.Rentals.PaymentDueDay)
	assert.Equal(t, 30, cfg.Rentals.ExpiryWindowDays)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, "Asia/Bangkok", cfg.Location.String())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/rentals")
	t.Setenv("SIGNING_SECRET", "secret")
	t.Setenv("APP_URL", "https://rent.example.com/")
	t.Setenv("OWNER_LINE_IDS", "U1, U2,,")
	t.Setenv("SIGNING_TOKEN_TTL", "24h")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://rent.example.com", cfg.AppURL)
	assert.Equal(t, []string{"U1", "U2"}, cfg.Line.OwnerUserIDs)
	assert.Equal(t, 24*time.Hour, cfg.Signing.TokenTTL)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "missing dsn", env: map[string]string{"SIGNING_SECRET": "s"}, want: "DB_DSN"},
		{name: "missing secret", env: map[string]string{"DB_DSN": "x"}, want: "SIGNING_SECRET"},
		{name: "bad due day", env: map[string]string{"DB_DSN": "x", "SIGNING_SECRET": "s", "PAYMENT_DUE_DAY": "31"}, want: "PAYMENT_DUE_DAY"},
		{name: "bad timezone", env: map[string]string{"DB_DSN": "x", "SIGNING_SECRET": "s", "TIMEZONE": "Mars/Base"}, want: "TIMEZONE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_DSN", "")
			t.Setenv("SIGNING_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
