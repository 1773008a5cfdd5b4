package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ADMIN_PASSWORD", "admin")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.HTTP.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Store.CartIdleTTL)
	assert.Zero(t, cfg.Store.OrderRetention)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 2*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 3, cfg.Auth.OTPMaxAttempts)
	assert.Empty(t, cfg.Broker.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.Geocoder.Timeout)
	assert.False(t, cfg.Telemetry.StdoutTraces)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("CART_IDLE_TTL", "30m")
	t.Setenv("ORDER_RETENTION", "2160h")
	t.Setenv("OTP_MAX_ATTEMPTS", "5")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")
	t.Setenv("OTEL_TRACES_STDOUT", "true")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Store.CartIdleTTL)
	assert.Equal(t, 90*24*time.Hour, cfg.Store.OrderRetention)
	assert.Equal(t, 5, cfg.Auth.OTPMaxAttempts)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Broker.KafkaBrokers)
	assert.True(t, cfg.Telemetry.StdoutTraces)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_RejectsMalformedValues(t *testing.T) {
	setRequired(t)
	t.Setenv("TOKEN_TTL", "two hours")
	t.Setenv("OTP_MAX_ATTEMPTS", "many")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "TOKEN_TTL")
	assert.ErrorContains(t, err, "OTP_MAX_ATTEMPTS")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTP:  HTTPConfig{Port: "4000"},
			Store: StoreConfig{Driver: "memory"},
			Auth:  AuthConfig{JWTSecret: "s", AdminPassword: "a", TokenTTL: time.Hour, OTPTTL: time.Minute, OTPMaxAttempts: 3},
			Log:   LogConfig{Level: "info", Format: "text"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT_SECRET"},
		{"missing admin password", func(c *Config) { c.Auth.AdminPassword = "" }, "ADMIN_PASSWORD"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, "STORE_DRIVER"},
		{"half vapid pair", func(c *Config) { c.Push.VAPIDPublicKey = "pub" }, "VAPID"},
		{"zero attempts", func(c *Config) { c.Auth.OTPMaxAttempts = 0 }, "OTP_MAX_ATTEMPTS"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "LOG_LEVEL"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres" }, "DATABASE_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
