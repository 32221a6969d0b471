package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		JWTSecret:          "0123456789abcdef0123456789abcdef",
		ChangeSignalSource: SignalSourcePostgres,
		OutboxBatchSize:    100,
		DBMaxConns:         20,
		DBMinConns:         2,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"insecure default", func(c *Config) { c.JWTSecret = "change-me-in-production" }, "insecure default"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "too short"},
		{"insecure allowed", func(c *Config) { c.JWTSecret = "x"; c.AllowInsecureDefaults = true }, ""},
		{"bad signal source", func(c *Config) { c.ChangeSignalSource = "redis" }, "CHANGE_SIGNAL_SOURCE"},
		{"kafka signals need kafka", func(c *Config) { c.ChangeSignalSource = SignalSourceKafka }, "KAFKA_ENABLED"},
		{"pool min above max", func(c *Config) { c.DBMinConns = 30 }, "DB_MIN_CONNS"},
		{"bad batch", func(c *Config) { c.OutboxBatchSize = 0 }, "OUTBOX_BATCH_SIZE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfigDSN(t *testing.T) {
	c := &Config{PGUser: "u", PGPassword: "p", PGHost: "db", PGPort: 5432, PGDatabase: "rl"}
	assert.Equal(t, "postgres://u:p@db:5432/rl?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://override"
	assert.Equal(t, "postgres://override", c.DSN())
}

func TestConfigAllowedOrigins(t *testing.T) {
	c := &Config{CORSAllowedOrigins: "https://admin.example.com, https://app.example.com,"}
	assert.Equal(t, []string{"https://admin.example.com", "https://app.example.com"}, c.AllowedOrigins())
}
