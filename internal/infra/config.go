package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Change signal sources for the directory syncer.
const (
	SignalSourcePostgres = "postgres"
	SignalSourceKafka    = "kafka"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL    string `env:"DATABASE_URL"`
	PGHost         string `env:"PGHOST" envDefault:"localhost"`
	PGPort         int    `env:"PGPORT" envDefault:"5435"`
	PGUser         string `env:"PGUSER" envDefault:"rentlover"`
	PGPassword     string `env:"PGPASSWORD" envDefault:"rentlover"`
	PGDatabase     string `env:"PGDATABASE" envDefault:"rentlover"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`
	// Empty searches upward from the working directory for db/migrations.
	MigrationsDir     string        `env:"MIGRATIONS_DIR"`
	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns        int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	DBApplicationName string        `env:"DB_APPLICATION_NAME" envDefault:"rentlover-api"`

	// Redis; empty keeps the directory cache in process.
	RedisURL          string        `env:"REDIS_URL"`
	DirectoryCacheTTL time.Duration `env:"DIRECTORY_CACHE_TTL" envDefault:"5m"`

	// JWT
	JWTSecret       string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTMemberExpiry string `env:"JWT_MEMBER_EXPIRY" envDefault:"24h"`
	JWTAdminExpiry  string `env:"JWT_ADMIN_EXPIRY" envDefault:"8h"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3100"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaGroupID string `env:"KAFKA_GROUP_ID" envDefault:"rentlover-directory"`
	// Topic the identity provider publishes account/profile changes to.
	KafkaIdentityTopic string `env:"KAFKA_IDENTITY_TOPIC" envDefault:"rentlover.identity.changed"`

	// Directory change signals
	ChangeSignalSource string `env:"CHANGE_SIGNAL_SOURCE" envDefault:"postgres"`

	// Reference data
	CatalogPath string `env:"CATALOG_PATH" envDefault:"config/catalog.yaml"`

	// Outbox relay
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"500ms"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`

	// External services
	MidtransServerKey string `env:"MIDTRANS_SERVER_KEY"`
	MessagingBaseURL  string `env:"MESSAGING_BASE_URL"`
	MessagingAPIKey   string `env:"MESSAGING_API_KEY"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	switch c.ChangeSignalSource {
	case SignalSourcePostgres, SignalSourceKafka:
	default:
		return fmt.Errorf("CHANGE_SIGNAL_SOURCE must be %q or %q, got %q", SignalSourcePostgres, SignalSourceKafka, c.ChangeSignalSource)
	}
	if c.ChangeSignalSource == SignalSourceKafka && !c.KafkaEnabled {
		return fmt.Errorf("CHANGE_SIGNAL_SOURCE=kafka requires KAFKA_ENABLED=true")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS/DB_MAX_CONNS out of range (%d/%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive")
	}

	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
