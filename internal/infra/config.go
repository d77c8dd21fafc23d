package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	insecureJWTSecret     = "change-me-in-production"
	insecureAdminPassword = "admin123"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"scorecast"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"scorecast"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"scorecast"`

	// JWT
	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	// Server
	APIPort            int    `env:"API_PORT" envDefault:"3100"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	LoginRateLimit     int    `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Enable only behind a proxy that sets them.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Fixture feed
	FootballDataAPIKey  string        `env:"FOOTBALL_DATA_API_KEY"`
	FootballDataBaseURL string        `env:"FOOTBALL_DATA_BASE_URL" envDefault:"https://api.football-data.org/v4"`
	FeedTimeout         time.Duration `env:"FEED_TIMEOUT" envDefault:"10s"`
	CompetitionCode     string        `env:"COMPETITION_CODE" envDefault:"PL"`
	SyncDaysBack        int           `env:"SYNC_DAYS_BACK" envDefault:"30"`
	SyncDaysAhead       int           `env:"SYNC_DAYS_AHEAD" envDefault:"30"`
	RefreshDaysBack     int           `env:"REFRESH_DAYS_BACK" envDefault:"7"`

	// Scheduler
	SchedulerEnabled bool          `env:"SCHEDULER_ENABLED" envDefault:"false"`
	SyncSchedule     time.Duration `env:"SYNC_SCHEDULE" envDefault:"6h"`
	RefreshSchedule  time.Duration `env:"REFRESH_SCHEDULE" envDefault:"15m"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// Seed
	SeedAdminUsername string `env:"SEED_ADMIN_USERNAME" envDefault:"admin"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD" envDefault:"admin123"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadDotenv loads the given .env files (default ".env") into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
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
	if c.FeedTimeout <= 0 {
		return fmt.Errorf("FEED_TIMEOUT must be positive")
	}
	if c.SyncDaysBack < 0 || c.SyncDaysAhead < 0 || c.RefreshDaysBack < 0 {
		return fmt.Errorf("sync day windows must not be negative")
	}
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == insecureJWTSecret {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	if c.SeedAdminPassword == insecureAdminPassword {
		return fmt.Errorf("SEED_ADMIN_PASSWORD is set to the insecure default")
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
