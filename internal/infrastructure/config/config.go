package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Feed trigger kinds accepted by FEED_TRIGGER.
const (
	TriggerChangeStream = "changestream"
	TriggerRedis        = "redis"
	TriggerPoll         = "poll"
	TriggerNone         = "none"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	JWTSecret string `env:"JWT_SECRET"`

	SessionTTL   time.Duration `env:"SESSION_TTL,   default=24h"`
	CookieSecure bool          `env:"COOKIE_SECURE, default=false"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Feed      FeedConfig
	Dashboard DashboardConfig

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	SeedEmail    string `env:"SEED_EMAIL,    default=demo@example.com"`
	SeedPassword string `env:"SEED_PASSWORD, default=password123"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=product_dashboard"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type FeedConfig struct {
	Trigger      string        `env:"FEED_TRIGGER,       default=changestream"`
	Channel      string        `env:"FEED_CHANNEL,       default=productdash:changes"`
	PollInterval time.Duration `env:"FEED_POLL_INTERVAL, default=5s"`
}

type DashboardConfig struct {
	Addr       string `env:"DASHBOARD_ADDR, default=127.0.0.1:3000"`
	APIBaseURL string `env:"API_BASE_URL,   default=http://localhost:8080"`
}

// IsDevelopment reports whether ENV selects the development profile.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// ValidateAPI checks the settings the API process cannot run without.
func (c *Config) ValidateAPI() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWTSecret) < 16 && !c.IsDevelopment() {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 bytes outside development"))
	}
	switch c.Feed.Trigger {
	case TriggerChangeStream, TriggerRedis, TriggerPoll, TriggerNone:
	default:
		errs = append(errs, fmt.Errorf("FEED_TRIGGER %q is not one of changestream, redis, poll, none", c.Feed.Trigger))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// Load reads a .env file in development, then the environment, using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	if env := os.Getenv("ENV"); env == "" || env == "development" || env == "dev" {
		// a missing .env is fine
		_ = godotenv.Load()
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
