package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full application configuration, loaded once at startup
// from environment variables.
type Config struct {
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Hold      HoldConfig

	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// AvailabilityTTL is deliberately short: tier availability is a
	// best-effort read-through and the ledger is the source of truth.
	AvailabilityTTL time.Duration
	CacheTTL        time.Duration
}

type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	LifecycleTopic string
}

type JWTConfig struct {
	Secret string
}

type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	PublicRequests  int           `json:"public_requests"`
	OrderRequests   int           `json:"order_requests"`
	AdminRequests   int           `json:"admin_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// HoldConfig controls cash-hold expiry. CashHoldDuration is stamped
// onto each cash order at creation; SweepInterval is how often the
// background job looks for lapsed holds.
type HoldConfig struct {
	CashHoldDuration time.Duration
	SweepInterval    time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:           envStr("PORT", "8080"),
		GinMode:        envStr("GIN_MODE", "debug"),
		APIVersion:     envStr("API_VERSION", "v1"),
		APIPrefix:      envStr("API_PREFIX", "/api"),
		ReadTimeout:    envDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   envDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    envDuration("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: envInt("MAX_HEADER_BYTES", 1<<20),

		Database: DatabaseConfig{
			Host:     envStr("DB_HOST", "localhost"),
			Port:     envStr("DB_PORT", "5432"),
			Name:     envStr("DB_NAME", "tickethub_db"),
			User:     envStr("DB_USER", "tickethub_user"),
			Password: envStr("DB_PASSWORD", "tickethub_password"),
			SSLMode:  envStr("DB_SSLMODE", "disable"),
		},

		Redis: RedisConfig{
			Host:            envStr("REDIS_HOST", "localhost"),
			Port:            envStr("REDIS_PORT", "6379"),
			Password:        envStr("REDIS_PASSWORD", ""),
			DB:              envInt("REDIS_DB", 0),
			AvailabilityTTL: envDuration("REDIS_AVAILABILITY_TTL", 10*time.Second),
			CacheTTL:        envDuration("REDIS_CACHE_TTL", 1*time.Hour),
		},

		Kafka: KafkaConfig{
			Enabled:        envBool("KAFKA_ENABLED", false),
			Brokers:        envList("KAFKA_BROKERS", []string{"localhost:9092"}),
			LifecycleTopic: envStr("KAFKA_ORDER_LIFECYCLE_TOPIC", "order-lifecycle"),
		},

		JWT: JWTConfig{
			Secret: envStr("JWT_SECRET", "your-super-secret-jwt-key"),
		},

		RateLimit: RateLimitConfig{
			Enabled:         envBool("RATE_LIMIT_ENABLED", true),
			WindowDuration:  envDuration("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: envInt("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:  envInt("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			OrderRequests:   envInt("RATE_LIMIT_ORDER_REQUESTS", 20),
			AdminRequests:   envInt("RATE_LIMIT_ADMIN_REQUESTS", 200),
			WhitelistedIPs:  envList("RATE_LIMIT_WHITELISTED_IPS", nil),
		},

		Hold: HoldConfig{
			CashHoldDuration: envDuration("CASH_HOLD_DURATION", 30*time.Minute),
			SweepInterval:    envDuration("HOLD_SWEEP_INTERVAL", 5*time.Minute),
		},

		LogLevel: envStr("LOG_LEVEL", "debug"),
	}

	cfg.Database.DSN = fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
		cfg.Database.Password, cfg.Database.Name, cfg.Database.SSLMode,
	)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envList parses a comma-separated variable, dropping empty entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func (c *Config) IsDevelopment() bool { return c.GinMode == "debug" }

func (c *Config) GetServerAddress() string { return ":" + c.Port }

// GetAPIBasePath is the mount point for all versioned routes.
func (c *Config) GetAPIBasePath() string { return c.APIPrefix + "/" + c.APIVersion }
