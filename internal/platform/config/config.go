// Package config loads service configuration from environment variables
// so main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	AdminToken  string
	// TracingEnabled switches catalog spans from the noop tracer to the
	// OpenTelemetry adapter, emitting through the global tracer provider.
	TracingEnabled bool
}

// RedisConfig holds Redis connection configuration.
// An empty URL means Redis is not configured and in-memory fallbacks are used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds Kafka connection configuration for the audit pipeline.
// Empty Brokers means Kafka is not configured and audit events stay in the
// local store only.
type KafkaConfig struct {
	Brokers       string
	AuditTopic    string
	ConsumerGroup string
}

// Enabled reports whether Kafka is configured.
func (k KafkaConfig) Enabled() bool {
	return k.Brokers != ""
}

// RegistryConfig holds configuration for the university course registry client.
type RegistryConfig struct {
	BaseURL        string
	FallbackURL    string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSigningKey   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SessionTTL      time.Duration
}

// AuditConfig holds configuration for the audit outbox pipeline.
type AuditConfig struct {
	OutboxBatchSize    int
	OutboxPollInterval time.Duration
	PublishBuffer      int
}

// EvaluationConfig holds graduation evaluation tunables.
type EvaluationConfig struct {
	// RequestTimeout bounds a single evaluation request end to end.
	RequestTimeout time.Duration
}

// RateLimitConfig holds request throttling limits. A non-positive limit
// disables throttling for that scope.
type RateLimitConfig struct {
	AuthLimit        int
	AuthWindow       time.Duration
	EvaluationLimit  int
	EvaluationWindow time.Duration
}

// DatabaseEnv holds database connection configuration from the environment.
// An empty URL means Postgres is not configured and in-memory stores are used.
type DatabaseEnv struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Config aggregates all sections.
type Config struct {
	Server     Server
	Database   DatabaseEnv
	Redis      RedisConfig
	Kafka      KafkaConfig
	Registry   RegistryConfig
	Auth       AuthConfig
	Audit      AuditConfig
	Evaluation EvaluationConfig
	RateLimit  RateLimitConfig
	Seed       bool
}

// FromEnv builds the full configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:           envOr("GRADUS_ADDR", ":8080"),
			Environment:    envOr("GRADUS_ENV", "development"),
			AdminToken:     os.Getenv("GRADUS_ADMIN_TOKEN"),
			TracingEnabled: envBool("GRADUS_TRACING_ENABLED", false),
		},
		Database: DatabaseEnv{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       os.Getenv("KAFKA_BROKERS"),
			AuditTopic:    envOr("KAFKA_AUDIT_TOPIC", "gradus.audit.events"),
			ConsumerGroup: envOr("KAFKA_CONSUMER_GROUP", "gradus-audit-writer"),
		},
		Registry: RegistryConfig{
			BaseURL:        os.Getenv("COURSE_REGISTRY_URL"),
			FallbackURL:    os.Getenv("COURSE_REGISTRY_FALLBACK_URL"),
			RequestTimeout: envDuration("COURSE_REGISTRY_TIMEOUT", 5*time.Second),
			CacheTTL:       envDuration("COURSE_CACHE_TTL", 10*time.Minute),
		},
		Auth: AuthConfig{
			JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			AccessTokenTTL:  envDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: envDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
			SessionTTL:      envDuration("SESSION_TTL", 30*24*time.Hour),
		},
		Audit: AuditConfig{
			OutboxBatchSize:    envInt("AUDIT_OUTBOX_BATCH_SIZE", 100),
			OutboxPollInterval: envDuration("AUDIT_OUTBOX_POLL_INTERVAL", 2*time.Second),
			PublishBuffer:      envInt("AUDIT_PUBLISH_BUFFER", 256),
		},
		Evaluation: EvaluationConfig{
			RequestTimeout: envDuration("EVALUATION_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			AuthLimit:        envInt("RATELIMIT_AUTH_LIMIT", 10),
			AuthWindow:       envDuration("RATELIMIT_AUTH_WINDOW", time.Minute),
			EvaluationLimit:  envInt("RATELIMIT_EVALUATION_LIMIT", 30),
			EvaluationWindow: envDuration("RATELIMIT_EVALUATION_WINDOW", time.Minute),
		},
		Seed: envBool("GRADUS_SEED", false),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
