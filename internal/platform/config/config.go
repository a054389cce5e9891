package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean.
type Config struct {
	Addr string

	// DatabaseURL enables the PostgreSQL profile store; empty means the
	// in-memory store (development and tests).
	DatabaseURL string

	Redis RedisConfig

	// AuthBaseURL points at the hosted auth API. Empty selects the local
	// in-memory provider.
	AuthBaseURL string
	AuthAPIKey  string

	// KafkaBrokers enables the audit event publisher; empty disables it.
	KafkaBrokers []string
	AuditTopic   string

	RegistryBaseURL  string
	RegistryCacheTTL time.Duration

	Bootstrap BootstrapConfig
}

// BootstrapConfig holds the timing policy of the session bootstrap protocol
// and the profile consistency guard.
type BootstrapConfig struct {
	// PullTimeout bounds the pull-based session fetch.
	PullTimeout time.Duration
	// SafetyTimeout is the hard ceiling on the loading state. It must exceed
	// PullTimeout so the pull gets a fair chance to answer first.
	SafetyTimeout time.Duration
	// ProfileLoadTimeout bounds a single profile fetch.
	ProfileLoadTimeout time.Duration
	// ProfileWaitAttempts / ProfileWaitInterval drive the sign-up grace
	// window while the backend trigger creates the profile row.
	ProfileWaitAttempts int
	ProfileWaitInterval time.Duration
}

// RedisConfig tunes the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("USEMY_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("USEMY_DATABASE_URL"),
		AuthBaseURL:     os.Getenv("USEMY_AUTH_BASE_URL"),
		AuthAPIKey:      os.Getenv("USEMY_AUTH_API_KEY"),
		AuditTopic:      envOr("USEMY_AUDIT_TOPIC", "usemy.audit.events"),
		RegistryBaseURL: envOr("USEMY_REGISTRY_BASE_URL", "https://recherche-entreprises.api.gouv.fr"),
		// Registry responses carry company identity data; keep retention short.
		RegistryCacheTTL: envDuration("USEMY_REGISTRY_CACHE_TTL", 5*time.Minute),
		Redis: RedisConfig{
			URL:          os.Getenv("USEMY_REDIS_URL"),
			PoolSize:     envInt("USEMY_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("USEMY_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("USEMY_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("USEMY_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("USEMY_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Bootstrap: BootstrapConfig{
			PullTimeout:         envDuration("USEMY_SESSION_PULL_TIMEOUT", 2*time.Second),
			SafetyTimeout:       envDuration("USEMY_BOOTSTRAP_SAFETY_TIMEOUT", 3*time.Second),
			ProfileLoadTimeout:  envDuration("USEMY_PROFILE_LOAD_TIMEOUT", 5*time.Second),
			ProfileWaitAttempts: envInt("USEMY_PROFILE_WAIT_ATTEMPTS", 5),
			ProfileWaitInterval: envDuration("USEMY_PROFILE_WAIT_INTERVAL", 500*time.Millisecond),
		},
	}

	if brokers := os.Getenv("USEMY_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
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
