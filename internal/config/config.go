package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Cache backends selectable with CACHE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendNone     = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	CacheTTL     time.Duration
	CacheBackend string
	DatabaseURL  string

	// SweepInterval schedules background sweeps of expired entries. Zero
	// leaves sweeping to cachectl and the admin endpoint.
	SweepInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MemoSize int
	MemoTTL  time.Duration

	// Provider credentials. An empty or placeholder key disables the provider.
	RentCastAPIKey  string
	RentCastBaseURL string
	AttomAPIKey     string
	AttomBaseURL    string
	ProviderTimeout time.Duration

	// Kafka publishing is enabled when KafkaBrokers is non-empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// LoadEnvFile loads variables from path into the process environment
// without overriding ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cacheDays, err := positiveInt("PROPERTY_CACHE_DAYS", 30)
	if err != nil {
		return nil, err
	}

	redisDB, err := nonNegativeInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	memoSize, err := nonNegativeInt("MEMO_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	memoTTL, err := duration("MEMO_TTL", "5m", true)
	if err != nil {
		return nil, err
	}

	providerTimeout, err := duration("PROVIDER_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}

	sweepInterval, err := duration("CACHE_SWEEP_INTERVAL", "0s", true)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if raw := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CacheTTL:     time.Duration(cacheDays) * 24 * time.Hour,
		CacheBackend: strings.ToLower(sharedcfg.EnvOrDefault("CACHE_BACKEND", BackendPostgres)),
		DatabaseURL:  sharedcfg.EnvOrDefault("DATABASE_URL", "postgres://localhost:5432/bver?sslmode=disable"),

		SweepInterval: sweepInterval,

		RedisAddr:     sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		MemoSize: memoSize,
		MemoTTL:  memoTTL,

		RentCastAPIKey:  os.Getenv("RENTCAST_API_KEY"),
		RentCastBaseURL: sharedcfg.EnvOrDefault("RENTCAST_BASE_URL", "https://api.rentcast.io/v1"),
		AttomAPIKey:     os.Getenv("ATTOM_API_KEY"),
		AttomBaseURL:    sharedcfg.EnvOrDefault("ATTOM_BASE_URL", "https://api.attomdata.com/property/v4"),
		ProviderTimeout: providerTimeout,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "property-resolved"),
	}

	switch cfg.CacheBackend {
	case BackendPostgres, BackendRedis, BackendNone:
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: want postgres, redis or none", cfg.CacheBackend)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func positiveInt(name string, def int) (int, error) {
	n, err := intEnv(name, def)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}
	return n, nil
}

func nonNegativeInt(name string, def int) (int, error) {
	n, err := intEnv(name, def)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", name)
	}
	return n, nil
}

func intEnv(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

// duration parses a Go duration. Zero is accepted only when allowZero is set.
func duration(name, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}
	return d, nil
}
