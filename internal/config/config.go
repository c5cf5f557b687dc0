package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	SnowflakeNode int64
	SeedOnEmpty   bool

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Snapshot SnapshotConfig
	Redis    RedisConfig
	Kafka    KafkaConfig

	RateLimit RateLimitConfig
	Scheduler SchedulerConfig
}

// SnapshotConfig selects where store collections are persisted.
type SnapshotConfig struct {
	Backend     string
	Compression string
	KeyPrefix   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	ClientID string
}

// RateLimitConfig throttles citizen submissions (complaints, reviews) per
// client. It needs redis.
type RateLimitConfig struct {
	Enabled         bool
	SubmissionRate  float64
	SubmissionBurst int
}

// SchedulerConfig drives the background maintenance loop.
type SchedulerConfig struct {
	Enabled       bool
	RunInterval   time.Duration
	FlushInterval time.Duration
	EnabledJobs   []string
}

const (
	SnapshotBackendDatabase = "database"
	SnapshotBackendRedis    = "redis"
	SnapshotBackendMemory   = "memory"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:       getenv("APP_SERVICE", "snelcrm"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		Environment:   getenv("ENVIRONMENT", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		SnowflakeNode: getenvInt64("SNOWFLAKE_NODE", 1),
		SeedOnEmpty:   getenvBool("SEED_ON_EMPTY", true),
		OTLPEndpoint:  getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "snelcrm"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "snelcrm.db"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 10)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),

		Snapshot: SnapshotConfig{
			Backend:     normalizeBackend(getenv("SNAPSHOT_BACKEND", SnapshotBackendDatabase)),
			Compression: strings.ToLower(strings.TrimSpace(getenv("SNAPSHOT_COMPRESSION", "none"))),
			KeyPrefix:   strings.TrimSpace(getenv("SNAPSHOT_KEY_PREFIX", "")),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       int(getenvInt64("REDIS_DB", 0)),
		},
		Kafka: KafkaConfig{
			Enabled:  getenvBool("KAFKA_ENABLED", false),
			Brokers:  splitList(getenv("KAFKA_BROKERS", "localhost:9092")),
			Topic:    getenv("KAFKA_TOPIC", "snelcrm.events"),
			ClientID: getenv("KAFKA_CLIENT_ID", "snelcrm"),
		},
		RateLimit: RateLimitConfig{
			Enabled:         getenvBool("RATE_LIMIT_ENABLED", false),
			SubmissionRate:  getenvFloat("RATE_LIMIT_SUBMISSION_RATE", 0.2),
			SubmissionBurst: int(getenvInt64("RATE_LIMIT_SUBMISSION_BURST", 5)),
		},
		Scheduler: SchedulerConfig{
			Enabled:       getenvBool("SCHEDULER_ENABLED", true),
			RunInterval:   getenvDuration("SCHEDULER_RUN_INTERVAL", 30*time.Second),
			FlushInterval: getenvDuration("SCHEDULER_FLUSH_INTERVAL", 15*time.Minute),
			EnabledJobs:   splitList(getenv("SCHEDULER_ENABLED_JOBS", "")),
		},
	}

	return cfg
}

// IsProduction reports whether the service runs in the production environment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func normalizeBackend(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case SnapshotBackendRedis:
		return SnapshotBackendRedis
	case SnapshotBackendMemory:
		return SnapshotBackendMemory
	case SnapshotBackendDatabase, "db", "":
		return SnapshotBackendDatabase
	default:
		return SnapshotBackendDatabase
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
