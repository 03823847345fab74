package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Prediction service
	MockMode         bool
	PredictorBaseURL string
	PredictorTimeout time.Duration

	// Storage
	StorageBackend string // "local" or "redis"
	DataDir        string

	// Content store
	ContentStoreURL     string
	ContentStoreTimeout time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Postgres (audit trail)
	AuditEnabled     bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Kafka
	KafkaBrokers    []string
	CaseEventsTopic string

	// Auth
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	AdminSubjects    []string

	// Clinical vocabulary overrides
	CatalogPath string
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1*1024*1024)),

		MockMode:         getBoolEnv("MOCK_MODE", true),
		PredictorBaseURL: getEnv("PREDICTOR_BASE_URL", "http://localhost:9000"),
		PredictorTimeout: getDuration("PREDICTOR_TIMEOUT", 10*time.Second),

		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		DataDir:        getEnv("DATA_DIR", "./data"),

		ContentStoreURL:     getEnv("CONTENT_STORE_URL", ""),
		ContentStoreTimeout: getDuration("CONTENT_STORE_TIMEOUT", 15*time.Second),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		AuditEnabled:     getBoolEnv("AUDIT_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "neuroscreen"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "neuroscreen123"),
		PostgresDB:       getEnv("POSTGRES_DB", "neuroscreen"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		KafkaBrokers:    getStringSliceEnv("KAFKA_BROKERS", nil),
		CaseEventsTopic: getEnv("CASE_EVENTS_TOPIC", "case-events"),

		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		AdminSubjects:    getStringSliceEnv("ADMIN_SUBJECTS", []string{"admin"}),

		CatalogPath: getEnv("CATALOG_PATH", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
