package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL is required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// External gateways
	PushGatewayURL  string
	EmailWebhookURL string
	GatewayTimeout  time.Duration

	// Rate limiting: maximum outbound requests per second per gateway channel
	RateLimit int

	// Queue buffer capacity per job kind
	QueueCapacity int

	// Job retry policy: number of re-deliveries after the first attempt.
	// The default of 1 gives at-most-one-retry; 0 disables retries.
	JobMaxRetries int

	// Retry backoff durations: index 0 = first retry delay, etc.
	RetryBackoff []time.Duration

	// Retry worker poll interval
	RetryInterval time.Duration

	// Queued/processing rows not touched for this long are considered
	// stranded (their channel item was lost to a restart) and re-enqueued.
	// Must comfortably exceed the longest expected queue wait + job runtime.
	RecoveryGrace time.Duration

	// Batch chunking: chunk size and the pause between consecutive chunks
	ChunkSize  int
	ChunkDelay time.Duration

	// Role classification
	StudentEmailPattern string
	TeacherEmailDomain  string
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		PushGatewayURL:  getEnv("PUSH_GATEWAY_URL", "https://push.gateway.example/api/v2/send"),
		EmailWebhookURL: getEnv("EMAIL_WEBHOOK_URL", "https://email.webhook.example/send"),
		GatewayTimeout:  getDuration("GATEWAY_TIMEOUT", 10*time.Second),

		RateLimit: getInt("RATE_LIMIT_PER_CHANNEL", 100),

		QueueCapacity: getInt("QUEUE_CAPACITY", 1000),

		JobMaxRetries: getInt("JOB_MAX_RETRIES", 1),

		RetryBackoff: []time.Duration{
			getDuration("RETRY_BACKOFF_1", 10*time.Second),
			getDuration("RETRY_BACKOFF_2", 60*time.Second),
		},

		RetryInterval: getDuration("RETRY_INTERVAL", 10*time.Second),
		RecoveryGrace: getDuration("RECOVERY_GRACE", 5*time.Minute),

		ChunkSize:  getInt("BATCH_CHUNK_SIZE", 100),
		ChunkDelay: getDuration("BATCH_CHUNK_DELAY", time.Second),

		StudentEmailPattern: getEnv("STUDENT_EMAIL_PATTERN", `^u\d{7}@campus\.edu$`),
		TeacherEmailDomain:  getEnv("TEACHER_EMAIL_DOMAIN", "@faculty.campus.edu"),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
