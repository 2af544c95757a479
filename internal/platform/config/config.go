package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the complete runtime configuration, read once at startup.
type Config struct {
	Server    Server
	Database  DatabaseConfig
	Redis     RedisConfig
	Blob      BlobConfig
	Kafka     KafkaConfig
	Lifecycle LifecycleConfig
	Reporting ReportingConfig
	Log       LogConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	JWTSigningKey  string
	JWTIssuer      string
	RequestTimeout time.Duration
}

// DatabaseConfig configures the Postgres pool. An empty URL runs every store
// in memory, which is only suitable for local demos.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RunMigrations   bool
	TxTimeout       time.Duration
}

// RedisConfig configures the Redis client backing the public intake limiter.
// An empty URL selects the in-memory limiter.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// PublicSubmitLimit is the number of public submissions allowed per client IP per window.
	PublicSubmitLimit  int
	PublicSubmitWindow time.Duration
}

// BlobConfig configures the MinIO bucket holding evidence and documents.
// An empty endpoint keeps attachments in process memory.
type BlobConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// KafkaConfig configures the notification sink. No brokers means notifications are only logged.
type KafkaConfig struct {
	Brokers           []string
	Topic             string
	Partitions        int
	ReplicationFactor int
	// BreakerThreshold consecutive publish failures pause publishing for BreakerCooldown.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// LifecycleConfig holds the complaint lifecycle policy switches.
type LifecycleConfig struct {
	RejectPolicy string
	AssignPolicy string
}

// ReportingConfig configures the dashboards.
type ReportingConfig struct {
	Timezone string
	SLADays  int
}

// LogConfig selects slog level and handler.
type LogConfig struct {
	Level  string
	Format string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Server: Server{
			Addr:           getEnv("COMPLAINT_DESK_ADDR", ":8080"),
			JWTSigningKey:  jwtSigningKey,
			JWTIssuer:      getEnv("JWT_ISSUER", "complaintdesk"),
			RequestTimeout: getDuration("REQUEST_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			RunMigrations:   getBool("DATABASE_RUN_MIGRATIONS", true),
			TxTimeout:       getDuration("DATABASE_TX_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:                os.Getenv("REDIS_URL"),
			PoolSize:           getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:       getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:        getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:        getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:       getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PublicSubmitLimit:  getInt("PUBLIC_SUBMIT_LIMIT", 5),
			PublicSubmitWindow: getDuration("PUBLIC_SUBMIT_WINDOW", time.Hour),
		},
		Blob: BlobConfig{
			Endpoint:      os.Getenv("MINIO_ENDPOINT"),
			AccessKey:     os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey:     os.Getenv("MINIO_SECRET_KEY"),
			Bucket:        getEnv("MINIO_BUCKET", "complaint-files"),
			UseSSL:        getBool("MINIO_USE_SSL", false),
			PublicBaseURL: os.Getenv("MINIO_PUBLIC_BASE_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:           splitCSV(os.Getenv("KAFKA_BROKERS")),
			Topic:             getEnv("KAFKA_NOTIFY_TOPIC", "complaint-notifications"),
			Partitions:        getInt("KAFKA_NOTIFY_PARTITIONS", 1),
			ReplicationFactor: getInt("KAFKA_NOTIFY_REPLICATION", 1),
			BreakerThreshold:  getInt("KAFKA_BREAKER_THRESHOLD", 5),
			BreakerCooldown:   getDuration("KAFKA_BREAKER_COOLDOWN", time.Minute),
		},
		Lifecycle: LifecycleConfig{
			RejectPolicy: getEnv("REJECT_POLICY", "any"),
			AssignPolicy: getEnv("ASSIGN_POLICY", "any"),
		},
		Reporting: ReportingConfig{
			Timezone: getEnv("REPORT_TIMEZONE", "Asia/Bangkok"),
			SLADays:  getInt("SLA_DAYS", 50),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
