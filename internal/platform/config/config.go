package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "civicfix/pkg/platform/strings"
)

// Config captures everything main needs to wire the service. FromEnv keeps
// main lean; defaults favor local development and are overridden in
// deployment.
type Config struct {
	Addr        string
	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
	JWT         JWTConfig
	SMTP        SMTPConfig
	Evidence    EvidenceConfig
	AdminSeed   AdminSeedConfig
}

// RedisConfig configures the token revocation store. An empty URL disables
// Redis; logout then degrades to token expiry.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the lifecycle event publisher. Empty brokers
// disable publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type JWTConfig struct {
	SigningKey string
	Issuer     string
	TTL        time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EvidenceConfig configures the image store chain. When UploadURL is empty
// the media service is considered unconfigured and uploads go straight to
// the local-disk store.
type EvidenceConfig struct {
	UploadURL     string
	APIKey        string
	UploadTimeout time.Duration
	LocalDir      string
	LocalBaseURL  string
}

// AdminSeedConfig bootstraps the single administrator account. Admins are
// never created through registration.
type AdminSeedConfig struct {
	Email    string
	Password string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:        getEnv("CIVICFIX_ADDR", ":8080"),
		DatabaseURL: os.Getenv("CIVICFIX_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("CIVICFIX_REDIS_URL"),
			PoolSize:     getEnvInt("CIVICFIX_REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("CIVICFIX_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("CIVICFIX_KAFKA_BROKERS")),
			Topic:   getEnv("CIVICFIX_KAFKA_TOPIC", "civicfix.complaint-status"),
		},
		JWT: JWTConfig{
			// Dev default; must be overridden in production.
			SigningKey: getEnv("CIVICFIX_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     getEnv("CIVICFIX_JWT_ISSUER", "civicfix"),
			TTL:        getEnvDuration("CIVICFIX_JWT_TTL", 72*time.Hour),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("CIVICFIX_MAIL_HOST"),
			Port:     getEnvInt("CIVICFIX_MAIL_PORT", 587),
			Username: os.Getenv("CIVICFIX_MAIL_USER"),
			Password: os.Getenv("CIVICFIX_MAIL_PASS"),
			From:     getEnv("CIVICFIX_MAIL_FROM", "CivicFix <no-reply@civicfix.local>"),
		},
		Evidence: EvidenceConfig{
			UploadURL:     os.Getenv("CIVICFIX_MEDIA_UPLOAD_URL"),
			APIKey:        os.Getenv("CIVICFIX_MEDIA_API_KEY"),
			UploadTimeout: getEnvDuration("CIVICFIX_MEDIA_TIMEOUT", 15*time.Second),
			LocalDir:      getEnv("CIVICFIX_UPLOAD_DIR", "uploads"),
			LocalBaseURL:  getEnv("CIVICFIX_UPLOAD_BASE_URL", "http://localhost:8080/uploads"),
		},
		AdminSeed: AdminSeedConfig{
			Email:    os.Getenv("CIVICFIX_ADMIN_EMAIL"),
			Password: os.Getenv("CIVICFIX_ADMIN_PASSWORD"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return platformstrings.DedupeAndTrim(strings.Split(s, ","))
}
