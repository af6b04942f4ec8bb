package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration so main stays lean.
type Server struct {
	Addr          string
	JWTSigningKey string

	PostgresURL string
	Redis       RedisConfig
	Kafka       KafkaConfig

	Schedule  ScheduleConfig
	Biometric BiometricConfig
}

// RedisConfig configures the slot-availability read cache. An empty URL
// disables caching entirely.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AvailTTL     time.Duration
}

// KafkaConfig configures the audit event publisher. Empty brokers disable
// kafka publishing; events then stay on the in-process sink only.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ScheduleConfig tunes ledger generation and the periodic reconcile job.
type ScheduleConfig struct {
	ReconcileInterval time.Duration
}

// BiometricConfig carries the quality policy for capture verification.
type BiometricConfig struct {
	MinFingerprints  int
	MinFingerQuality float64
	MinFaceQuality   float64
	MinIrisQuality   float64
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:          envOr("CIVID_ADDR", ":8080"),
		JWTSigningKey: envOr("CIVID_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresURL:   os.Getenv("CIVID_POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("CIVID_REDIS_URL"),
			PoolSize:     envInt("CIVID_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CIVID_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("CIVID_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("CIVID_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("CIVID_REDIS_WRITE_TIMEOUT", 3*time.Second),
			AvailTTL:     envDuration("CIVID_AVAILABILITY_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("CIVID_KAFKA_BROKERS")),
			Topic:   envOr("CIVID_KAFKA_AUDIT_TOPIC", "civid.audit"),
		},
		Schedule: ScheduleConfig{
			ReconcileInterval: envDuration("CIVID_SCHEDULE_RECONCILE_INTERVAL", 12*time.Hour),
		},
		Biometric: BiometricConfig{
			MinFingerprints:  envInt("CIVID_MIN_FINGERPRINTS", 8),
			MinFingerQuality: envFloat("CIVID_MIN_FINGER_QUALITY", 0.6),
			MinFaceQuality:   envFloat("CIVID_MIN_FACE_QUALITY", 0.7),
			MinIrisQuality:   envFloat("CIVID_MIN_IRIS_QUALITY", 0.7),
		},
	}
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
