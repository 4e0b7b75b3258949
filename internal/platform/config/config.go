// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server       Server
	Log          Log
	Database     Database
	Redis        RedisConfig
	Kafka        Kafka
	Certificates Certificates
	Commission   Commission
	Payments     Payments
	Email        Email
	Directory    Directory
	Events       Events
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"CAMPUS_ADDR" env-default:":8080"`
	Environment     string        `env:"CAMPUS_ENV" env-default:"development"`
	RegulatedMode   bool          `env:"REGULATED_MODE" env-default:"false"`
	PublicBaseURL   string        `env:"PUBLIC_BASE_URL" env-default:"http://localhost:8080"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY" env-default:"dev-secret-key-change-in-production"`
	JWTIssuer       string        `env:"JWT_ISSUER" env-default:"campus"`
	JWTAudience     string        `env:"JWT_AUDIENCE" env-default:"campus-api"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" env-default:"15m"`
	TrustedProxies  []string      `env:"TRUSTED_PROXIES" env-separator:","`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" env-default:"30s"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" env-default:"40s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type Log struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

// Database is optional; an empty URL keeps certificate and payment data in memory.
type Database struct {
	URL             string        `env:"DATABASE_URL"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" env-default:"true"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
}

// RedisConfig is optional; an empty URL keeps the audit log and settings in memory.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	KeyPrefix    string        `env:"REDIS_KEY_PREFIX" env-default:"campus:"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" env-default:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" env-default:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" env-default:"3s"`
}

// Kafka is optional; without brokers issued-certificate events are not exported.
type Kafka struct {
	Brokers          string        `env:"KAFKA_BROKERS"`
	CertificateTopic string        `env:"KAFKA_CERTIFICATE_TOPIC" env-default:"campus.certificates.issued"`
	Acks             string        `env:"KAFKA_ACKS" env-default:"all"`
	Retries          int           `env:"KAFKA_RETRIES" env-default:"3"`
	DeliveryTimeout  time.Duration `env:"KAFKA_DELIVERY_TIMEOUT" env-default:"30s"`
}

type Certificates struct {
	IntegrityAlgorithm     string `env:"CERT_INTEGRITY_ALGORITHM" env-default:"checksum"`
	IntegrityKey           string `env:"CERT_INTEGRITY_KEY"`
	PlatformName           string `env:"CERT_PLATFORM_NAME" env-default:"EduPlatform"`
	AuditLogCap            int    `env:"AUDIT_LOG_CAP" env-default:"1000"`
	AutoIssueAttendance    bool   `env:"CERT_AUTO_ISSUE_ATTENDANCE" env-default:"true"`
	AutoIssueExam          bool   `env:"CERT_AUTO_ISSUE_EXAM" env-default:"true"`
	AutoIssuePath          bool   `env:"CERT_AUTO_ISSUE_PATH" env-default:"true"`
	AttendanceThreshold    int    `env:"CERT_ATTENDANCE_THRESHOLD" env-default:"80"`
	ExamPassingScore       int    `env:"CERT_EXAM_PASSING_SCORE" env-default:"70"`
	PathCompletionRequired int    `env:"CERT_PATH_COMPLETION_REQUIRED" env-default:"100"`
}

type Commission struct {
	DefaultRate     float64 `env:"COMMISSION_DEFAULT_RATE" env-default:"70"`
	MinimumPayout   float64 `env:"COMMISSION_MINIMUM_PAYOUT" env-default:"50"`
	PaymentSchedule string  `env:"COMMISSION_PAYMENT_SCHEDULE" env-default:"monthly"`
	PaymentMethod   string  `env:"COMMISSION_PAYMENT_METHOD" env-default:"bank_transfer"`
	TaxHandling     string  `env:"COMMISSION_TAX_HANDLING" env-default:"creator_responsible"`
	SchedulerOn     bool    `env:"COMMISSION_SCHEDULER_ENABLED" env-default:"true"`
}

type Payments struct {
	Gateway             string        `env:"PAYMENT_GATEWAY" env-default:"simulated"`
	Currency            string        `env:"PAYMENT_CURRENCY" env-default:"USD"`
	SimulatedDelay      time.Duration `env:"PAYMENT_SIMULATED_DELAY" env-default:"2s"`
	SuccessRate         float64       `env:"PAYMENT_SUCCESS_RATE" env-default:"0.9"`
	MidtransServerKey   string        `env:"MIDTRANS_SERVER_KEY"`
	MidtransEnvironment string        `env:"MIDTRANS_ENVIRONMENT" env-default:"sandbox"`
	BreakerFailures     int           `env:"PAYMENT_BREAKER_FAILURES" env-default:"5"`
	BreakerCooldown     time.Duration `env:"PAYMENT_BREAKER_COOLDOWN" env-default:"30s"`
}

// Email is optional; without an API key certificate emails are skipped.
type Email struct {
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	FromAddress    string `env:"EMAIL_FROM_ADDRESS" env-default:"certificates@campus.local"`
	FromName       string `env:"EMAIL_FROM_NAME" env-default:"EduPlatform Certificates"`
}

type Directory struct {
	SeedPath string `env:"DIRECTORY_SEED_PATH"`
}

type Events struct {
	// AsyncBuffer > 0 dispatches events on a background worker with this queue size.
	AsyncBuffer int `env:"EVENTS_ASYNC_BUFFER" env-default:"0"`
}

// Load reads the environment. Callers load any .env file first.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Certificates.IntegrityAlgorithm {
	case "checksum":
	case "blake2b":
		if c.Certificates.IntegrityKey == "" {
			return fmt.Errorf("CERT_INTEGRITY_KEY is required when CERT_INTEGRITY_ALGORITHM=blake2b")
		}
		if len(c.Certificates.IntegrityKey) > 64 {
			return fmt.Errorf("CERT_INTEGRITY_KEY must be at most 64 bytes")
		}
	default:
		return fmt.Errorf("CERT_INTEGRITY_ALGORITHM must be checksum or blake2b, got %q", c.Certificates.IntegrityAlgorithm)
	}
	if c.Certificates.AuditLogCap < 1 {
		return fmt.Errorf("AUDIT_LOG_CAP must be positive")
	}
	if c.Commission.DefaultRate < 0 || c.Commission.DefaultRate > 100 {
		return fmt.Errorf("COMMISSION_DEFAULT_RATE must be within 0..100")
	}
	if c.Payments.SuccessRate < 0 || c.Payments.SuccessRate > 1 {
		return fmt.Errorf("PAYMENT_SUCCESS_RATE must be within 0..1")
	}
	switch c.Payments.Gateway {
	case "simulated":
	case "midtrans":
		if c.Payments.MidtransServerKey == "" {
			return fmt.Errorf("MIDTRANS_SERVER_KEY is required when PAYMENT_GATEWAY=midtrans")
		}
	default:
		return fmt.Errorf("PAYMENT_GATEWAY must be simulated or midtrans, got %q", c.Payments.Gateway)
	}
	if c.Events.AsyncBuffer < 0 {
		return fmt.Errorf("EVENTS_ASYNC_BUFFER must not be negative")
	}
	return nil
}
