package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Telegram TelegramConfig
	Gemini   GeminiConfig
	Rabbit   RabbitConfig
	Ledger   LedgerConfig
	Pending  PendingConfig
	Session  SessionConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type TelegramConfig struct {
	Token       string
	VerifyToken string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type RabbitConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
	Exchange string
}

// Enabled reports whether the optional ledger-event publisher is configured.
func (c RabbitConfig) Enabled() bool {
	return c.Host != ""
}

type LedgerConfig struct {
	// DefaultIntent decides the sign of a bare "name + amount" message
	// with no payment keyword: CREDIT means the counterparty owes more.
	DefaultIntent string
	// ReconcileInterval drives the periodic history-vs-balance repair pass.
	// Zero disables it.
	ReconcileInterval time.Duration
	ReconcileBatch    int
}

type PendingConfig struct {
	// TTL for an unconfirmed staged batch, checked lazily on read.
	// Zero means staged batches never expire.
	TTL time.Duration
}

type SessionConfig struct {
	OTPTTL     time.Duration
	SessionTTL time.Duration
}

type WorkerConfig struct {
	QueueSize     int
	PerChatBuffer int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: intFromEnv("PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     intFromEnv("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "udhaar_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Telegram: TelegramConfig{
			Token:       getEnv("TELEGRAM_BOT_TOKEN", ""),
			VerifyToken: getEnv("WEBHOOK_VERIFY_TOKEN", ""),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Rabbit: RabbitConfig{
			Host:     getEnv("RABBITMQ_HOST", ""),
			Port:     intFromEnv("RABBITMQ_PORT", 5672),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:    getEnv("RABBITMQ_VHOST", "/"),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "ledger_events"),
		},
		Ledger: LedgerConfig{
			DefaultIntent:     getEnv("DEFAULT_INTENT", "CREDIT"),
			ReconcileInterval: time.Duration(intFromEnv("RECONCILE_INTERVAL_SECONDS", 0)) * time.Second,
			ReconcileBatch:    intFromEnv("RECONCILE_BATCH_SIZE", 100),
		},
		Pending: PendingConfig{
			TTL: time.Duration(intFromEnv("PENDING_TTL_SECONDS", 600)) * time.Second,
		},
		Session: SessionConfig{
			OTPTTL:     time.Duration(intFromEnv("OTP_TTL_SECONDS", 60)) * time.Second,
			SessionTTL: time.Duration(intFromEnv("SESSION_TTL_SECONDS", 60)) * time.Second,
		},
		Worker: WorkerConfig{
			QueueSize:     intFromEnv("WORKER_QUEUE_SIZE", 256),
			PerChatBuffer: intFromEnv("WORKER_CHAT_BUFFER", 16),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intFromEnv(key string, def int) int {
	val := getEnv(key, "")
	if val == "" {
		return def
	}

	if parsed, err := strconv.Atoi(val); err == nil {
		return parsed
	}

	return def
}
