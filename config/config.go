package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	JWTSecret     string
	JWTTTL        time.Duration
	HTTPAddr      string
	AppBaseURL    string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPass        string
	DBName        string
	DBNameTest    string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	UserCacheTTL  time.Duration

	StorageDriver  string
	StorageTimeout time.Duration
	MinioHost      string
	MinioPort      string
	MinioUsername  string
	MinioPassword  string
	MinioUseSSL    bool
	BucketName     string
	BucketNameTest string

	TrashRetentionDays int
	SweepEnabled       bool
	SweepAt            string
	SweepLockTTL       time.Duration

	PublicAccessRate  float64
	PublicAccessBurst int
	PublicLimiterSize int

	RabbitMQURL        string
	RabbitMQHost       string
	RabbitMQPort       string
	RabbitMQUser       string
	RabbitMQPass       string
	RabbitMQVhost      string
	RabbitMQPrefetch   int
	ShareNotifyEnabled bool
	NotifyConcurrency  int
	NotifyRate         float64
	NotifyBurst        int
	NotifyRetryMax     int
	NotifyRetryDelays  []time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPass     string
	SMTPFrom     string
	SMTPTLS      bool
	SMTPStartTLS bool
}

var AppConfig Config

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvDurationList(key string, defaultValue []time.Duration) []time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := time.ParseDuration(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, parsed)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// ParseClock parses an "HH:MM" wall-clock time.
func ParseClock(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock %q", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}

// InitConfig loads configuration from the environment.
func InitConfig() {
	rabbitHost := getEnv("RABBITMQ_HOST", "localhost")
	rabbitPort := getEnv("RABBITMQ_PORT", "5672")
	rabbitUser := getEnv("RABBITMQ_USER", "guest")
	rabbitPass := getEnv("RABBITMQ_PASSWORD", "guest")
	rabbitVhost := getEnv("RABBITMQ_VHOST", "/")
	rabbitURL := getEnv("RABBITMQ_URL", "")
	if rabbitURL == "" {
		rabbitURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/%s",
			url.PathEscape(rabbitUser),
			url.PathEscape(rabbitPass),
			rabbitHost,
			rabbitPort,
			url.PathEscape(rabbitVhost),
		)
	}
	retryDelays := getEnvDurationList(
		"NOTIFY_RETRY_DELAYS",
		[]time.Duration{10 * time.Second, 1 * time.Minute, 5 * time.Minute},
	)
	smtpPort := getEnv("SMTP_PORT", "")
	AppConfig = Config{
		JWTSecret:     getEnv("JWT_SECRET", "l=ax+b"),
		JWTTTL:        getEnvDuration("JWT_TTL", 24*time.Hour),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8000"),
		AppBaseURL:    strings.TrimRight(strings.TrimSpace(getEnv("APP_BASE_URL", "")), "/"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "root"),
		DBPass:        getEnv("DB_PASS", "root"),
		DBName:        getEnv("DB_NAME", "Go_Vault"),
		DBNameTest:    getEnv("DB_NAME_TEST", "Go_Vault_Test"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		UserCacheTTL:  getEnvDuration("USER_CACHE_TTL", 10*time.Minute),

		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", "minio")),
		StorageTimeout: getEnvDuration("STORAGE_TIMEOUT", 30*time.Second),
		MinioHost:      getEnv("MINIO_HOST", "localhost"),
		MinioPort:      getEnv("MINIO_PORT", "9000"),
		MinioUsername:  getEnv("MINIO_USERNAME", "minioadmin"),
		MinioPassword:  getEnv("MINIO_PASSWORD", "minioadmin"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		BucketName:     getEnv("BUCKET_NAME", "vault"),
		BucketNameTest: getEnv("BUCKET_NAME_TEST", "vault-test"),

		TrashRetentionDays: getEnvInt("TRASH_RETENTION_DAYS", 30),
		SweepEnabled:       getEnvBool("SWEEP_ENABLED", true),
		SweepAt:            getEnv("SWEEP_AT", "02:00"),
		SweepLockTTL:       getEnvDuration("SWEEP_LOCK_TTL", 30*time.Minute),

		PublicAccessRate:  getEnvFloat("PUBLIC_ACCESS_RATE", 5),
		PublicAccessBurst: getEnvInt("PUBLIC_ACCESS_BURST", 10),
		PublicLimiterSize: getEnvInt("PUBLIC_LIMITER_SIZE", 10000),

		RabbitMQURL:        rabbitURL,
		RabbitMQHost:       rabbitHost,
		RabbitMQPort:       rabbitPort,
		RabbitMQUser:       rabbitUser,
		RabbitMQPass:       rabbitPass,
		RabbitMQVhost:      rabbitVhost,
		RabbitMQPrefetch:   getEnvInt("RABBITMQ_PREFETCH", 8),
		ShareNotifyEnabled: getEnvBool("SHARE_NOTIFY_ENABLED", false),
		NotifyConcurrency:  getEnvInt("NOTIFY_WORKER_CONCURRENCY", 2),
		NotifyRate:         getEnvFloat("NOTIFY_RATE", 1),
		NotifyBurst:        getEnvInt("NOTIFY_BURST", 2),
		NotifyRetryMax:     getEnvInt("NOTIFY_RETRY_MAX", 3),
		NotifyRetryDelays:  retryDelays,

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     smtpPort,
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPass:     getEnv("SMTP_PASS", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPTLS:      getEnvBool("SMTP_TLS", smtpPort == "465"),
		SMTPStartTLS: getEnvBool("SMTP_STARTTLS", false),
	}
}
