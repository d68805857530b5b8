package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3CertificateBucket string
	CertificateURLTTL   time.Duration

	JWTPublicKeyPath string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion      string
	SNSServiceName string // recorded as external correlation on qualified sends

	TSAURL     string
	TSATimeout time.Duration

	SweepInterval      time.Duration
	DispatchMaxRetries int
	DispatchBackoff    time.Duration
	DispatchTimeout    time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Notifications string
	AuditLogs     string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			AuditLogs:     getEnv("DYNAMO_TABLE_AUDIT_LOGS", "audit_logs"),
		},

		S3CertificateBucket: getEnv("S3_CERTIFICATE_BUCKET", "notifica-certificates"),
		CertificateURLTTL:   getEnvDuration("CERTIFICATE_URL_TTL", 24*time.Hour),

		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:      getEnv("SNS_REGION", "us-east-1"),
		SNSServiceName: getEnv("SNS_SERVICE_NAME", "aws-sns"),

		TSAURL:     getEnv("TSA_URL", ""),
		TSATimeout: getEnvDuration("TSA_TIMEOUT", 10*time.Second),

		SweepInterval:      getEnvDuration("SWEEP_INTERVAL", 30*time.Second),
		DispatchMaxRetries: getEnvInt("DISPATCH_MAX_RETRIES", 3),
		DispatchBackoff:    getEnvDuration("DISPATCH_BACKOFF", 2*time.Second),
		DispatchTimeout:    getEnvDuration("DISPATCH_TIMEOUT", 2*time.Minute),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
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
