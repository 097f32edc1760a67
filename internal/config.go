package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config is the process-level configuration, loaded once from the
// environment and threaded explicitly into each component.
type Config struct {
	Env      string
	LogLevel string
	Port     uint16

	// SchedulerToken authenticates scheduled invocations of the trigger
	// endpoint. Requests without it are rejected with no side effects.
	SchedulerToken string

	// RosterPath is the JSON file holding company and client data.
	RosterPath string

	// ArtifactPrefix names archived PDFs and email attachments:
	// {prefix}-invoice-{number}.pdf
	ArtifactPrefix string

	// StepTimeoutSeconds caps each network-bound delivery step.
	StepTimeoutSeconds uint16

	Email   EmailConfig
	Alert   AlertConfig
	Storage StorageConfig
	Counter CounterConfig
}

// EmailConfig selects and configures the outbound email provider.
type EmailConfig struct {
	Provider      string // "postmark" or "smtp"
	From          string
	FromName      string
	PostmarkToken string
	SMTPHost      string
	SMTPPort      uint16
	SMTPUsername  string
	SMTPPassword  string
}

// AlertConfig addresses the operator mailbox for failure alerts.
type AlertConfig struct {
	To string
}

// StorageConfig selects and configures the artifact archive backend.
type StorageConfig struct {
	Provider      string // "local" or "s3"
	LocalPath     string
	S3Endpoint    string // optional, for R2/MinIO
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
	S3BucketName  string
}

// CounterConfig selects and configures the durable counter backend.
type CounterConfig struct {
	Provider    string // "file" or "postgres"
	FilePath    string
	DatabaseUrl string
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	cfg := &Config{
		Env:                getEnv("ENV", "dev"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnvInt("PORT", 3000),
		SchedulerToken:     getEnv("SCHEDULER_TOKEN", ""),
		RosterPath:         getEnv("ROSTER_PATH", "./roster.json"),
		ArtifactPrefix:     getEnv("ARTIFACT_PREFIX", "invoicer"),
		StepTimeoutSeconds: getEnvInt("STEP_TIMEOUT_SECONDS", 30),
		Email: EmailConfig{
			Provider:      getEnv("EMAIL_PROVIDER", "smtp"),
			From:          getEnv("EMAIL_FROM", "billing@localhost"),
			FromName:      getEnv("EMAIL_FROM_NAME", ""),
			PostmarkToken: getEnv("POSTMARK_API_TOKEN", ""),
			SMTPHost:      getEnv("SMTP_HOST", "localhost"),
			SMTPPort:      getEnvInt("SMTP_PORT", 1025),
			SMTPUsername:  getEnv("SMTP_USERNAME", ""),
			SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		},
		Alert: AlertConfig{
			To: getEnv("ALERT_TO", ""),
		},
		Storage: StorageConfig{
			Provider:      getEnv("STORAGE_PROVIDER", "local"),
			LocalPath:     getEnv("LOCAL_STORAGE_PATH", "./archive"),
			S3Endpoint:    getEnv("S3_ENDPOINT", ""),
			S3Region:      getEnv("S3_REGION", ""),
			S3AccessKeyID: getEnv("S3_ACCESS_KEY_ID", ""),
			S3SecretKey:   getEnv("S3_SECRET_ACCESS_KEY", ""),
			S3BucketName:  getEnv("S3_BUCKET_NAME", ""),
		},
		Counter: CounterConfig{
			Provider:    getEnv("COUNTER_PROVIDER", "file"),
			FilePath:    getEnv("COUNTER_FILE_PATH", "./state/last_invoice_number"),
			DatabaseUrl: getEnv("DATABASE_URL", ""),
		},
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	switch cfg.Email.Provider {
	case "postmark":
		if cfg.Email.PostmarkToken == "" {
			return nil, fmt.Errorf("POSTMARK_API_TOKEN required when using the postmark email provider")
		}
	case "smtp":
		if cfg.Email.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST required when using the smtp email provider")
		}
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Email.Provider)
	}

	if cfg.Alert.To == "" {
		return nil, fmt.Errorf("ALERT_TO must be set: operator alerts have nowhere to go")
	}

	if cfg.Env == "prod" && cfg.SchedulerToken == "" {
		return nil, fmt.Errorf("SCHEDULER_TOKEN must be set in production environment")
	}

	if cfg.Storage.Provider == "s3" {
		if cfg.Storage.S3AccessKeyID == "" || cfg.Storage.S3SecretKey == "" {
			return nil, fmt.Errorf("S3 credentials required when using S3 storage")
		}
		if cfg.Storage.S3BucketName == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME required when using S3 storage")
		}
	}

	if cfg.Counter.Provider == "postgres" && cfg.Counter.DatabaseUrl == "" {
		return nil, fmt.Errorf("DATABASE_URL required when using the postgres counter")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}
