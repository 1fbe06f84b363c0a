package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	JWT    JWTConfig
	S3     S3Config
	Log    LogConfig
	CORS   CORSConfig
	Upload UploadConfig
	Email  EmailConfig
	Client ClientConfig
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// UploadConfig holds review upload and ingestion worker settings.
type UploadConfig struct {
	MaxFiles       int           `mapstructure:"max_files"`
	MaxFileSizeMB  int64         `mapstructure:"max_file_size_mb"`
	Concurrency    int           `mapstructure:"concurrency"`
	QueueSize      int           `mapstructure:"queue_size"`
	TaskTTL        time.Duration `mapstructure:"task_ttl"`
	SSEInterval    time.Duration `mapstructure:"sse_interval"`
	ProcessTimeout time.Duration `mapstructure:"process_timeout"`
	// RequestTimeout replaces the server read and write timeouts on upload
	// requests. Zero leaves upload requests unbounded.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// MaxFileSizeBytes returns the per-file size limit in bytes.
func (u *UploadConfig) MaxFileSizeBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// ClientConfig holds settings for the reviewctl command line client.
type ClientConfig struct {
	APIURL          string        `mapstructure:"api_url"`
	Token           string        `mapstructure:"token"`
	CompletionGrace time.Duration `mapstructure:"completion_grace"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              string        `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	Environment       string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT signing and expiry settings.
type JWTConfig struct {
	Secret             string        `mapstructure:"secret"`
	AccessTokenExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshTokenExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer             string        `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings. When File is set, logs are also
// written to a rotated file.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from environment variables with the REVIEWHUB_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REVIEWHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_header_timeout", "10s")
	v.SetDefault("server.read_timeout", "15s")
	// Progress streams stay open for the whole ingestion, so writes are
	// not time-limited by default.
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "reviewhub")
	v.SetDefault("db.password", "reviewhub_secret")
	v.SetDefault("db.name", "reviewhub_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "1h")
	v.SetDefault("jwt.refresh_expiry", "168h")
	v.SetDefault("jwt.issuer", "reviewhub")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "reviewhub-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 28)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173")

	// Upload defaults
	v.SetDefault("upload.max_files", 5)
	v.SetDefault("upload.max_file_size_mb", 500)
	v.SetDefault("upload.concurrency", 2)
	v.SetDefault("upload.queue_size", 64)
	v.SetDefault("upload.task_ttl", "30m")
	v.SetDefault("upload.sse_interval", "500ms")
	v.SetDefault("upload.process_timeout", "30m")
	v.SetDefault("upload.request_timeout", "30m")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@reviewhub.local")
	v.SetDefault("email.from_name", "ReviewHub")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	// Client defaults
	v.SetDefault("client.api_url", "http://localhost:8080/api/v1")
	v.SetDefault("client.token", "")
	v.SetDefault("client.completion_grace", "5s")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "REVIEWHUB_SERVER_PORT",
		"server.read_header_timeout": "REVIEWHUB_SERVER_READ_HEADER_TIMEOUT",
		"server.read_timeout":        "REVIEWHUB_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "REVIEWHUB_SERVER_WRITE_TIMEOUT",
		"server.environment":         "REVIEWHUB_SERVER_ENVIRONMENT",
		"db.host":                    "REVIEWHUB_DB_HOST",
		"db.port":                    "REVIEWHUB_DB_PORT",
		"db.user":                    "REVIEWHUB_DB_USER",
		"db.password":                "REVIEWHUB_DB_PASSWORD",
		"db.name":                    "REVIEWHUB_DB_NAME",
		"db.sslmode":                 "REVIEWHUB_DB_SSLMODE",
		"db.max_open":                "REVIEWHUB_DB_MAX_OPEN",
		"db.max_idle":                "REVIEWHUB_DB_MAX_IDLE",
		"jwt.secret":                 "REVIEWHUB_JWT_SECRET",
		"jwt.access_expiry":          "REVIEWHUB_JWT_ACCESS_EXPIRY",
		"jwt.refresh_expiry":         "REVIEWHUB_JWT_REFRESH_EXPIRY",
		"jwt.issuer":                 "REVIEWHUB_JWT_ISSUER",
		"s3.region":                  "REVIEWHUB_S3_REGION",
		"s3.bucket":                  "REVIEWHUB_S3_BUCKET",
		"s3.endpoint":                "REVIEWHUB_S3_ENDPOINT",
		"s3.access_key":              "REVIEWHUB_S3_ACCESS_KEY",
		"s3.secret_key":              "REVIEWHUB_S3_SECRET_KEY",
		"s3.presign_expiry":          "REVIEWHUB_S3_PRESIGN_EXPIRY",
		"log.level":                  "REVIEWHUB_LOG_LEVEL",
		"log.file":                   "REVIEWHUB_LOG_FILE",
		"log.max_size_mb":            "REVIEWHUB_LOG_MAX_SIZE_MB",
		"log.max_backups":            "REVIEWHUB_LOG_MAX_BACKUPS",
		"log.max_age_days":           "REVIEWHUB_LOG_MAX_AGE_DAYS",
		"cors.allowed_origins":       "REVIEWHUB_CORS_ALLOWED_ORIGINS",
		"upload.max_files":           "REVIEWHUB_UPLOAD_MAX_FILES",
		"upload.max_file_size_mb":    "REVIEWHUB_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.concurrency":         "REVIEWHUB_UPLOAD_CONCURRENCY",
		"upload.queue_size":          "REVIEWHUB_UPLOAD_QUEUE_SIZE",
		"upload.task_ttl":            "REVIEWHUB_UPLOAD_TASK_TTL",
		"upload.sse_interval":        "REVIEWHUB_UPLOAD_SSE_INTERVAL",
		"upload.process_timeout":     "REVIEWHUB_UPLOAD_PROCESS_TIMEOUT",
		"upload.request_timeout":     "REVIEWHUB_UPLOAD_REQUEST_TIMEOUT",
		"email.provider":             "REVIEWHUB_EMAIL_PROVIDER",
		"email.region":               "REVIEWHUB_EMAIL_REGION",
		"email.from_address":         "REVIEWHUB_EMAIL_FROM_ADDRESS",
		"email.from_name":            "REVIEWHUB_EMAIL_FROM_NAME",
		"email.frontend_url":         "REVIEWHUB_EMAIL_FRONTEND_URL",
		"client.api_url":             "REVIEWHUB_CLIENT_API_URL",
		"client.token":               "REVIEWHUB_CLIENT_TOKEN",
		"client.completion_grace":    "REVIEWHUB_CLIENT_COMPLETION_GRACE",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if REVIEWHUB_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("REVIEWHUB_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:              serverPort,
		ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
		ReadTimeout:       v.GetDuration("server.read_timeout"),
		WriteTimeout:      v.GetDuration("server.write_timeout"),
		Environment:       v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:             v.GetString("jwt.secret"),
		AccessTokenExpiry:  v.GetDuration("jwt.access_expiry"),
		RefreshTokenExpiry: v.GetDuration("jwt.refresh_expiry"),
		Issuer:             v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:      v.GetString("log.level"),
		File:       v.GetString("log.file"),
		MaxSizeMB:  v.GetInt("log.max_size_mb"),
		MaxBackups: v.GetInt("log.max_backups"),
		MaxAgeDays: v.GetInt("log.max_age_days"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Upload = UploadConfig{
		MaxFiles:       v.GetInt("upload.max_files"),
		MaxFileSizeMB:  v.GetInt64("upload.max_file_size_mb"),
		Concurrency:    v.GetInt("upload.concurrency"),
		QueueSize:      v.GetInt("upload.queue_size"),
		TaskTTL:        v.GetDuration("upload.task_ttl"),
		SSEInterval:    v.GetDuration("upload.sse_interval"),
		ProcessTimeout: v.GetDuration("upload.process_timeout"),
		RequestTimeout: v.GetDuration("upload.request_timeout"),
	}
	if cfg.Upload.MaxFiles <= 0 || cfg.Upload.MaxFiles > 5 {
		return nil, fmt.Errorf("upload.max_files must be between 1 and 5, got %d", cfg.Upload.MaxFiles)
	}
	if cfg.Upload.Concurrency <= 0 {
		return nil, fmt.Errorf("upload.concurrency must be positive, got %d", cfg.Upload.Concurrency)
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}

	cfg.Client = ClientConfig{
		APIURL:          v.GetString("client.api_url"),
		Token:           v.GetString("client.token"),
		CompletionGrace: v.GetDuration("client.completion_grace"),
	}

	return cfg, nil
}
