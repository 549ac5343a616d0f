package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port      string
	MongoURI  string
	DBName    string
	JWTSecret string

	// SMTP settings; Host empty disables outbound email.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// S3 cover archive; Bucket empty disables it.
	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string

	// Bootstrap admin account, seeded at startup when missing.
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

func Load() (*Config, error) {
	smtpPort := 587
	if v := getEnv("SMTP_PORT", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("SMTP_PORT must be a positive integer, got %q", v)
		}
		smtpPort = n
	}
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("MONGODB_DB", "bookcatalog"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      smtpPort,
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:      getEnv("SMTP_FROM", "noreply@bookcatalog.local"),
		S3Bucket:      getEnv("AWS_S3_BUCKET", ""),
		S3Region:      getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@bookcatalog.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
