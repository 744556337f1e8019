package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Google     GoogleConfig
	SMTP       SMTPConfig
	Encryption EncryptionConfig
	RateLimit  RateLimitConfig
	Frontend   FrontendConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type JWTConfig struct {
	Secret         string
	RecoverySecret string
	// Session tokens live 24h, recovery tokens 1h. The store keeps reset
	// tokens for a separate 24h window before purging them.
	SessionExpiryHours    int
	RecoveryExpiryMinutes int
	ResetWindowHours      int
	// Length of auto-generated passwords handed out on registration.
	GeneratedPasswordLength int
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type EncryptionConfig struct {
	Key string
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

type FrontendConfig struct {
	URL string
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (j *JWTConfig) SessionExpiry() time.Duration {
	return time.Duration(j.SessionExpiryHours) * time.Hour
}

func (j *JWTConfig) RecoveryExpiry() time.Duration {
	return time.Duration(j.RecoveryExpiryMinutes) * time.Minute
}

func (j *JWTConfig) ResetWindow() time.Duration {
	return time.Duration(j.ResetWindowHours) * time.Hour
}

// RecoverySecretOrDefault falls back to the session secret when no dedicated
// recovery secret is configured.
func (j *JWTConfig) RecoverySecretOrDefault() string {
	if j.RecoverySecret != "" {
		return j.RecoverySecret
	}
	return j.Secret
}

func (s *SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "finza")
	v.SetDefault("DATABASE_PASSWORD", "finza_secret")
	v.SetDefault("DATABASE_NAME", "finza")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_RECOVERY_SECRET", "")
	v.SetDefault("JWT_SESSION_EXPIRY_HOURS", 24)
	v.SetDefault("JWT_RECOVERY_EXPIRY_MINUTES", 60)
	v.SetDefault("RESET_WINDOW_HOURS", 24)
	v.SetDefault("GENERATED_PASSWORD_LENGTH", 10)
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "no-reply@finza.app")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	// Load from .env file if present
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
			Env:  v.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DATABASE_HOST"),
			Port:     v.GetInt("DATABASE_PORT"),
			User:     v.GetString("DATABASE_USER"),
			Password: v.GetString("DATABASE_PASSWORD"),
			Name:     v.GetString("DATABASE_NAME"),
			SSLMode:  v.GetString("DATABASE_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret:                  v.GetString("JWT_SECRET"),
			RecoverySecret:          v.GetString("JWT_RECOVERY_SECRET"),
			SessionExpiryHours:      v.GetInt("JWT_SESSION_EXPIRY_HOURS"),
			RecoveryExpiryMinutes:   v.GetInt("JWT_RECOVERY_EXPIRY_MINUTES"),
			ResetWindowHours:        v.GetInt("RESET_WINDOW_HOURS"),
			GeneratedPasswordLength: v.GetInt("GENERATED_PASSWORD_LENGTH"),
		},
		Google: GoogleConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Encryption: EncryptionConfig{
			Key: v.GetString("ENCRYPTION_KEY"),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Frontend: FrontendConfig{
			URL: v.GetString("FRONTEND_URL"),
		},
	}

	return cfg, nil
}
