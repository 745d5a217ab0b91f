package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Storage  string `json:"storage"`
	Database struct {
		Host            string        `json:"host"`
		Port            string        `json:"port"`
		User            string        `json:"user"`
		Password        string        `json:"password"`
		Name            string        `json:"name"`
		SSLMode         string        `json:"sslmode"`
		SearchPath      string        `json:"schema"`
		MaxOpenConns    int           `json:"max_open_conns"`
		MaxIdleConns    int           `json:"max_idle_conns"`
		ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	} `json:"database"`
	JWT struct {
		Secret       string        `json:"secret"`
		ExpiryPeriod time.Duration `json:"expiry_period"`
	} `json:"jwt"`
	Server struct {
		Port           string        `json:"port"`
		ReadTimeout    time.Duration `json:"read_timeout"`
		WriteTimeout   time.Duration `json:"write_timeout"`
		RequestTimeout time.Duration `json:"request_timeout"`
		AllowedOrigins []string      `json:"allowed_origins"`
	}
	RateLimit struct {
		RequestsPerSecond float64 `json:"requests_per_second"`
		Burst             int     `json:"burst"`
	} `json:"rate_limit"`
	OTP struct {
		TTL         time.Duration `json:"ttl"`
		CleanupFreq time.Duration `json:"cleanup_freq"`
	} `json:"otp"`
	Email struct {
		Provider string `json:"provider"`
		From     string `json:"from"`
		FromName string `json:"from_name"`
	} `json:"email"`
	Sendgrid struct {
		APIKey string `json:"api_key"`
		From   string `json:"from"`
	} `json:"sendgrid"`
	SMTP struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"smtp"`
	LogLevel string `json:"log_level"`
	BaseURL  string `json:"base_url"`
}

func Load() *Config {
	cfg := &Config{}

	// Storage backend
	cfg.Storage = getEnv("STORAGE_DRIVER", StoragePostgres)

	// Database configuration
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", "studygroups")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.SearchPath = getEnv("DB_SCHEMA", "public")
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 25)
	cfg.Database.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)

	// JWT configuration
	cfg.JWT.Secret = getEnv("JWT_SECRET", "your-secret-key")
	cfg.JWT.ExpiryPeriod = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.ReadTimeout = time.Second * 15
	cfg.Server.WriteTimeout = time.Second * 15
	cfg.Server.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", 60*time.Second)
	cfg.Server.AllowedOrigins = []string{getEnv("CORS_ORIGIN", "http://localhost:3000")}

	// Rate limiting per client address
	cfg.RateLimit.RequestsPerSecond = getEnvFloat("RATE_LIMIT_RPS", 10)
	cfg.RateLimit.Burst = getEnvInt("RATE_LIMIT_BURST", 20)

	// One-time signup codes
	cfg.OTP.TTL = getEnvDuration("OTP_TTL", 5*time.Minute)
	cfg.OTP.CleanupFreq = getEnvDuration("OTP_CLEANUP_FREQ", time.Minute)

	// Email delivery
	cfg.Email.Provider = getEnv("EMAIL_PROVIDER", "sendgrid")
	cfg.Email.From = getEnv("EMAIL_FROM", "no-reply@studygroups.local")
	cfg.Email.FromName = getEnv("EMAIL_FROM_NAME", "Study Groups")

	// Sendgrid configuration
	cfg.Sendgrid.APIKey = getEnv("SENDGRID_API_KEY", "")
	cfg.Sendgrid.From = getEnv("SENDGRID_FROM", cfg.Email.From)

	// SMTP configuration
	cfg.SMTP.Host = getEnv("SMTP_HOST", "localhost")
	cfg.SMTP.Port = getEnvInt("SMTP_PORT", 587)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", "")

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.BaseURL = getEnv("BASE_URL", "http://localhost:8080")

	return cfg
}

// DSN returns the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
		c.Database.SearchPath,
	)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
