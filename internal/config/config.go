package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yigit/admissions/internal/pkg/apperrors"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port        string `yaml:"port" env:"SERVER_PORT"`
		Mode        string `yaml:"mode" env:"SERVER_MODE"`
		StoragePath string `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
		// AllowedOrigins restricts browser origins on the event feed; empty allows any
		AllowedOrigins []string `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		// MigrationsDir overrides the migrations bundled in the binary
		MigrationsDir string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	Redis struct {
		Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		TTL      string `yaml:"ttl" env:"REDIS_TTL"`
	} `yaml:"redis"`

	Auth struct {
		// JWTSecret verifies bearer tokens issued by the upstream identity provider.
		// When empty the actor is taken from the X-Actor header.
		JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
		Issuer    string `yaml:"issuer" env:"AUTH_ISSUER"`
	} `yaml:"auth"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Admissions struct {
		OfferValidity string `yaml:"offer_validity" env:"ADMISSIONS_OFFER_VALIDITY"`
		CollegeName   string `yaml:"college_name" env:"ADMISSIONS_COLLEGE_NAME"`
	} `yaml:"admissions"`

	Documents struct {
		// Mode is "local" (render into storage) or "http" (remote document service)
		Mode       string `yaml:"mode" env:"DOCUMENTS_MODE"`
		ServiceURL string `yaml:"service_url" env:"DOCUMENTS_SERVICE_URL"`
		Timeout    string `yaml:"timeout" env:"DOCUMENTS_TIMEOUT"`
	} `yaml:"documents"`

	Email struct {
		Host        string   `yaml:"host" env:"SMTP_HOST"`
		Port        int      `yaml:"port" env:"SMTP_PORT"`
		Username    string   `yaml:"username" env:"SMTP_USERNAME"`
		Password    string   `yaml:"password" env:"SMTP_PASSWORD"`
		FromName    string   `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail   string   `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS      bool     `yaml:"use_tls" env:"SMTP_USE_TLS"`
		AdminEmails []string `yaml:"admin_emails" env:"ADMIN_EMAILS"`
		Timeout     string   `yaml:"timeout" env:"SMTP_TIMEOUT"`
		RatePerSec  float64  `yaml:"rate_per_sec" env:"SMTP_RATE_PER_SEC"`
		Burst       int      `yaml:"burst" env:"SMTP_BURST"`
	} `yaml:"email"`
}

// LoadConfig loads configuration from a .env file, a YAML file and environment variables,
// in increasing order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.StoragePath = "uploads"

	config.Database.Driver = "postgres"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "admissions"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.Redis.Addr = "localhost:6379"
	config.Redis.TTL = "24h"

	config.Auth.Issuer = "admissions.college.edu"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Admissions.OfferValidity = "720h"
	config.Admissions.CollegeName = "Northfield College"

	config.Documents.Mode = "local"
	config.Documents.Timeout = "15s"

	config.Email.Port = 587
	config.Email.FromName = "Admissions Office"
	config.Email.FromEmail = "admissions@college.edu"
	config.Email.Timeout = "10s"
	config.Email.RatePerSec = 5
	config.Email.Burst = 10
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "postgres":
		if config.Database.Host == "" {
			return apperrors.NewConfigurationError("database host is required")
		}
		if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
			return apperrors.NewConfigurationError("invalid database conn_max_lifetime: %v", err)
		}
	case "memory":
	default:
		return apperrors.NewConfigurationError("unsupported database driver %q", config.Database.Driver)
	}

	if _, err := time.ParseDuration(config.Admissions.OfferValidity); err != nil {
		return apperrors.NewConfigurationError("invalid offer validity: %v", err)
	}
	if _, err := time.ParseDuration(config.Documents.Timeout); err != nil {
		return apperrors.NewConfigurationError("invalid documents timeout: %v", err)
	}
	if _, err := time.ParseDuration(config.Email.Timeout); err != nil {
		return apperrors.NewConfigurationError("invalid smtp timeout: %v", err)
	}

	switch config.Documents.Mode {
	case "local":
	case "http":
		if config.Documents.ServiceURL == "" {
			return apperrors.NewConfigurationError("documents.service_url is required in http mode")
		}
	default:
		return apperrors.NewConfigurationError("unsupported documents mode %q", config.Documents.Mode)
	}

	// No host means mock delivery; a host without credentials is a broken real channel.
	if config.Email.Host != "" && (config.Email.Username == "" || config.Email.Password == "") {
		return apperrors.NewConfigurationError("smtp host %s configured without credentials", config.Email.Host)
	}

	if config.Redis.Enabled {
		if config.Redis.Addr == "" {
			return apperrors.NewConfigurationError("redis addr is required when redis is enabled")
		}
		if _, err := time.ParseDuration(config.Redis.TTL); err != nil {
			return apperrors.NewConfigurationError("invalid redis ttl: %v", err)
		}
	}

	return nil
}

// MailMockMode reports whether notifications are logged instead of delivered
func (c *Config) MailMockMode() bool {
	return strings.TrimSpace(c.Email.Host) == ""
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
