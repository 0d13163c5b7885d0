package config

import (
	"fmt"

	pkgconfig "github.com/clangauge0314/react-fashion-ecommerce/pkg/config"
	"github.com/clangauge0314/react-fashion-ecommerce/pkg/validator"
)

// Config holds all configuration for the catalog service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development" validate:"oneof=development staging production"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080" validate:"gte=1,lte=65535"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost" validate:"required"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432" validate:"gte=1,lte=65535"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"catalog"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"catalog_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"catalog_db" validate:"required"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost" validate:"required"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379" validate:"gte=1,lte=65535"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:"," validate:"min=1,dive,required"`

	// Asset storage
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"./uploads" validate:"required"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"" validate:"omitempty,url"`

	// Auth
	JWTSecret string `env:"AUTH_JWT_SECRET,required" validate:"required"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate catalog config: %w", err)
	}
	return cfg, nil
}
