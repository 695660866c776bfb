// Package config loads per-binary settings from the environment, reading a
// local .env file first when one exists.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Database struct {
	URL             string        `envconfig:"POSTGRES_URL" required:"true"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

type Storefront struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	ServiceVersion string        `envconfig:"SERVICE_VERSION" default:"0.1.0"`
	Database
	KafkaBrokers   []string      `envconfig:"KAFKA_BROKERS"`
	OrderTopic     string        `envconfig:"ORDER_COMPLETED_TOPIC" default:"order.completed"`
	SessionSecret  string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SecureCookies  bool          `envconfig:"SECURE_COOKIES" default:"false"`
	GuestEmail     string        `envconfig:"GUEST_EMAIL" default:"guest@example.com"`
	CartStorageKey string        `envconfig:"CART_STORAGE_KEY" default:"aethelnova-cart"`
	RejectOversell bool          `envconfig:"CHECKOUT_REJECT_OVERSELL" default:"false"`

	ImageUploadURL    string `envconfig:"IMAGE_UPLOAD_URL"`
	ImageUploadPreset string `envconfig:"IMAGE_UPLOAD_PRESET"`

	BootstrapAdminEmail    string `envconfig:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `envconfig:"BOOTSTRAP_ADMIN_PASSWORD"`
}

type Worker struct {
	ServiceVersion  string   `envconfig:"SERVICE_VERSION" default:"0.1.0"`
	KafkaBrokers    []string `envconfig:"KAFKA_BROKERS" required:"true"`
	OrderTopic      string   `envconfig:"ORDER_COMPLETED_TOPIC" default:"order.completed"`
	ConsumerGroup   string   `envconfig:"CONSUMER_GROUP" default:"receipt-worker"`
	EmailServiceURL string   `envconfig:"EMAIL_SERVICE_URL" required:"true"`
	GuestEmail      string   `envconfig:"GUEST_EMAIL" default:"guest@example.com"`
}

type Email struct {
	Port           string `envconfig:"PORT" default:"8084"`
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"0.1.0"`
}

type Migrate struct {
	PostgresURL    string `envconfig:"POSTGRES_URL" required:"true"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"file://migrations"`
}

func LoadStorefront(logger *slog.Logger) (*Storefront, error) {
	var cfg Storefront
	if err := load(logger, &cfg); err != nil {
		return nil, err
	}
	if (cfg.BootstrapAdminEmail == "") != (cfg.BootstrapAdminPassword == "") {
		return nil, errors.New("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	return &cfg, nil
}

func LoadWorker(logger *slog.Logger) (*Worker, error) {
	var cfg Worker
	if err := load(logger, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadEmail(logger *slog.Logger) (*Email, error) {
	var cfg Email
	if err := load(logger, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadMigrate(logger *slog.Logger) (*Migrate, error) {
	var cfg Migrate
	if err := load(logger, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func load(logger *slog.Logger, cfg any) error {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to load .env file, continuing", "error", err)
		}
	} else {
		logger.Info("loaded configuration from .env file")
	}

	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("process environment: %w", err)
	}
	return nil
}
