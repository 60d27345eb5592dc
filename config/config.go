package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StoreDriver   string `envconfig:"STORE_DRIVER"   default:"mongo"`
	MongoURL      string `envconfig:"MONGO_URL"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"storefront"`

	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL      time.Duration `envconfig:"JWT_TTL"    default:"24h"`
	AdminEmails []string      `envconfig:"ADMIN_EMAILS"`
	CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`

	SiteURL             string        `envconfig:"SITE_URL"              required:"true"`
	StripeSecretKey     string        `envconfig:"STRIPE_SECRET_KEY"     required:"true"`
	StripeWebhookSecret string        `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	Currency            string        `envconfig:"CURRENCY"              default:"usd"`
	GatewayTimeout      time.Duration `envconfig:"GATEWAY_TIMEOUT"       default:"10s"`
	CheckoutConcurrency int           `envconfig:"CHECKOUT_CONCURRENCY"  default:"8"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads an optional .env file and then the process environment.
func Load(logger *logrus.Logger) (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logger.Warnf("Error loading .env file (but continuing): %v", err)
	} else if err == nil {
		logger.Info("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Infof("Configuration loaded: HTTP Port=%s, LogLevel=%s, StoreDriver=%s", cfg.HTTPPort, cfg.LogLevel, cfg.StoreDriver)
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURL == "" {
			return errors.New("MONGO_URL is required when STORE_DRIVER=mongo")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if !strings.HasPrefix(c.SiteURL, "http://") && !strings.HasPrefix(c.SiteURL, "https://") {
		return fmt.Errorf("SITE_URL must be an absolute http(s) URL, got %q", c.SiteURL)
	}
	c.SiteURL = strings.TrimRight(c.SiteURL, "/")
	if c.GatewayTimeout <= 0 {
		return errors.New("GATEWAY_TIMEOUT must be positive")
	}
	if c.CheckoutConcurrency <= 0 {
		c.CheckoutConcurrency = 8
	}
	for i, email := range c.AdminEmails {
		c.AdminEmails[i] = strings.ToLower(strings.TrimSpace(email))
	}
	return nil
}
