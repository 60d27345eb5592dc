package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SITE_URL", "https://shop.example.com/")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load(logrus.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 8, cfg.CheckoutConcurrency)
	assert.Equal(t, "https://shop.example.com", cfg.SiteURL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("SITE_URL", "https://shop.example.com")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")

	_, err := Load(logrus.New())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("mongo driver needs url", func(t *testing.T) {
		cfg := Config{StoreDriver: DriverMongo, JWTSecret: "s", SiteURL: "http://localhost:3000", GatewayTimeout: time.Second}
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := Config{StoreDriver: "redis", JWTSecret: "s", SiteURL: "http://localhost:3000", GatewayTimeout: time.Second}
		assert.Error(t, cfg.Validate())
	})

	t.Run("relative site url", func(t *testing.T) {
		cfg := Config{StoreDriver: DriverMemory, JWTSecret: "s", SiteURL: "shop.example.com", GatewayTimeout: time.Second}
		assert.Error(t, cfg.Validate())
	})

	t.Run("admin emails normalized", func(t *testing.T) {
		cfg := Config{
			StoreDriver:    DriverMemory,
			JWTSecret:      "s",
			SiteURL:        "http://localhost:3000",
			GatewayTimeout: time.Second,
			AdminEmails:    []string{" Boss@Example.com "},
		}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, []string{"boss@example.com"}, cfg.AdminEmails)
	})
}
