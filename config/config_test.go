package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("APP_ENV", "development")

	cfg := Load()
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.Equal(t, "account-events", cfg.RabbitMQAccountQueue)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("EVENTS_ENABLED", "true")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.True(t, cfg.EventsEnabled)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{StoreDriver: StoreMemory, BcryptCost: bcrypt.DefaultCost, Env: "development", JWTAccessSecret: "devaccesssecret"}
	}
	require.NoError(t, base().Validate())

	c := base()
	c.StoreDriver = "mongo"
	assert.Error(t, c.Validate())

	c = base()
	c.BcryptCost = bcrypt.MaxCost + 1
	assert.Error(t, c.Validate())

	c = base()
	c.Env = "production"
	assert.Error(t, c.Validate())
	c.JWTAccessSecret = "real"
	assert.NoError(t, c.Validate())
}

func TestPostgresDSN(t *testing.T) {
	c := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", c.PostgresDSN())
}
