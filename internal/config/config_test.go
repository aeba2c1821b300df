package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.True(t, cfg.Store.SeedDemo)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 5000, cfg.Import.MaxRows)
	assert.Equal(t, "30-M", cfg.RateLimit.Uploads)
	assert.Equal(t, "static", cfg.Portal.Checker)
	assert.Len(t, cfg.CORS.AllowedOrigins, 3)
	assert.Empty(t, cfg.Notify.Recipients)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PAYOPS_STORE_DRIVER", "Postgres")
	t.Setenv("PAYOPS_SESSION_STORE", "redis")
	t.Setenv("PAYOPS_SESSION_TTL", "5m")
	t.Setenv("PAYOPS_NOTIFY_PROVIDER", "ses")
	t.Setenv("PAYOPS_NOTIFY_RECIPIENTS", "ops@acme.example, ar@acme.example")
	t.Setenv("PAYOPS_CORS_ALLOWED_ORIGINS", "https://app.acme.example")
	t.Setenv("PORT", "9000")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, []string{"ops@acme.example", "ar@acme.example"}, cfg.Notify.Recipients)
	assert.Equal(t, []string{"https://app.acme.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, ":9000", cfg.Server.Port)
}

func TestLoad_RejectsUnknownChoices(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PAYOPS_STORE_DRIVER", "mysql")

	_, err := Load()

	assert.ErrorContains(t, err, "store.driver")
}

func TestLoad_SESNeedsRecipients(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PAYOPS_NOTIFY_PROVIDER", "ses")
	t.Setenv("PAYOPS_NOTIFY_RECIPIENTS", "")

	_, err := Load()

	assert.ErrorContains(t, err, "notify.recipients")
}

func TestDSN(t *testing.T) {
	d := DBConfig{User: "u", Password: "p", Host: "db", Port: 5433, Name: "payops", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5433/payops?sslmode=require", d.DSN())
}
