package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_ENV", "LOG_LEVEL", "PORT", "STORAGE_BACKEND", "DATABASE_URL", "SERVICE_TOKEN",
	"ALLOWED_ORIGINS", "TIMEZONE", "RECONCILE_INTERVAL", "R2_BUCKET_NAME", "CLOUDFLARE_ACCOUNT_ID",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "development", c.Env)
	assert.Equal(t, 5200, c.Port)
	assert.Equal(t, BackendPostgres, c.StorageBackend)
	assert.Equal(t, time.Hour, c.ReconcileInterval)
	assert.Equal(t, []string{"http://localhost:3000"}, c.AllowedOrigins)
	assert.False(t, c.ExportEnabled())
}

func TestLoadFromDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"STORAGE_BACKEND=memory\nSERVICE_TOKEN=s3cret\nALLOWED_ORIGINS=https://a.example, https://b.example\nTIMEZONE=Africa/Dar_es_Salaam\nRECONCILE_INTERVAL=15m\n",
	), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, BackendMemory, c.StorageBackend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, 15*time.Minute, c.ReconcileInterval)
	require.NotNil(t, c.Location)
	assert.Equal(t, "Africa/Dar_es_Salaam", c.Location.String())
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "abc")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("RECONCILE_INTERVAL", "soon")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:               "production",
			Port:              5200,
			StorageBackend:    BackendPostgres,
			DatabaseURL:       "postgres://localhost/progress",
			ServiceToken:      "token",
			Timezone:          "UTC",
			ReconcileInterval: time.Hour,
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"missing dsn":       func(c *Config) { c.DatabaseURL = "" },
		"unknown backend":   func(c *Config) { c.StorageBackend = "redis" },
		"bad env":           func(c *Config) { c.Env = "prod" },
		"missing token":     func(c *Config) { c.ServiceToken = "" },
		"bad timezone":      func(c *Config) { c.Timezone = "Mars/Olympus" },
		"tiny interval":     func(c *Config) { c.ReconcileInterval = time.Second },
		"port out of range": func(c *Config) { c.Port = 70000 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
