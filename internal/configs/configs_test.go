package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 5*time.Minute, cfg.IdleThreshold)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com,https://staging.example.com")
	t.Setenv("SWEEP_INTERVAL", "1m")
	t.Setenv("IDLE_THRESHOLD", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 30*time.Second, cfg.IdleThreshold)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsPrivilegedPort(t *testing.T) {
	t.Setenv("PORT", "80")

	_, err := LoadConfig()
	assert.Error(t, err)
}
