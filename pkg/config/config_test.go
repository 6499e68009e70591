package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 15*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 2, cfg.Notifications.Workers)
	assert.True(t, cfg.Exports.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CLIENT_TIMEOUT", "3s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("ASSIGNMENT_CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}
