package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewhub/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Upload.MaxFiles)
	assert.Equal(t, int64(500*1024*1024), cfg.Upload.MaxFileSizeBytes())
	assert.Equal(t, 30*time.Minute, cfg.Upload.TaskTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Upload.SSEInterval)
	assert.Equal(t, 30*time.Minute, cfg.Upload.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, 5*time.Second, cfg.Client.CompletionGrace)
	assert.Equal(t, "noop", cfg.Email.Provider)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REVIEWHUB_UPLOAD_CONCURRENCY", "4")
	t.Setenv("REVIEWHUB_UPLOAD_TASK_TTL", "10m")
	t.Setenv("REVIEWHUB_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("REVIEWHUB_LOG_FILE", "/tmp/reviewhub.log")
	t.Setenv("REVIEWHUB_UPLOAD_REQUEST_TIMEOUT", "0s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Upload.Concurrency)
	assert.Equal(t, 10*time.Minute, cfg.Upload.TaskTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "/tmp/reviewhub.log", cfg.Log.File)
	assert.Zero(t, cfg.Upload.RequestTimeout)
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)

	t.Setenv("REVIEWHUB_SERVER_PORT", ":7070")
	cfg, err = config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Port)
}

func TestLoad_RejectsBatchAboveLimit(t *testing.T) {
	t.Setenv("REVIEWHUB_UPLOAD_MAX_FILES", "9")
	_, err := config.Load()
	assert.Error(t, err)
}
