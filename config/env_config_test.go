package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvConfigDefaults(t *testing.T) {
	cfg := LoadEnvConfig()

	assert.Equal(t, "localhost", cfg.RabbitMQ.Host)
	assert.Equal(t, "5672", cfg.RabbitMQ.Port)
	assert.Equal(t, "guest", cfg.RabbitMQ.Username)
	assert.Equal(t, "staging-uploads", cfg.Upload.StagingBucket)
	assert.Equal(t, 24*time.Hour, cfg.Upload.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.Upload.RouteCacheTTL)
	assert.Equal(t, int64(4194304), cfg.Upload.DefaultMaxSize)
	assert.Equal(t, "upload-gateway", cfg.Grafana.ServiceName)
	assert.Equal(t, "development", cfg.Environment.Mode)
}

func TestLoadEnvConfigOverrides(t *testing.T) {
	t.Setenv("UPLOAD_STAGING_BUCKET", "tmp-bucket")
	t.Setenv("UPLOAD_SESSION_TTL", "2h")
	t.Setenv("UPLOAD_DEFAULT_MAX_SIZE", "1048576")
	t.Setenv("GRAFANA_OTLP_ENDPOINT", "https://otlp.example.com")

	cfg := LoadEnvConfig()
	assert.Equal(t, "tmp-bucket", cfg.Upload.StagingBucket)
	assert.Equal(t, 2*time.Hour, cfg.Upload.SessionTTL)
	assert.Equal(t, int64(1048576), cfg.Upload.DefaultMaxSize)
	assert.Equal(t, "otlp.example.com", cfg.Grafana.OTLPEndpoint, "protocol must be stripped")
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("garbage", time.Minute))
	assert.Equal(t, 90*time.Second, parseDuration("90s", time.Minute))
}
