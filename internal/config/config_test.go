package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func noFile(string) ([]byte, error) { return nil, errors.New("unexpected read") }

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(envOf(nil), noFile)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 60*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 100, cfg.RateLimit.AnonPerDay)
	assert.Equal(t, 1000, cfg.RateLimit.UserPerDay)
	assert.Empty(t, cfg.HTTP.TrustedProxies)
	assert.True(t, cfg.Log.Development)

	assert.Error(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	file := []byte(`
env: production
http:
  port: "9000"
jwt:
  secret: from-file-secret-that-is-long-enough
  access_ttl: 30m
cors:
  allowed_origins: [https://a.example, https://b.example]
analysis:
  cache_ttl: 1m
`)
	read := func(path string) ([]byte, error) {
		assert.Equal(t, "/etc/bibliolab.yaml", path)
		return file, nil
	}

	cfg, err := load(envOf(map[string]string{
		"CONFIG_FILE":  "/etc/bibliolab.yaml",
		"APP_PORT":     "9100",
		"DATABASE_URL": "postgres://localhost/bibliolab",
		"REDIS_ADDR":   "localhost:6379",
	}), read)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "9100", cfg.HTTP.Port)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, time.Minute, cfg.Analysis.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.Log.Development)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidEnv(t *testing.T) {
	_, err := load(envOf(map[string]string{"RATE_LIMIT_ANON_PER_DAY": "lots"}), noFile)
	assert.ErrorContains(t, err, "RATE_LIMIT_ANON_PER_DAY")
}

func TestValidate_ShortSecretOutsideDevelopment(t *testing.T) {
	cfg := Default()
	cfg.Env = "production"
	cfg.Database.URL = "postgres://db"
	cfg.JWT.Secret = "short"
	assert.ErrorContains(t, cfg.Validate(), "at least 32")

	cfg.Env = "development"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Tracing(t *testing.T) {
	cfg, err := load(envOf(map[string]string{
		"OTEL_ENABLED":                "true",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "collector:4318",
		"OTEL_SAMPLER_RATIO":          "0.5",
	}), noFile)
	require.NoError(t, err)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "collector:4318", cfg.Tracing.Endpoint)
	assert.Equal(t, 0.5, cfg.Tracing.SampleRatio)

	cfg.Tracing.SampleRatio = 2
	assert.ErrorContains(t, cfg.Validate(), "OTEL_SAMPLER_RATIO")

	_, err = load(envOf(map[string]string{"OTEL_SAMPLER_RATIO": "half"}), noFile)
	assert.ErrorContains(t, err, "OTEL_SAMPLER_RATIO")
}

func TestLoad_TrustedProxies(t *testing.T) {
	cfg, err := load(envOf(map[string]string{
		"HTTP_TRUSTED_PROXIES": "10.0.0.1, 10.0.1.0/24",
	}), noFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "10.0.1.0/24"}, cfg.HTTP.TrustedProxies)
}
