package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agri-ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.True(t, cfg.Features.BadgeAwards)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  shutdownTimeout: 5s
database:
  driver: postgres
  dsn: postgres://ledger@localhost/agri_ledger?sslmode=disable
cache:
  backend: redis
  redisAddr: localhost:6379
  ttl: 30s
events:
  kafka:
    brokers: ["localhost:9092"]
    topic: ledger
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Events.Kafka.Brokers)
	assert.Equal(t, int32(3), cfg.Events.Kafka.Partitions)
	require.NoError(t, cfg.Validate())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \"9090\"\n")
	t.Setenv("AGRILEDGER_SERVER_PORT", "7070")
	t.Setenv("AGRILEDGER_RATE_LIMIT_ENABLED", "false")
	t.Setenv("AGRILEDGER_CACHE_TTL", "2m")
	t.Setenv("AGRILEDGER_EVENTS_KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Events.Kafka.Brokers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }},
		{"cert without key", func(c *Config) { c.Server.CertFile = "cert.pem" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"zero rate", func(c *Config) { c.RateLimit.Rate = 0 }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"tracing without endpoint", func(c *Config) { c.Tracing.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
