package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME: test-app\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "test-app", cfg.AppName)
	assert.Equal(t, "8080", cfg.APIServer.Port)
	assert.Equal(t, 2*time.Minute, cfg.Presence.Debounce)
	assert.Equal(t, 5*time.Minute, cfg.Presence.OnlineWindow)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadConfigFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
DATABASE:
  TYPE: memory
PRESENCE:
  DEBOUNCE: 1m
  ONLINE_WINDOW: 3m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("API_SERVER_PORT", "9999")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Type)
	assert.Equal(t, time.Minute, cfg.Presence.Debounce)
	assert.Equal(t, 3*time.Minute, cfg.Presence.OnlineWindow)
	assert.Equal(t, "9999", cfg.APIServer.Port)
}

func TestValidateRejectsOnlineWindowBelowDebounce(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{Type: "memory"},
		Auth:     AuthConfig{JWTSecretKey: "secret"},
		Presence: PresenceConfig{Debounce: 5 * time.Minute, OnlineWindow: 2 * time.Minute},
	}
	assert.Error(t, cfg.Validate())

	cfg.Presence.OnlineWindow = 10 * time.Minute
	assert.NoError(t, cfg.Validate())

	cfg.Database.Type = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestKafkaEnabled(t *testing.T) {
	assert.False(t, KafkaConfig{}.Enabled())
	assert.False(t, KafkaConfig{Brokers: []string{""}}.Enabled())
	assert.True(t, KafkaConfig{Brokers: []string{"localhost:9092"}}.Enabled())
}
