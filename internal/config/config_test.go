package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("loads yaml file with defaults applied", func(t *testing.T) {
		path := writeConfigFile(t, `
server:
  port: 9000
twilio:
  auth_token: test-token
directory:
  api_key: test-key
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "test-token", cfg.Twilio.AuthToken.Value())
		assert.Equal(t, "test-key", cfg.Directory.APIKey.Value())

		// Defaults
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, "capitolphone", cfg.Mongo.Database)
		assert.Equal(t, "json", cfg.Logging.Format)
		assert.NotEmpty(t, cfg.Directory.BaseURL)
		assert.NotEmpty(t, cfg.Audio.BaseURL)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfigFile(t, `
server:
  port: 9000
twilio:
  auth_token: file-token
`)
		t.Setenv("SERVER_PORT", "9001")
		t.Setenv("TWILIO_AUTH_TOKEN", "env-token")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 9001, cfg.Server.Port)
		assert.Equal(t, "env-token", cfg.Twilio.AuthToken.Value())
	})

	t.Run("works without a file", func(t *testing.T) {
		t.Setenv("TWILIO_AUTH_TOKEN", "env-token")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "env-token", cfg.Twilio.AuthToken.Value())
	})

	t.Run("missing auth token fails validation", func(t *testing.T) {
		path := writeConfigFile(t, `
server:
  port: 9000
`)

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "twilio.auth_token is required")
	})

	t.Run("invalid logging format is rejected", func(t *testing.T) {
		path := writeConfigFile(t, `
twilio:
  auth_token: tok
logging:
  format: xml
`)

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logging.format")
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestSecret(t *testing.T) {
	s := Secret("hunter2")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "hunter2", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}
