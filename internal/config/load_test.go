package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(
		WithEnvLookup(noEnv),
		WithReadFile(func(string) ([]byte, error) { return nil, os.ErrNotExist }),
		WithHomeDir(func() (string, error) { return "/home/frog", nil }),
	)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultChatModel, cfg.ChatModel)
	assert.Equal(t, 100*time.Millisecond, cfg.MonitorInterval)
	assert.Equal(t, 3, cfg.MinMessageLength)
	assert.Equal(t, time.Second, cfg.DebounceWindow)
	assert.Equal(t, 40*time.Millisecond, cfg.DeletePause)
	assert.Equal(t, 200, cfg.MaxDeleteAttempts)
	assert.Equal(t, 60*time.Second, cfg.CooldownExtension)
	assert.Equal(t, 2*time.Second, cfg.ReleaseBuffer)
	assert.Equal(t, 20, cfg.MaxImages)
	assert.Equal(t, "/home/frog/.rizzly/downloads", cfg.DownloadDir)
	assert.Equal(t, "button[aria-label=\"Next Photo\"]", cfg.Selectors.NextButton)
	assert.Equal(t, "/app/messages", cfg.ConversationPath)
}

func TestLoadFileOverrides(t *testing.T) {
	file := `{
		"api_key": "sn-test-key",
		"chat_model": "Other-Model",
		"monitor_interval_ms": 250,
		"max_delete_attempts": 50,
		"headless": false,
		"selectors": {"next_button": "button.next"}
	}`
	cfg, err := Load(
		WithEnvLookup(noEnv),
		WithFilePath("/tmp/rizzly.json"),
		WithReadFile(func(path string) ([]byte, error) {
			require.Equal(t, "/tmp/rizzly.json", path)
			return []byte(file), nil
		}),
		WithHomeDir(func() (string, error) { return "/home/frog", nil }),
	)
	require.NoError(t, err)

	assert.Equal(t, "sn-test-key", cfg.APIKey)
	assert.Equal(t, "Other-Model", cfg.ChatModel)
	assert.Equal(t, 250*time.Millisecond, cfg.MonitorInterval)
	assert.Equal(t, 50, cfg.MaxDeleteAttempts)
	assert.False(t, cfg.Headless)
	// Partial selector overrides merge with defaults.
	assert.Equal(t, "button.next", cfg.Selectors.NextButton)
	assert.Equal(t, "div.keen-slider", cfg.Selectors.Carousel)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	env := map[string]string{
		"RIZZLY_API_KEY":  "env-key",
		"RIZZLY_HEADLESS": "false",
	}
	cfg, err := Load(
		WithEnvLookup(func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		}),
		WithFilePath("/tmp/rizzly.json"),
		WithReadFile(func(string) ([]byte, error) {
			return []byte(`{"api_key": "file-key"}`), nil
		}),
		WithHomeDir(func() (string, error) { return "/home/frog", nil }),
	)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.APIKey)
	assert.False(t, cfg.Headless)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	cfg, err := Load(
		WithEnvLookup(noEnv),
		WithFilePath("/nonexistent/config.json"),
		WithReadFile(func(string) ([]byte, error) { return nil, os.ErrNotExist }),
		WithHomeDir(func() (string, error) { return "/home/frog", nil }),
	)
	require.NoError(t, err)
	assert.Equal(t, DefaultStartURL, cfg.StartURL)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	_, err := Load(
		WithEnvLookup(noEnv),
		WithFilePath("/tmp/bad.json"),
		WithReadFile(func(string) ([]byte, error) { return []byte("{nope"), nil }),
		WithHomeDir(func() (string, error) { return "/home/frog", nil }),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
