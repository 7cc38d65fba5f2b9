package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STUDIO_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, 10*time.Second, cfg.VideoPollInterval())
	assert.Equal(t, "gemini-2.5-flash", cfg.Models.Text)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "studio.toml")
	content := `
port = "9000"
store = "memory"
log_format = "json"
video_poll_seconds = 3

[models]
text = "file-model"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("STUDIO_CONFIG", path)
	t.Setenv("STUDIO_PORT", ":9100")
	t.Setenv("STUDIO_MODEL_IMAGE", "env-image")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 3*time.Second, cfg.VideoPollInterval())
	assert.Equal(t, "file-model", cfg.Models.Text)
	assert.Equal(t, "env-image", cfg.Models.Image)
}

func TestLoadRejectsBadInteger(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STUDIO_CONFIG", "")
	t.Setenv("STUDIO_VIDEO_POLL_SECONDS", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STUDIO_VIDEO_POLL_SECONDS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"postgres without url", func(c *Config) { c.Store = StorePostgres }, "database_url"},
		{"unknown store", func(c *Config) { c.Store = "redis" }, "unsupported store"},
		{"bad port", func(c *Config) { c.Port = "http" }, "not a number"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
		{"no password", func(c *Config) { c.Password = "" }, "password"},
		{"zero poll", func(c *Config) { c.VideoPollSeconds = 0 }, "video_poll_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestEnsureDirectories(t *testing.T) {
	cfg := Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.ClipsDir())
	assert.Equal(t, filepath.Join(cfg.DataDir, "studio.db"), cfg.SQLitePath())
}
