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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:8080", "http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.Host)
	assert.Equal(t, "llava", cfg.Ollama.Model)
	assert.Equal(t, 60*time.Second, cfg.Ollama.RequestTimeout())
	assert.Equal(t, 10, cfg.Upload.MaxUploadMB)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxUploadBytes())
	assert.Equal(t, []string{"image/png", "image/jpeg", "image/webp"}, cfg.Upload.NormalizedMIME())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
  log_level: warn
server:
  addr: ":9090"
ollama:
  host: "http://ollama.internal:11434"
  model: "moondream:1.8b"
  request_timeout_ms: 120000
upload:
  max_upload_mb: 25
  allowed_mime:
    - image/png
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "http://ollama.internal:11434", cfg.Ollama.Host)
	assert.Equal(t, "moondream:1.8b", cfg.Ollama.Model)
	assert.Equal(t, 2*time.Minute, cfg.Ollama.RequestTimeout())
	assert.Equal(t, 25, cfg.Upload.MaxUploadMB)
	assert.Equal(t, []string{"image/png"}, cfg.Upload.NormalizedMIME())
	// 未覆盖的键保持默认
	assert.Equal(t, []string{"http://localhost:8080", "http://localhost:3000"}, cfg.Server.AllowedOrigins)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TEXTLENS_OLLAMA_MODEL", "llama3.2-vision:latest")
	t.Setenv("TEXTLENS_SERVER_ADDR", ":18000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "llama3.2-vision:latest", cfg.Ollama.Model)
	assert.Equal(t, ":18000", cfg.Server.Addr)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad host", "ollama:\n  host: \"not a url\"\n", "ollama.host must be a full URL"},
		{"empty model", "ollama:\n  model: \"  \"\n", "ollama.model must not be empty"},
		{"zero timeout", "ollama:\n  request_timeout_ms: 0\n", "request_timeout_ms must be > 0"},
		{"zero upload cap", "upload:\n  max_upload_mb: 0\n", "max_upload_mb must be > 0"},
		{"empty mime list", "upload:\n  allowed_mime: []\n", "at least one type"},
		{"non-image mime", "upload:\n  allowed_mime:\n    - application/pdf\n", "non-image type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	require.Error(t, err)
}
