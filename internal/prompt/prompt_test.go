package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	p := Defaults()
	assert.Contains(t, p.System, "Extract all visible text exactly as it appears")
	assert.Contains(t, p.User, "analyze this image")
}

func TestLoadEmptyPath(t *testing.T) {
	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), p)
}

func TestLoadMissingFile(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), p)
}

func TestLoadPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user: \"Read the receipt line by line.\"\n"), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	// system 留空时回落默认
	assert.Equal(t, Defaults().System, p.System)
	assert.Equal(t, "Read the receipt line by line.", p.User)
}

func TestLoadFullOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := "system: \"You transcribe documents.\"\nuser: \"Transcribe.\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "You transcribe documents.", p.System)
	assert.Equal(t, "Transcribe.", p.User)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("system: [broken"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
