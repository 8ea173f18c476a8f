package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDefaults(t *testing.T) {
	r, err := NewRegistry("")
	require.NoError(t, err)

	snap := r.Snapshot()
	assert.Equal(t, []string{"moondream:1.8b", "llava:latest", "llama3.2-vision:latest"}, snap.Supported)
	assert.Contains(t, snap.VisionKeywords, "llava")
	assert.True(t, r.IsSupported("llava:latest"))
	assert.True(t, r.IsSupported("  llava:latest  "))
	assert.False(t, r.IsSupported("mistral:7b"))
}

func TestRegistryLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	content := `
models:
  - llava:13b
  - llava:13b
  - "  moondream:1.8b  "
vision_keywords:
  - llava
  - moondream
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := NewRegistry(path)
	require.NoError(t, err)

	snap := r.Snapshot()
	// 去重 + 去空白
	assert.Equal(t, []string{"llava:13b", "moondream:1.8b"}, snap.Supported)
	assert.True(t, r.IsSupported("llava:13b"))
	assert.False(t, r.IsSupported("llava:latest"))
}

func TestRegistryMissingFile(t *testing.T) {
	_, err := NewRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestRegistryEmptyFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models: []\n"), 0o644))

	r, err := NewRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, defaultSupported, r.Snapshot().Supported)
	assert.Equal(t, defaultVisionKeywords, r.Snapshot().VisionKeywords)
}

func TestFilterVision(t *testing.T) {
	r, err := NewRegistry("")
	require.NoError(t, err)

	installed := []string{
		"llava:latest",
		"mistral:7b",
		"LLaMA3.2-Vision:latest",
		"moondream:1.8b",
		"codellama:13b",
	}
	got := r.FilterVision(installed)
	assert.Equal(t, []string{"llava:latest", "LLaMA3.2-Vision:latest", "moondream:1.8b"}, got)
}

func TestSnapshotIsCopy(t *testing.T) {
	r, err := NewRegistry("")
	require.NoError(t, err)

	snap := r.Snapshot()
	snap.Supported[0] = "tampered"
	assert.Equal(t, "moondream:1.8b", r.Snapshot().Supported[0])
}
