package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(tmp string) *Config {
	return &Config{
		DocsDir:      filepath.Join(tmp, "docs"),
		DataDir:      filepath.Join(tmp, "data"),
		ServerURL:    "http://127.0.0.1:8080",
		IndexName:    "test-store",
		AllowedExts:  []string{".pdf", "txt", " .MD "},
		Debounce:     100 * time.Millisecond,
		Dwell:        50 * time.Millisecond,
		SyncOnModify: true,
	}
}

func TestConfig_Validate_NormalizesAndDefaults(t *testing.T) {
	tmp := t.TempDir()
	cfg := validConfig(tmp)

	require.NoError(t, cfg.Validate())
	assert.True(t, filepath.IsAbs(cfg.DocsDir))
	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.Equal(t, []string{".pdf", ".txt", ".md"}, cfg.AllowedExts)
}

func TestConfig_Validate_DefaultsEmptyExtensions(t *testing.T) {
	tmp := t.TempDir()
	cfg := validConfig(tmp)
	cfg.AllowedExts = nil

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultAllowedExts, cfg.AllowedExts)
}

func TestConfig_Validate_ErrorsOnInvalidInputs(t *testing.T) {
	tmp := t.TempDir()

	t.Run("bad server url", func(t *testing.T) {
		cfg := validConfig(tmp)
		cfg.ServerURL = "ftp://bad.example.com"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "server url")
	})

	t.Run("empty index name", func(t *testing.T) {
		cfg := validConfig(tmp)
		cfg.IndexName = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero debounce", func(t *testing.T) {
		cfg := validConfig(tmp)
		cfg.Debounce = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative dwell", func(t *testing.T) {
		cfg := validConfig(tmp)
		cfg.Dwell = -time.Second
		assert.Error(t, cfg.Validate())
	})
}

func TestConfig_SaveAndLoad_Roundtrip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "config.json")

	cfg := validConfig(tmp)
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.DocsDir, loaded.DocsDir)
	assert.Equal(t, cfg.IndexName, loaded.IndexName)
	assert.Equal(t, cfg.Debounce, loaded.Debounce)
	assert.Equal(t, path, loaded.Path)
	assert.Empty(t, loaded.APIKey, "api key must not be persisted")
}

func TestConfig_DerivedPaths(t *testing.T) {
	tmp := t.TempDir()
	cfg := validConfig(tmp)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, filepath.Join(cfg.DataDir, "state.json"), cfg.StatePath())
	assert.Equal(t, filepath.Join(cfg.DataDir, "vector_store_id"), cfg.IndexIDPath())
	assert.Equal(t, filepath.Join(cfg.DataDir, "staging"), cfg.StagingDir())
}
