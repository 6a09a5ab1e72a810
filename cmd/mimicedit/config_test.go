package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mimicedit.toml")
	cfg := DefaultConfig()
	cfg.Grid = "black"
	cfg.ExportFormat = "svg"
	cfg.LastDir = "/srv/plant"
	cfg.RelayURL = "ws://localhost:8000/ws"
	cfg.Palette = []string{"valve_OFF.png", "hline"}

	require.NoError(t, SaveConfig(path, cfg))
	assert.Equal(t, cfg, LoadConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# mimicedit configuration")
	assert.Contains(t, string(data), `export_format = "svg"`)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigKeepsDefaultsForBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mimicedit.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
grid = "purple"
export_format = "bmp"
palette = []
`), 0o644))

	cfg := LoadConfig(path)
	def := DefaultConfig()
	assert.Equal(t, def.Grid, cfg.Grid)
	assert.Equal(t, def.ExportFormat, cfg.ExportFormat)
	assert.Equal(t, def.Palette, cfg.Palette)
}

func TestLoadConfigNotTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mimicedit.toml")
	require.NoError(t, os.WriteFile(path, []byte("grid = = ="), 0o644))
	assert.Equal(t, DefaultConfig(), LoadConfig(path))
}
