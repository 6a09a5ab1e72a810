package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/diagramfile"
)

// Config holds persistent editor settings
type Config struct {
	Grid         string   `toml:"grid"`          // white, grey or black
	ExportFormat string   `toml:"export_format"` // png, svg or dot
	LastDir      string   `toml:"last_dir"`
	RelayURL     string   `toml:"relay_url,omitempty"`
	Palette      []string `toml:"palette"` // component types offered by the place menu
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	cwd, _ := os.Getwd()
	return Config{
		Grid:         string(diagram.GridWhite),
		ExportFormat: diagramfile.FormatPNG,
		LastDir:      cwd,
		Palette: []string{
			"switch_OFF.png",
			"lamp_OFF.png",
			"breaker_ON.png",
			"motor_OFF.png",
			"transformer.png",
			"busbar.png",
			diagram.KindHLine,
			diagram.KindVLine,
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mimicedit"
	}
	return filepath.Join(home, ".mimicedit")
}

// LoadConfig loads configuration from path. Missing or invalid settings
// keep their defaults.
func LoadConfig(path string) Config {
	cfg := DefaultConfig()
	var file Config
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return cfg
	}
	if _, ok := diagram.GridOptions[diagram.GridOption(file.Grid)]; ok {
		cfg.Grid = file.Grid
	}
	switch file.ExportFormat {
	case diagramfile.FormatPNG, diagramfile.FormatSVG, diagramfile.FormatDOT:
		cfg.ExportFormat = file.ExportFormat
	}
	if file.LastDir != "" {
		cfg.LastDir = file.LastDir
	}
	cfg.RelayURL = file.RelayURL
	if len(file.Palette) > 0 {
		cfg.Palette = file.Palette
	}
	return cfg
}

// SaveConfig saves configuration to path
func SaveConfig(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString("# mimicedit configuration\n"); err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return err
	}
	return f.Close()
}
