package diagramfile

import (
	"path/filepath"
	"strings"
)

// Document formats recognised by extension.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatMimic = "mimic"
	FormatSVG   = "svg"
	FormatPNG   = "png"
	FormatDOT   = "dot"
)

// Format returns the format implied by a file extension. Unknown
// extensions are treated as JSON.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".mimic":
		return FormatMimic
	case ".svg":
		return FormatSVG
	case ".png":
		return FormatPNG
	case ".dot", ".gv":
		return FormatDOT
	}
	return FormatJSON
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
