package diagramfile

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
)

// FormatVersion is written to meta.toml.
const FormatVersion = 1

// Archive entry names.
const (
	diagramEntry = "diagram.json"
	metaEntry    = "meta.toml"
)

// Meta represents the meta.toml content of a .mimic archive.
type Meta struct {
	Diagram DiagramMeta `toml:"diagram"`
	Counts  Counts      `toml:"counts"`
}

// DiagramMeta describes the archived diagram.
type DiagramMeta struct {
	Version     int       `toml:"version"`
	Name        string    `toml:"name"`
	Description string    `toml:"description,omitempty"`
	Saved       time.Time `toml:"saved"`
}

// Counts summarises the archive so tools can list it without parsing the
// diagram.
type Counts struct {
	Components  int `toml:"components"`
	Connections int `toml:"connections"`
	Strokes     int `toml:"strokes"`
}

// NewMeta builds metadata for a diagram.
func NewMeta(s *diagram.State, name string) Meta {
	return Meta{
		Diagram: DiagramMeta{
			Version: FormatVersion,
			Name:    name,
			Saved:   time.Now().UTC().Truncate(time.Second),
		},
		Counts: Counts{
			Components:  len(s.Components),
			Connections: len(s.Connections),
			Strokes:     len(s.Strokes),
		},
	}
}

// WriteFile writes a diagram to a .mimic file.
func WriteFile(path string, s *diagram.State, meta *Meta) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := Write(file, s, meta); err != nil {
		return err
	}
	return file.Close()
}

// Write writes a diagram to a writer in .mimic format. meta.toml is only
// written when meta is non-nil.
func Write(w io.Writer, s *diagram.State, meta *Meta) error {
	zw := zip.NewWriter(w)

	data, err := ToJSON(s, true)
	if err != nil {
		return err
	}
	dw, err := zw.Create(diagramEntry)
	if err != nil {
		return err
	}
	if _, err := dw.Write(data); err != nil {
		return err
	}

	if meta != nil {
		mw, err := zw.Create(metaEntry)
		if err != nil {
			return err
		}
		if err := toml.NewEncoder(mw).Encode(meta); err != nil {
			return fmt.Errorf("encode %s: %w", metaEntry, err)
		}
	}

	return zw.Close()
}

// ReadFile reads a diagram from a .mimic file.
func ReadFile(path string) (*diagram.State, *Meta, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, nil, err
	}

	return Read(file, info.Size())
}

// Read reads a diagram from a reader containing .mimic format. The
// returned Meta is nil when the archive carries none.
func Read(r io.ReaderAt, size int64) (*diagram.State, *Meta, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, nil, err
	}

	var diagramData, metaData []byte

	for _, f := range zr.File {
		if f.Name != diagramEntry && f.Name != metaEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, nil, err
		}

		switch f.Name {
		case diagramEntry:
			diagramData = data
		case metaEntry:
			metaData = data
		}
	}

	if diagramData == nil {
		return nil, nil, fmt.Errorf("%s not found in archive", diagramEntry)
	}

	s, err := ParseJSON(diagramData)
	if err != nil {
		return nil, nil, err
	}

	var meta *Meta
	if metaData != nil {
		meta = &Meta{}
		if _, err := toml.Decode(string(metaData), meta); err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", metaEntry, err)
		}
	}

	return s, meta, nil
}

// ReadBytes reads a diagram from bytes in .mimic format.
func ReadBytes(data []byte) (*diagram.State, *Meta, error) {
	return Read(bytes.NewReader(data), int64(len(data)))
}

// Load reads a diagram from path, choosing the format by extension:
// .mimic archives, .yaml/.yml documents, and JSON for anything else.
func Load(path string) (*diagram.State, error) {
	switch Format(path) {
	case FormatMimic:
		s, _, err := ReadFile(path)
		return s, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if Format(path) == FormatYAML {
		return ParseYAML(data)
	}
	return ParseJSON(data)
}

// Save writes a diagram to path in the format implied by its extension.
func Save(path string, s *diagram.State) error {
	var data []byte
	var err error
	switch Format(path) {
	case FormatMimic:
		meta := NewMeta(s, baseName(path))
		return WriteFile(path, s, &meta)
	case FormatYAML:
		data, err = ToYAML(s)
	default:
		data, err = ToJSON(s, true)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
