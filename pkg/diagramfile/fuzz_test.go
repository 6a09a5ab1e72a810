package diagramfile

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
)

// FuzzParseJSON feeds arbitrary documents to the parser. Anything it
// accepts must serialise, render and load into a model.
// Run with: go test -fuzz=FuzzParseJSON -fuzztime=30s ./pkg/diagramfile/
func FuzzParseJSON(f *testing.F) {
	f.Add([]byte(`{"components":[],"connections":[]}`))
	f.Add([]byte(`{"components":[{"id":"comp-1","x":0,"y":0,"width":50,"height":50,"type":"a.png","connectionPoints":[{"x":0.5,"y":0}]}],"connections":[{"id":"c","start":{"componentId":"comp-1","pointIndex":0},"end":{"componentId":"comp-1","pointIndex":0}}]}`))
	f.Add([]byte(`{"components":[{"id":"comp-1","x":0,"y":0,"width":50,"height":50,"type":"a","rotation":45}],"connections":[],"freeDrawings":[{"id":"s","points":[]}]}`))

	f.Add([]byte(`{}`))
	f.Add([]byte(`[]`))
	f.Add([]byte(`null`))
	f.Add([]byte(``))
	f.Add([]byte(`{"components":null,"connections":null}`))
	f.Add([]byte(`{"components":[{"id":"comp-1","x":1e308,"y":-1e308,"width":1e-300,"height":1,"type":"a"}],"connections":[]}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := ParseJSON(data)
		if err != nil {
			return
		}
		if _, err := ToJSON(s, true); err != nil {
			t.Errorf("ToJSON failed on accepted document: %v", err)
		}
		_ = GenerateDOT(s, "")
		_ = RenderSVG(s, io.Discard, SVGOptions{Padding: 10})
		if err := diagram.New().Load(s); err != nil {
			t.Errorf("Load rejected a parsed document: %v", err)
		}
	})
}

// FuzzReadBytes tests reading malformed .mimic archives.
func FuzzReadBytes(f *testing.F) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("diagram.json")
	w.Write([]byte(`{"components":[],"connections":[]}`))
	m, _ := zw.Create("meta.toml")
	m.Write([]byte("[diagram]\nversion = 1\nname = \"x\"\n"))
	zw.Close()
	f.Add(buf.Bytes())

	buf.Reset()
	zw = zip.NewWriter(&buf)
	zw.Close()
	f.Add(buf.Bytes())

	f.Add([]byte{})
	f.Add([]byte{0x50, 0x4B, 0x03, 0x04})
	f.Add([]byte("not a zip"))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _, _ = ReadBytes(data)
	})
}
