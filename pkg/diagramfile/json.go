// Package diagramfile reads and writes diagrams: JSON and YAML documents,
// the zipped .mimic container, and SVG, PNG and DOT renderings.
package diagramfile

import (
	"encoding/json"
	"fmt"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
)

// Keys that must be present in a persisted document.
var (
	documentKeys   = []string{"components", "connections"}
	componentKeys  = []string{"id", "x", "y", "width", "height", "type"}
	connectionKeys = []string{"id", "start", "end"}
	endpointKeys   = []string{"componentId", "pointIndex"}
	strokeKeys     = []string{"id", "points"}
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", diagram.ErrMalformedSnapshot, fmt.Sprintf(format, args...))
}

func requireKeys(v any, what string, keys []string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, malformed("%s is not an object", what)
	}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return nil, malformed("%s is missing %q", what, k)
		}
	}
	return m, nil
}

func listOf(v any, what string) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	l, ok := v.([]any)
	if !ok {
		return nil, malformed("%s is not a list", what)
	}
	return l, nil
}

// checkRequired walks a generically decoded document and verifies that
// every required field is present.
func checkRequired(doc any) error {
	root, err := requireKeys(doc, "document", documentKeys)
	if err != nil {
		return err
	}

	comps, err := listOf(root["components"], "components")
	if err != nil {
		return err
	}
	for i, c := range comps {
		if _, err := requireKeys(c, fmt.Sprintf("component %d", i), componentKeys); err != nil {
			return err
		}
	}

	conns, err := listOf(root["connections"], "connections")
	if err != nil {
		return err
	}
	for i, c := range conns {
		what := fmt.Sprintf("connection %d", i)
		m, err := requireKeys(c, what, connectionKeys)
		if err != nil {
			return err
		}
		for _, end := range []string{"start", "end"} {
			if _, err := requireKeys(m[end], what+" "+end, endpointKeys); err != nil {
				return err
			}
		}
	}

	strokes, err := listOf(root["freeDrawings"], "freeDrawings")
	if err != nil {
		return err
	}
	for i, s := range strokes {
		if _, err := requireKeys(s, fmt.Sprintf("stroke %d", i), strokeKeys); err != nil {
			return err
		}
	}
	return nil
}

// normalize fills defaults that older documents omit.
func normalize(s *diagram.State) {
	if s.Components == nil {
		s.Components = []diagram.Component{}
	}
	if s.Connections == nil {
		s.Connections = []diagram.Connection{}
	}
	if s.Strokes == nil {
		s.Strokes = []diagram.Stroke{}
	}
	for i := range s.Connections {
		if s.Connections[i].Kind == "" {
			s.Connections[i].Kind = diagram.ConnSingle
		}
	}
}

// ParseJSON parses a diagram document. The document must carry every
// required field and be referentially consistent; otherwise the error
// wraps diagram.ErrMalformedSnapshot.
func ParseJSON(data []byte) (*diagram.State, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, malformed("%v", err)
	}
	if err := checkRequired(doc); err != nil {
		return nil, err
	}

	var s diagram.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, malformed("%v", err)
	}
	normalize(&s)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ToJSON converts a diagram to JSON.
func ToJSON(s *diagram.State, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(s, "", "  ")
	}
	return json.Marshal(s)
}
