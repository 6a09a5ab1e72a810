package diagramfile

import (
	"gopkg.in/yaml.v3"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
)

// ParseYAML parses a diagram document written as YAML. The same required
// fields and consistency rules as ParseJSON apply.
func ParseYAML(data []byte) (*diagram.State, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, malformed("%v", err)
	}
	if err := checkRequired(doc); err != nil {
		return nil, err
	}

	var s diagram.State
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, malformed("%v", err)
	}
	normalize(&s)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ToYAML converts a diagram to YAML.
func ToYAML(s *diagram.State) ([]byte, error) {
	return yaml.Marshal(s)
}
