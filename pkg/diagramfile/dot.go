package diagramfile

import (
	"fmt"
	"strings"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
)

// GenerateDOT converts the diagram's component graph to Graphviz DOT.
// Node positions are pinned to the canvas so neato -n reproduces the
// layout; dot ignores them.
func GenerateDOT(s *diagram.State, title string) string {
	var sb strings.Builder

	sb.WriteString("digraph Mimic {\n")
	sb.WriteString("    node [shape=box, fontname=\"Helvetica\", fontsize=11];\n")
	sb.WriteString("    edge [fontname=\"Helvetica\", fontsize=10];\n")
	sb.WriteString("\n")

	if title != "" {
		sb.WriteString("    labelloc=\"t\";\n")
		sb.WriteString(fmt.Sprintf("    label=\"%s\";\n", escapeDOT(title)))
		sb.WriteString("\n")
	}

	for i := range s.Components {
		c := &s.Components[i]
		center := c.Bounds().Center()
		attrs := []string{
			fmt.Sprintf("label=\"%s\"", escapeDOT(componentLabel(c))),
			fmt.Sprintf("pos=\"%g,%g!\"", center.X, -center.Y),
		}
		if diagram.IsLine(c.Kind) {
			attrs = append(attrs, "shape=point")
		}
		if c.Toggleable() {
			attrs = append(attrs, "style=filled", fmt.Sprintf("fillcolor=\"%s\"", componentFill(c)))
		}
		sb.WriteString(fmt.Sprintf("    \"%s\" [%s];\n", escapeDOT(c.ID), strings.Join(attrs, ", ")))
	}
	sb.WriteString("\n")

	for i := range s.Connections {
		c := &s.Connections[i]
		var attrs []string
		switch c.Kind {
		case diagram.ConnDouble:
			attrs = append(attrs, "dir=both")
		case diagram.ConnPlain:
			attrs = append(attrs, "dir=none")
		case diagram.ConnCurve:
			attrs = append(attrs, "style=dashed")
		}
		if c.Color != "" {
			attrs = append(attrs, fmt.Sprintf("color=\"%s\"", escapeDOT(c.Color)))
		}
		line := fmt.Sprintf("    \"%s\" -> \"%s\"", escapeDOT(c.Start.ComponentID), escapeDOT(c.End.ComponentID))
		if len(attrs) > 0 {
			line += " [" + strings.Join(attrs, ", ") + "]"
		}
		sb.WriteString(line + ";\n")
	}

	sb.WriteString("}\n")

	return sb.String()
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
