package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/diagramfile"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(13)
	onStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	offStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

var infoCmd = &cobra.Command{
	Use:   "info <input>",
	Short: "Show diagram information",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		input := args[0]
		s := loadDiagram(input)

		var meta *diagramfile.Meta
		if diagramfile.Format(input) == diagramfile.FormatMimic {
			_, meta, _ = diagramfile.ReadFile(input)
		}
		fmt.Println(renderInfo(input, s, meta))
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func field(label, value string) string {
	return labelStyle.Render(label) + value
}

func renderInfo(name string, s *diagram.State, meta *diagramfile.Meta) string {
	var lines []string
	lines = append(lines, titleStyle.Render(name))
	if meta != nil {
		if meta.Diagram.Name != "" {
			lines = append(lines, field("Name", meta.Diagram.Name))
		}
		if meta.Diagram.Description != "" {
			lines = append(lines, field("Description", meta.Diagram.Description))
		}
		if !meta.Diagram.Saved.IsZero() {
			lines = append(lines, field("Saved", meta.Diagram.Saved.Format("2006-01-02 15:04:05 MST")))
		}
	}
	lines = append(lines,
		field("Components", fmt.Sprint(len(s.Components))),
		field("Connections", fmt.Sprint(len(s.Connections))),
		field("Strokes", fmt.Sprint(len(s.Strokes))),
		field("Grid", fmt.Sprintf("%s on %s", s.GridColor, s.BgColor)),
	)
	if s.BackgroundImage != "" {
		lines = append(lines, field("Background", "image set"))
	}

	kinds := make(map[diagram.ConnKind]int)
	for _, c := range s.Connections {
		kinds[c.Kind]++
	}
	if len(kinds) > 0 {
		var parts []string
		for _, k := range []diagram.ConnKind{diagram.ConnSingle, diagram.ConnDouble, diagram.ConnPlain, diagram.ConnCurve} {
			if n := kinds[k]; n > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", k, n))
			}
		}
		lines = append(lines, field("Wiring", strings.Join(parts, " ")))
	}

	var toggles []string
	for i := range s.Components {
		c := &s.Components[i]
		if !c.Toggleable() {
			continue
		}
		if c.On() {
			toggles = append(toggles, onStyle.Render(c.ID+" on"))
		} else {
			toggles = append(toggles, offStyle.Render(c.ID+" off"))
		}
	}
	sort.Strings(toggles)
	if len(toggles) > 0 {
		lines = append(lines, "", titleStyle.Render("State"))
		lines = append(lines, toggles...)
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
