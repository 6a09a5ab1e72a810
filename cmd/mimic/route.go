package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/diagramfile"
	"github.com/ha1tch/mimic-toolkit/pkg/geom"
)

var (
	routeJSON   bool
	routeApply  string
	routeStored bool
)

type routeLine struct {
	ID     string       `json:"id"`
	Kind   string       `json:"type"`
	From   string       `json:"from"`
	To     string       `json:"to"`
	Tier   string       `json:"tier,omitempty"`
	Custom bool         `json:"custom,omitempty"`
	Path   []geom.Point `json:"path"`
}

var routeCmd = &cobra.Command{
	Use:   "route <input>",
	Short: "Show how every connection is routed",
	Long: `Route every connection against the diagram's components and print the
router tier and path. Customized bends are reported as stored.

With --apply, the re-routed diagram is written to the given file.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		m := loadModel(args[0])
		s := m.State()

		var lines []routeLine
		for i := range s.Connections {
			c := &s.Connections[i]
			line := routeLine{
				ID:   c.ID,
				Kind: string(c.Kind),
				From: fmt.Sprintf("%s[%d]", c.Start.ComponentID, c.Start.AnchorIndex),
				To:   fmt.Sprintf("%s[%d]", c.End.ComponentID, c.End.AnchorIndex),
			}
			switch {
			case routeStored, c.CustomBends && c.Kind != diagram.ConnCurve:
				line.Custom = c.CustomBends
				line.Path = c.Path()
			default:
				res := diagram.RouteConnection(m.Router(), s, c)
				line.Tier = res.Tier.String()
				line.Path = res.Path
			}
			lines = append(lines, line)
		}

		if routeJSON {
			data, _ := json.MarshalIndent(lines, "", "  ")
			fmt.Println(string(data))
		} else {
			for _, l := range lines {
				tier := l.Tier
				if l.Custom {
					tier = "custom"
				} else if tier == "" {
					tier = "stored"
				}
				fmt.Printf("%s %s %s -> %s %s %s\n", l.ID, l.Kind, l.From, l.To, tier, formatPath(l.Path))
			}
		}

		if routeApply != "" {
			m.Relayout()
			if err := diagramfile.Save(routeApply, m.State()); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", routeApply, err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Written: %s\n", routeApply)
		}
	},
}

func formatPath(path []geom.Point) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = fmt.Sprintf("(%g,%g)", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

func init() {
	routeCmd.Flags().BoolVar(&routeJSON, "json", false, "print JSON")
	routeCmd.Flags().BoolVar(&routeStored, "stored", false, "print stored paths without re-routing")
	routeCmd.Flags().StringVar(&routeApply, "apply", "", "write the re-routed diagram to this file")
	rootCmd.AddCommand(routeCmd)
}
