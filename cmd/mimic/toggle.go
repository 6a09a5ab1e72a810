package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/diagramfile"
)

var toggleOutput string

var toggleCmd = &cobra.Command{
	Use:   "toggle <input> <component>...",
	Short: "Toggle components and propagate their state",
	Long: `Toggle each named component in turn, propagating the new state along
its outgoing connections, and report what changed. With -o the result is
written out; the input file is never modified implicitly.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		m := loadModel(args[0])

		for _, id := range args[1:] {
			res, err := m.Toggle(id)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error toggling %s: %v\n", id, err)
				os.Exit(1)
			}
			printPropagation(m, id, res)
		}

		if toggleOutput != "" {
			if err := diagramfile.Save(toggleOutput, m.State()); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", toggleOutput, err)
				os.Exit(1)
			}
			fmt.Printf("Written: %s\n", toggleOutput)
		}
	},
}

func printPropagation(m *diagram.Model, id string, res diagram.PropagationResult) {
	c := m.State().Component(id)
	state := "off"
	if c != nil && c.On() {
		state = "on"
	}
	fmt.Printf("%s -> %s\n", id, state)
	if len(res.Changed) > 0 {
		fmt.Printf("  changed:   %v\n", res.Changed)
	}
	if len(res.Recolored) > 0 {
		fmt.Printf("  recolored: %d connections\n", len(res.Recolored))
	}
}

func init() {
	toggleCmd.Flags().StringVarP(&toggleOutput, "output", "o", "", "write the result to this file")
	rootCmd.AddCommand(toggleCmd)
}
