package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/diagramfile"
)

var runCmd = &cobra.Command{
	Use:   "run <input>",
	Short: "Operate a diagram interactively",
	Long: `Load a diagram and toggle its components from a prompt.

Commands: <component>, status, undo, redo, save [file], quit`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		input := args[0]
		m := loadModel(input)

		fmt.Printf("Diagram: %s (%d components)\n", input, len(m.State().Components))
		fmt.Println("Commands: <component>, status, undo, redo, save [file], quit")
		fmt.Println()
		printStatus(m)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}

			fields := strings.Fields(scanner.Text())
			if len(fields) == 0 {
				continue
			}

			switch fields[0] {
			case "quit", "exit", "q":
				return
			case "status":
				printStatus(m)
			case "undo":
				if !m.Undo() {
					fmt.Println("Nothing to undo")
					continue
				}
				printStatus(m)
			case "redo":
				if !m.Redo() {
					fmt.Println("Nothing to redo")
					continue
				}
				printStatus(m)
			case "save":
				out := input
				if len(fields) > 1 {
					out = fields[1]
				}
				if err := diagramfile.Save(out, m.State()); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					continue
				}
				fmt.Printf("Written: %s\n", out)
			case "help", "?":
				fmt.Println("Commands:")
				fmt.Println("  <component>  - Toggle a component")
				fmt.Println("  status       - Show component states")
				fmt.Println("  undo, redo   - Step through history")
				fmt.Println("  save [file]  - Write the diagram")
				fmt.Println("  quit         - Exit")
			default:
				res, err := m.Toggle(fields[0])
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					continue
				}
				printPropagation(m, fields[0], res)
			}
		}
	},
}

func printStatus(m *diagram.Model) {
	var on, off []string
	for i := range m.State().Components {
		c := &m.State().Components[i]
		switch {
		case !c.Toggleable():
		case c.On():
			on = append(on, c.ID)
		default:
			off = append(off, c.ID)
		}
	}
	sort.Strings(on)
	sort.Strings(off)
	if len(on)+len(off) == 0 {
		fmt.Println("No toggleable components")
		return
	}
	fmt.Printf("On:  %v\n", on)
	fmt.Printf("Off: %v\n", off)
}

func init() {
	rootCmd.AddCommand(runCmd)
}
