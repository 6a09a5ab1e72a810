package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ha1tch/mimic-toolkit/pkg/diagramfile"
)

var convertOutput string

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Convert between formats (json, yaml, mimic)",
	Long: `Convert a diagram between JSON, YAML and the .mimic container.
Without -o, .json becomes .mimic and anything else becomes .json.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		input := args[0]
		s := loadDiagram(input)

		output := convertOutput
		if output == "" {
			ext := filepath.Ext(input)
			base := strings.TrimSuffix(input, ext)
			if diagramfile.Format(input) == diagramfile.FormatJSON {
				output = base + ".mimic"
			} else {
				output = base + ".json"
			}
		}

		switch diagramfile.Format(output) {
		case diagramfile.FormatJSON, diagramfile.FormatYAML, diagramfile.FormatMimic:
		default:
			fmt.Fprintf(os.Stderr, "Unknown output format: %s (use render for images)\n", filepath.Ext(output))
			os.Exit(1)
		}

		if err := diagramfile.Save(output, s); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", output, err)
			os.Exit(1)
		}
		fmt.Printf("Written: %s\n", output)
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output file")
	rootCmd.AddCommand(convertCmd)
}
