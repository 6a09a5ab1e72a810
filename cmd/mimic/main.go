// Command mimic is a CLI tool for working with mimic diagrams.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ha1tch/mimic-toolkit/internal/logging"
	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
	"github.com/ha1tch/mimic-toolkit/pkg/diagramfile"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "mimic",
	Short: "mimic - diagram toolkit for plant mimic panels",
	Long: `mimic works with mimic diagrams: components wired by routed
connections whose on/off state propagates along the wiring.

Documents are read and written by extension: .json, .yaml/.yml and the
zipped .mimic container.`,
	Example: `  mimic info plant.mimic
  mimic convert plant.json -o plant.mimic
  mimic render plant.mimic -o plant.png
  mimic toggle plant.json comp-3 -o plant.json
  mimic serve --store plant.json`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logLevel == "" {
			return
		}
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logging.SetLevel(level)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, off); default from "+logging.EnvLevel)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadDiagram reads path or exits with an error message.
func loadDiagram(path string) *diagram.State {
	s, err := diagramfile.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
		os.Exit(1)
	}
	return s
}

// loadModel reads path into a fresh model or exits.
func loadModel(path string) *diagram.Model {
	m := diagram.New()
	if err := m.Load(loadDiagram(path)); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
		os.Exit(1)
	}
	return m
}

func writeOutput(path string, data []byte) {
	if path == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Written: %s\n", path)
}
