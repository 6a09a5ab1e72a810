package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <input>...",
	Short: "Validate diagram files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, input := range args {
			s := loadDiagram(input)
			fmt.Printf("%s: valid diagram with %d components, %d connections, %d strokes\n",
				input, len(s.Components), len(s.Connections), len(s.Strokes))
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
