package main

import (
	"fmt"

	"github.com/aretw0/shelfscan/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the scanner state machine",
	Long:  `Outputs a Mermaid diagram (graph TD) of the scan controller states and their transitions.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
