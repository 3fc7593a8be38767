package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/shelfscan"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of shelfscan",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "shelfscan version %s\n", strings.TrimSpace(shelfscan.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
