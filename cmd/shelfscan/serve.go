package main

import (
	"context"

	"github.com/aretw0/shelfscan/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control server",
	Long: `Starts a scanner behind an HTTP API: camera and scan commands, status and
notices over Server-Sent Events on /events, and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr = addr
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		return cli.RunServe(ctx, cfg, logger, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}
