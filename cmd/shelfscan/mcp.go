package main

import (
	"context"
	"log"
	"os"

	"github.com/aretw0/shelfscan/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts shelfscan as an MCP Server.
This allows AI agents (like Claude Desktop) to validate ISBNs and read barcodes from images.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		camera, _ := cmd.Flags().GetBool("camera")

		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		return cli.RunMCP(ctx, cfg, logger, cli.MCPOptions{
			Transport: transport,
			Port:      port,
			Camera:    camera,
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().Bool("camera", false, "Also expose the configured camera as tools")
}
