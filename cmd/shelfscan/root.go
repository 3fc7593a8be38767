package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/shelfscan/internal/cli"
	"github.com/aretw0/shelfscan/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "shelfscan",
	Short: "shelfscan reads ISBN barcodes from a camera or images",
	Long: `shelfscan samples a camera feed, decodes retail barcodes in the centre of the
frame and hands every validated ISBN to your catalogue exactly once.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}

		// Flags win over file and environment.
		if cmd.Flags().Changed("log-level") {
			loaded.Log.Level, _ = cmd.Flags().GetString("log-level")
		}
		if cmd.Flags().Changed("log-file") {
			loaded.Log.File, _ = cmd.Flags().GetString("log-file")
		}
		if err := config.Validate(loaded); err != nil {
			return err
		}

		l, closer, err := cli.NewLogger(loaded.Log)
		if err != nil {
			return err
		}
		cfg, logger, logCloser = loaded, l, closer
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a shelfscan YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-file", "", "Write JSON logs to a rotating file instead of stderr")
}
