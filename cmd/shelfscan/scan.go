package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/shelfscan/internal/cli"
	"github.com/aretw0/shelfscan/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [frames]",
	Short: "Scan ISBN barcodes continuously",
	Long: `Opens the configured camera and keeps scanning until interrupted. Each
validated ISBN is printed once per detection; the loop re-arms itself.

The frame source is a directory of images (or a single image) replayed as a
camera, or with the gocv build tag a local webcam (--webcam).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			cfg.Camera.Source = "frames"
			cfg.Camera.Frames = args[0]
		}
		if webcam, _ := cmd.Flags().GetBool("webcam"); webcam {
			cfg.Camera.Source = "webcam"
		}
		if device, _ := cmd.Flags().GetString("device"); cmd.Flags().Changed("device") {
			cfg.Camera.Device = device
		}
		if strict, _ := cmd.Flags().GetBool("strict"); strict {
			cfg.Scan.StrictChecksum = true
		}

		count, _ := cmd.Flags().GetInt("count")
		jsonMode, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetBool("verbose")
		unique, _ := cmd.Flags().GetBool("unique")

		out := cmd.OutOrStdout()
		interactive := !jsonMode && tui.IsTerminal(os.Stdout)
		if interactive {
			tui.PrintBanner(out)
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		detections, err := cli.RunScan(ctx, cfg, logger, cli.ScanOptions{
			Count:   count,
			JSON:    jsonMode,
			Verbose: verbose,
			Unique:  unique,
			Out:     out,
		})
		if err != nil {
			return cli.HandleExecutionError(err)
		}

		if interactive {
			if ctx.Signal() != nil {
				fmt.Fprintln(out, "[CTRL+C]")
			}
			summary, err := tui.NewRenderer()(tui.Summary(detections))
			if err != nil {
				return err
			}
			fmt.Fprint(out, summary)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().IntP("count", "n", 0, "Stop after N detections (0 scans until interrupted)")
	scanCmd.Flags().Bool("json", false, "Print detections as JSON lines")
	scanCmd.Flags().BoolP("verbose", "v", false, "Also print status changes")
	scanCmd.Flags().Bool("unique", true, "Skip an ISBN identical to the previous detection")
	scanCmd.Flags().Bool("strict", false, "Reject ISBNs with a wrong check digit")
	scanCmd.Flags().Bool("webcam", false, "Scan from a webcam (requires the gocv build tag)")
	scanCmd.Flags().String("device", "0", "Camera device index or URL")
}
