package main

import (
	"fmt"

	"github.com/aretw0/shelfscan/internal/cli"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <image>...",
	Short: "Read ISBN barcodes from image files",
	Long:  `Decodes each image once, searching the whole picture. Exits non-zero when no file yields an ISBN.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		jsonMode, _ := cmd.Flags().GetBool("json")

		found, err := cli.RunDecode(args, strict || cfg.Scan.StrictChecksum, jsonMode, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if found == 0 {
			return fmt.Errorf("no ISBN found in %d file(s)", len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().Bool("strict", false, "Reject ISBNs with a wrong check digit")
	decodeCmd.Flags().Bool("json", false, "Print one JSON object per file")
}
