package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/shelfscan/internal/cli"
	"github.com/spf13/cobra"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <text>...",
	Short: "Validate and normalise ISBN strings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		reports := cli.Normalize(args)

		if jsonMode {
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range reports {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, r := range reports {
			switch {
			case !r.Valid:
				fmt.Fprintf(tw, "%s\tinvalid\n", r.Input)
			case !r.ChecksumValid:
				fmt.Fprintf(tw, "%s\t%s\tbad check digit\n", r.Input, r.ISBN)
			default:
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Input, r.ISBN, r.ISBN13)
			}
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().Bool("json", false, "Print one JSON object per input")
}
