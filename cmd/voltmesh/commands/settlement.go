package commands

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

// settlement: print the settlement report as JSON.
func settlementCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settlement",
		Short: "Print the settlement report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := appCtx.Trail().Settlement(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
