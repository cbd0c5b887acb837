package commands

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

// run: execute one optimization cycle and print the result as JSON.
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one optimization cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := appCtx.RunCycle(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
