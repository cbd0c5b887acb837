package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// audit groups the trail inspection subcommands.
func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the signed audit trail",
	}
	cmd.AddCommand(auditVerifyCmd(), auditExportCmd())
	return cmd
}

// audit verify: recompute every entry signature.
func auditVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Recompute every audit entry signature",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := appCtx.Trail().Verify(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("audit trail intact: %d entries verified\n", count)
			return nil
		},
	}
}

// audit export [file]: write the trail as indented JSON.
func auditExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the audit trail as JSON to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := os.Stdout
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return appCtx.Trail().Export(cmd.Context(), out)
		},
	}
}
