package commands

import (
	"github.com/spf13/cobra"

	"github.com/voltmesh/voltmesh"
	"github.com/voltmesh/voltmesh/config"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	appCtx *voltmesh.Voltmesh
)

func Execute() error {
	root := &cobra.Command{
		Use:           "voltmesh",
		Short:         "Energy-aware compute scheduling over the Beckn protocol",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if logFormat != "" {
				cfg.Logging.Format = logFormat
			}
			appCtx, err = voltmesh.New(cmd.Context(), cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appCtx == nil {
				return nil
			}
			return appCtx.Close()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (defaults apply when omitted)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (text|json)")

	root.AddCommand(runCmd(), serveCmd(), auditCmd(), settlementCmd())
	return root.Execute()
}
