package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voltmesh/voltmesh/server"
)

// serve: run the HTTP API until interrupted.
func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listen := addr
			if listen == "" {
				listen = appCtx.Config().Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.NewServer(listen,
				appCtx.Engine(), appCtx.Queue(), appCtx.Trail(), appCtx.Logger(),
				func(o *server.Options) {
					o.DemoSeed = appCtx.Config().Server.DemoSeed
				})
			if err := srv.Start(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
