package commands

import (
	"context"
	"fmt"

	"github.com/benvon/fitness-buddy/internal/app"
	"github.com/spf13/cobra"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local JSON API for the frontend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				if addr != "" {
					a.Config.Server.Addr = addr
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", a.Config.Server.Addr)
				return a.Serve(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
