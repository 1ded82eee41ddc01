package commands

import (
	"context"

	"github.com/benvon/fitness-buddy/internal/app"
	"github.com/spf13/cobra"
)

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List completed workouts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				history := a.Controller.History()
				if flags.jsonOutput {
					return printJSON(cmd.OutOrStdout(), history)
				}
				printHistory(cmd.OutOrStdout(), history)
				return nil
			})
		},
	}
}
