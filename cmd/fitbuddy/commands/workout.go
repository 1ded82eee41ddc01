package commands

import (
	"context"
	"fmt"

	"github.com/benvon/fitness-buddy/internal/app"
	"github.com/benvon/fitness-buddy/internal/session"
	"github.com/spf13/cobra"
)

func newWorkoutCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workout",
		Short: "Record workouts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "complete ID",
		Short: "Start and complete the catalog workout ID",
		Long:  "Starts the workout with the given catalog id and completes it immediately, recording it in the history.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				if _, err := a.Controller.StartByID(args[0]); err != nil {
					return err
				}
				record, err := a.Controller.Complete(ctx)
				out := cmd.OutOrStdout()
				if err != nil {
					return err
				}
				if flags.jsonOutput {
					return printJSON(out, record)
				}
				fmt.Fprintf(out, "%s %s: %d kcal in %d min.\n",
					session.MessageWorkoutComplete, record.Name, record.Calories, record.Duration)
				return nil
			})
		},
	})
	return cmd
}
