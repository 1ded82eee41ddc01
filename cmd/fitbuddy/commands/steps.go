package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/benvon/fitness-buddy/internal/activity"
	"github.com/benvon/fitness-buddy/internal/app"
	"github.com/benvon/fitness-buddy/internal/validation"
	"github.com/spf13/cobra"
)

func newStepsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Record steps",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add N",
		Short: "Add N steps to today's count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return validation.NewError("steps", "must be a whole number")
			}
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				steps, err := a.Controller.AddSteps(ctx, n)
				if err != nil {
					return err
				}
				progress := activity.Progress(steps)
				out := cmd.OutOrStdout()
				if flags.jsonOutput {
					return printJSON(out, progress)
				}
				fmt.Fprintf(out, "Today: %d steps (%d to go)\n", progress.Completed, progress.Remaining)
				return nil
			})
		},
	})
	return cmd
}
