package commands

import (
	"context"
	"fmt"

	"github.com/benvon/fitness-buddy/internal/app"
	"github.com/benvon/fitness-buddy/internal/services/ai"
	"github.com/spf13/cobra"
)

func newGenerateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Ask the AI for workouts tailored to your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				workouts, err := a.Controller.GenerateWorkouts(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if flags.jsonOutput {
					return printJSON(out, workouts)
				}
				fmt.Fprintln(out, ai.MessageWorkoutsGenerated)
				printWorkouts(out, workouts)
				return nil
			})
		},
	}
}

func newCoachCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "coach QUESTION...",
		Short: "Ask the AI coach a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				answer, err := a.Controller.AskCoach(ctx, joinArgs(args))
				if err != nil {
					return err
				}
				if flags.jsonOutput {
					return printJSON(cmd.OutOrStdout(), map[string]string{"answer": answer})
				}
				fmt.Fprintln(cmd.OutOrStdout(), answer)
				return nil
			})
		},
	}
}
