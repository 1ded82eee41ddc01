package commands

import (
	"context"
	"fmt"

	"github.com/benvon/fitness-buddy/internal/app"
	"github.com/spf13/cobra"
)

func newStatusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				s := a.Controller.State()
				out := cmd.OutOrStdout()
				if flags.jsonOutput {
					return printJSON(out, s)
				}
				if !s.Onboarded {
					fmt.Fprintln(out, "No profile yet. Run `fitbuddy onboard` to get started.")
					return nil
				}
				fmt.Fprintf(out, "Hi %s!\n", s.Profile.Name)
				fmt.Fprintf(out, "Steps today:      %d / %d (%.0f%%)\n", s.Goal.Completed, s.Goal.Goal, s.Goal.Fraction*100)
				fmt.Fprintf(out, "Calories burned:  %d\n", s.TotalCalories)
				fmt.Fprintf(out, "Workouts (7d):    %d\n", s.WeeklyWorkouts)
				fmt.Fprintf(out, "Lifetime:         %d workouts, %d kcal\n", s.Lifetime.TotalWorkouts, s.Lifetime.TotalCalories)
				fmt.Fprintln(out, "Last 7 days:")
				for _, d := range s.DailyCalories {
					fmt.Fprintf(out, "  %s %5d kcal\n", d.Label, d.Calories)
				}
				fmt.Fprintln(out, "Recommended:")
				printWorkouts(out, s.Recommended)
				return nil
			})
		},
	}
}
