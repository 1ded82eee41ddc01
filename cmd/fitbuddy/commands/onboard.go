package commands

import (
	"context"
	"fmt"

	"github.com/benvon/fitness-buddy/internal/app"
	"github.com/benvon/fitness-buddy/internal/models"
	"github.com/spf13/cobra"
)

func newOnboardCmd(flags *globalFlags) *cobra.Command {
	var (
		draft     models.ProfileDraft
		gender    string
		level     string
		goal      string
		equipment []string
	)
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Create (or replace) your profile",
		Example: `  fitbuddy onboard --name Sam --age 30 --weight 70 --height 175 \
    --level intermediate --goal muscle_gain --equipment dumbbells`,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft.Gender = models.Gender(gender)
			draft.FitnessLevel = models.FitnessLevel(level)
			draft.Goal = models.Goal(goal)
			draft.Equipment = equipment

			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				p, err := a.Controller.Onboard(ctx, draft)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if flags.jsonOutput {
					return printJSON(out, p)
				}
				fmt.Fprintf(out, "Welcome, %s! Level: %s, goal: %s.\n",
					p.Name, models.HumanizeLabel(string(p.FitnessLevel)), models.HumanizeLabel(string(p.Goal)))
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&draft.Name, "name", "", "your name")
	f.IntVar(&draft.Age, "age", 0, "age in years")
	f.Float64Var(&draft.Weight, "weight", 0, "weight in kg")
	f.Float64Var(&draft.Height, "height", 0, "height in cm")
	f.StringVar(&gender, "gender", "", "male, female or other (default male)")
	f.StringVar(&level, "level", "", "beginner, intermediate or advanced (default beginner)")
	f.StringVar(&goal, "goal", "", "weight_loss, muscle_gain or endurance (default weight_loss)")
	f.StringSliceVar(&equipment, "equipment", nil, "available equipment, comma separated")
	return cmd
}
