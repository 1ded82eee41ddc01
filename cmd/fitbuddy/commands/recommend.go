package commands

import (
	"context"

	"github.com/benvon/fitness-buddy/internal/app"
	"github.com/benvon/fitness-buddy/internal/catalog"
	"github.com/spf13/cobra"
)

func newRecommendCmd(flags *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "List catalog workouts for your level and goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, a *app.App) error {
				recs := a.Controller.Recommendations(limit)
				if flags.jsonOutput {
					return printJSON(cmd.OutOrStdout(), recs)
				}
				printWorkouts(cmd.OutOrStdout(), recs)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of workouts (0 for all)")
	return cmd
}

func newCatalogCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List every catalog workout",
		RunE: func(cmd *cobra.Command, args []string) error {
			all := catalog.All()
			if flags.jsonOutput {
				return printJSON(cmd.OutOrStdout(), all)
			}
			printWorkouts(cmd.OutOrStdout(), all)
			return nil
		},
	}
}
