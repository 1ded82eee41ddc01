package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/benvon/fitness-buddy/internal/app"
	"github.com/benvon/fitness-buddy/internal/config"
	"github.com/benvon/fitness-buddy/internal/logger"
	"github.com/benvon/fitness-buddy/internal/models"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
	dataDir    string
	debug      bool
	ephemeral  bool
	jsonOutput bool
}

// NewRootCmd creates the fitbuddy command tree
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "fitbuddy",
		Short:         "Personal fitness tracker with an AI coach",
		Long:          "Track steps and workouts, get recommendations and ask an AI coach. State is kept in a local durable store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default: fitbuddy.yaml in . or the data directory)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "override the data directory")
	pf.BoolVar(&flags.debug, "debug", false, "enable debug logging, including AI prompt previews")
	pf.BoolVar(&flags.ephemeral, "ephemeral", false, "keep state in memory only")
	pf.BoolVar(&flags.jsonOutput, "json", false, "print machine-readable JSON")

	rootCmd.AddCommand(
		newServeCmd(flags),
		newOnboardCmd(flags),
		newStepsCmd(flags),
		newStatusCmd(flags),
		newRecommendCmd(flags),
		newHistoryCmd(flags),
		newWorkoutCmd(flags),
		newGenerateCmd(flags),
		newCoachCmd(flags),
		newCatalogCmd(flags),
	)
	return rootCmd
}

// withApp loads configuration, builds the app and runs fn against it
func withApp(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flags.dataDir != "" {
		cfg.DataDir = flags.dataDir
	}
	cfg.Debug = cfg.Debug || flags.debug

	zapLogger, err := logger.New(cfg.Log.Format, cfg.Log.File, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, zapLogger, app.Options{Ephemeral: flags.ephemeral})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			zapLogger.Warn("app_close_failed", zap.Error(err))
		}
	}()

	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printWorkouts(w io.Writer, workouts []models.WorkoutDescriptor) {
	if len(workouts) == 0 {
		fmt.Fprintln(w, "No workouts.")
		return
	}
	for _, d := range workouts {
		fmt.Fprintf(w, "[%s] %s (%s, %d min, %d kcal)\n", d.ID, d.Name, d.Type, d.Duration, d.Calories)
		for _, ex := range d.Exercises {
			fmt.Fprintf(w, "      - %s\n", ex)
		}
	}
}

func printHistory(w io.Writer, history []models.WorkoutRecord) {
	if len(history) == 0 {
		fmt.Fprintln(w, "No workouts completed yet.")
		return
	}
	for _, r := range history {
		fmt.Fprintf(w, "%s  %-28s %3d min %4d kcal\n",
			r.Date.Local().Format("2006-01-02 15:04"), r.Name, r.Duration, r.Calories)
	}
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
