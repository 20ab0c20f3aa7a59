package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/prayash-yosa/Mindforge-new/internal/app"
	"github.com/prayash-yosa/Mindforge-new/internal/config"
	"github.com/prayash-yosa/Mindforge-new/internal/domain"
	"github.com/prayash-yosa/Mindforge-new/internal/logging"
	"github.com/prayash-yosa/Mindforge-new/internal/store"
	"github.com/prayash-yosa/Mindforge-new/internal/ui/theme"
)

var rootCmd = &cobra.Command{
	Use:           "mindforge",
	Short:         "Assessment and progressive feedback engine",
	Long:          "Mindforge grades student answers, discloses feedback one level at a time and answers doubts.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// Resolved in PersistentPreRunE.
var (
	cfg    *config.Config
	logger = zap.NewNop()
)

// Execute runs the root command and prints domain errors with their code.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, theme.ErrorText.Render("error:"), describe(err))
	}
	_ = logger.Sync()
	return err
}

func describe(err error) string {
	if code := domain.CodeOf(err); code != "" {
		return fmt.Sprintf("[%s] %v", code, err)
	}
	return err.Error()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (default ./mindforge.yaml or $XDG_CONFIG_HOME/mindforge/)")
	pf.String("db", "", "Database path or postgres URL (overrides MINDFORGE_DB env var)")
	pf.String("metrics-file", "", "Write Prometheus metrics to this file on exit")
	pf.StringP("student", "s", os.Getenv("MINDFORGE_STUDENT"), "Student id (default $MINDFORGE_STUDENT)")

	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(doubtCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		c.DB = db
	}
	if mf, _ := cmd.Flags().GetString("metrics-file"); mf != "" {
		c.MetricsFile = mf
	}

	l, err := logging.New(c.Log)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

// resolveDSN returns the configured database, falling back to the default
// XDG path.
func resolveDSN() (string, error) {
	if cfg != nil && cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}

// withApp builds the application, runs fn and tears everything down.
// Metrics are written even when fn fails.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	dsn, err := resolveDSN()
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}

	a, err := app.New(ctx, app.Options{DSN: dsn, AI: cfg.AI, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.WriteMetrics(cfg.MetricsFile), a.Close())
	}()

	return fn(ctx, a)
}

// openStore is for commands that only read the event log.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dsn, err := resolveDSN()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(cmd.Context(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func studentID(cmd *cobra.Command) (string, error) {
	id, _ := cmd.Flags().GetString("student")
	if id == "" {
		return "", errors.New("student id required: pass --student or set MINDFORGE_STUDENT")
	}
	return id, nil
}

func levelFlag(cmd *cobra.Command) domain.FeedbackLevel {
	l, _ := cmd.Flags().GetString("level")
	return domain.FeedbackLevel(l)
}
