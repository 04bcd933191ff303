package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/caregiver-rota/cmd/cli/commands"
	"github.com/jakechorley/caregiver-rota/internal/config"
	"github.com/jakechorley/caregiver-rota/pkg/clients/rosterclient"
	"github.com/jakechorley/caregiver-rota/pkg/core/scheduler"
	"github.com/jakechorley/caregiver-rota/pkg/core/services"
	"github.com/jakechorley/caregiver-rota/pkg/db"
	"github.com/jakechorley/caregiver-rota/pkg/metrics"
	"github.com/jakechorley/caregiver-rota/pkg/postgres"
	"github.com/jakechorley/caregiver-rota/pkg/utils/logging"
)

var (
	env    string
	memory bool
	app    = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Caregiver rota CLI - auto-fit caregivers into hospital rooms",
		Long:  `A CLI tool for filling a day's free room slots with caregivers, viewing and exporting the schedule, and serving the auto-fit API.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Postgres != nil {
				if err := app.Postgres.Close(); err != nil {
					app.Logger.Warn("Failed to close database", zap.Error(err))
				}
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().BoolVar(&memory, "memory", false, "Use an in-memory store instead of Postgres")

	rootCmd.AddCommand(commands.AutoFitCmd(app))
	rootCmd.AddCommand(commands.ListDayCmd(app))
	rootCmd.AddCommand(commands.ExportDayCmd(app))
	rootCmd.AddCommand(commands.SyncCaregiversCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, store, scheduler and roster client
func initApp() error {
	var err error
	app.Ctx = context.Background()

	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env), zap.Bool("memory", memory))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully", zap.Int("rooms", app.Cfg.RoomCount))

	cal, err := app.Cfg.Calendar()
	if err != nil {
		return err
	}
	policy, err := app.Cfg.Policy()
	if err != nil {
		return fmt.Errorf("failed to build working-hour policy: %w", err)
	}
	catalog, err := app.Cfg.Rooms()
	if err != nil {
		return fmt.Errorf("failed to build room catalog: %w", err)
	}
	app.Layout = services.DayLayout{Calendar: cal, Policy: policy, Rooms: catalog}

	if memory {
		app.Logger.Info("Using in-memory store")
		app.Database = db.NewMemoryDB()
	} else {
		if app.Cfg.Database.URL == "" {
			return fmt.Errorf("database.url is not set (or set %s, or use --memory)", config.DatabaseURLEnv)
		}
		app.Logger.Info("Connecting to database")
		app.Postgres, err = postgres.NewDB(app.Ctx, app.Cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.Database = app.Postgres
		app.Logger.Info("Database initialized successfully")
	}

	app.Logger.Info("Initializing roster client", zap.String("base_url", app.Cfg.Roster.BaseURL))
	app.RosterClient = rosterclient.New(app.Cfg.RosterClient(), app.Logger)

	app.Scheduler, err = scheduler.New(scheduler.Config{
		Rooms:    catalog,
		Policy:   policy,
		Calendar: cal,
	}, app.Database, app.Database, app.Logger,
		scheduler.WithRecorder(metrics.NewRecorder()),
		scheduler.WithOnFinished(func(date time.Time) {
			app.Logger.Debug("Auto-fit completion signalled", zap.Time("date", date))
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	return nil
}
