package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata" // config timezones resolve on hosts without zoneinfo

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/cmd/cli/commands"
	"github.com/jakechorley/care-shifts/internal/config"
	"github.com/jakechorley/care-shifts/pkg/core/identity"
	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/db"
	"github.com/jakechorley/care-shifts/pkg/postgres"
	"github.com/jakechorley/care-shifts/pkg/utils/clock"
	"github.com/jakechorley/care-shifts/pkg/utils/logging"
	"github.com/jakechorley/care-shifts/pkg/utils/metrics"
)

const tokenEnvVar = "CARE_SHIFTS_TOKEN"

var (
	env        string
	token      string
	configPath string
	verbose    bool
	app        *commands.AppContext
	closeStore func()
)

func main() {
	app = &commands.AppContext{}

	rootCmd := &cobra.Command{
		Use:   "care-shifts",
		Short: "Care Shifts CLI - Schedule and staff care home shifts",
		Long:  `A CLI tool for creating care home shifts, assigning staff and recording check-in, check-out and cancellation.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "Session token (defaults to $"+tokenEnvVar+")")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (overrides the <env>_care_shifts_config.yaml lookup)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.LoginCmd(app))
	rootCmd.AddCommand(commands.WhoAmICmd(app))
	rootCmd.AddCommand(commands.CareHomesCmd(app))
	rootCmd.AddCommand(commands.AddCareHomeCmd(app))
	rootCmd.AddCommand(commands.CreateShiftCmd(app))
	rootCmd.AddCommand(commands.CreateRecurringShiftsCmd(app))
	rootCmd.AddCommand(commands.AssignStaffCmd(app))
	rootCmd.AddCommand(commands.StartShiftCmd(app))
	rootCmd.AddCommand(commands.CompleteShiftCmd(app))
	rootCmd.AddCommand(commands.CancelShiftCmd(app))
	rootCmd.AddCommand(commands.RescheduleShiftCmd(app))
	rootCmd.AddCommand(commands.ViewShiftCmd(app))
	rootCmd.AddCommand(commands.ListShiftsCmd(app))
	rootCmd.AddCommand(commands.ListStaffCmd(app))
	rootCmd.AddCommand(commands.EditProfileCmd(app))
	rootCmd.AddCommand(commands.LeaveFeedbackCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.IssueTokenCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		shutdown()
		os.Exit(1)
	}
}

// initApp sets up logger, config, store and, when a token is given, the actor
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()
	app.Clock = clock.Real()

	// Load configuration first so the logger can use logsDir
	if configPath != "" {
		app.Cfg, err = config.LoadFromPath(configPath)
	} else {
		app.Cfg, err = config.LoadWithEnv(env)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app.Logger, err = logging.InitLogger(env, logging.Options{LogsDir: app.Cfg.LogsDir, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application", zap.String("environment", env), zap.String("store", app.Cfg.Store))

	app.Location, err = app.Cfg.Location()
	if err != nil {
		return err
	}

	app.Verifier, err = identity.NewVerifier(app.Cfg.Identity.JWTSecret, app.Cfg.Identity.Issuer, app.Cfg.Identity.Audience)
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}

	if err := initStore(); err != nil {
		return err
	}

	if token == "" {
		token = os.Getenv(tokenEnvVar)
	}
	if token != "" {
		if err := app.Login(token); err != nil {
			return fmt.Errorf("failed to log in: %w", err)
		}
	}

	return nil
}

func initStore() error {
	switch app.Cfg.Store {
	case config.StorePostgres:
		app.Logger.Info("Connecting to database")
		pg, err := postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.Database = pg
		app.Migrator = pg
		closeStore = pg.Close
	default:
		mem := db.NewMemoryDB()
		n, err := db.Seed(app.Ctx, mem, seedProfiles(app.Cfg.Seed), seedCareHomes(app.Cfg.Seed))
		if err != nil {
			return err
		}
		app.Database = mem
		app.Logger.Info("Using memory store", zap.Int("seeded_records", n))
	}
	return nil
}

func seedProfiles(seed config.Seed) []model.Profile {
	out := make([]model.Profile, 0, len(seed.Profiles))
	for _, p := range seed.Profiles {
		name := p.FullName
		if name == "" {
			name = p.Email
		}
		out = append(out, model.Profile{
			ID:          p.ID,
			Role:        model.Role(p.Role),
			FullName:    name,
			Email:       p.Email,
			IsAvailable: true,
		})
	}
	return out
}

func seedCareHomes(seed config.Seed) []model.CareHome {
	out := make([]model.CareHome, 0, len(seed.CareHomes))
	for _, h := range seed.CareHomes {
		out = append(out, model.CareHome{ID: h.ID, Name: h.Name, Address: h.Address})
	}
	return out
}

// shutdown flushes metrics and logs and closes the store. Safe to call twice.
func shutdown() {
	if app.Cfg != nil && app.Cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(app.Cfg.MetricsFile); err != nil && app.Logger != nil {
			app.Logger.Warn("Failed to write metrics", zap.Error(err))
		}
	}
	if closeStore != nil {
		closeStore()
		closeStore = nil
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}
