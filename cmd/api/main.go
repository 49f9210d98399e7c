package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"agri-ledger/internal/config"
	"agri-ledger/internal/database"
)

const programName = "agri-ledger"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
	appConfig  *config.Config
)

func newLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	addSource := false
	if globalFlags.debug {
		logLevel = slog.LevelDebug
		addSource = true
	}
	logger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: addSource,
			Level:     logLevel,
		}),
	).With("component", programName)
	slog.SetDefault(logger)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		logger.Info(fmt.Sprintf(format, v...))
	})); err != nil {
		logger.Warn("failed to set GOMAXPROCS", "error", err)
	}
	return logger
}

// openDatabase opens the store selected by cfg and initializes its schema.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*database.DB, error) {
	opts := database.Options{
		Dialect:      database.Dialect(cfg.Driver),
		MaxOpenConns: cfg.MaxOpenConns,
		BusyTimeout:  cfg.BusyTimeout,
		Logger:       logger,
	}
	if opts.Dialect == database.DialectPostgres {
		opts.DSN = cfg.DSN
	} else {
		opts.DSN = cfg.Path
	}
	return database.Open(ctx, opts)
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the ledger schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			db, err := openDatabase(cmd.Context(), appConfig.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()
			logger.Info("schema ready", "driver", appConfig.Database.Driver)
			return nil
		},
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Farmer points, verification and subsidy ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd, args)
		},
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		appConfig = cfg
		return nil
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
