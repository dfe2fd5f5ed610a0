package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/generator"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/logging"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/store"
)

var (
	// Global flags
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "launchclarity",
	Short: "LaunchClarity validation sprint API",
	Long: `Backend for validation sprints: clients submit an intake form, the
sprint's tier decides which analysis modules are unlocked, and each module is
generated by an LLM from the intake.

Run without arguments to start the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if p := loadDotenv(); p != "" && verbose {
			fmt.Fprintln(os.Stderr, "[env] loaded", p)
		}
		var err error
		logger, err = logging.New(os.Getenv("LOG_LEVEL"), verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.AddCommand(serveCmd, migrateCmd, catalogCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore connects to DATABASE_URL and migrates the schema.
func openStore(ctx context.Context, cfg Config) (*store.Store, func(), error) {
	db, err := store.Open(ctx, cfg.DatabaseURL, logging.Gorm(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("[DB] connect failed: %w", err)
	}
	if err := store.Migrate(ctx, db); err != nil {
		_ = store.Close(db)
		return nil, nil, fmt.Errorf("[DB] migrate failed: %w", err)
	}
	closeFn := func() {
		if err := store.Close(db); err != nil {
			logger.Warn("close database", zap.Error(err))
		}
	}
	return store.New(db), closeFn, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		return err
	}
	st, closeDB, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	logger.Info("[DB] connected", zap.Bool("postgres", store.IsPostgresDSN(cfg.DatabaseURL)))

	gen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("generator ready", zap.String("backend", generator.Label(gen)))
	a, err := newAPI(cfg, st, gen, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening",
			zap.String("addr", srv.Addr),
			zap.Strings("cors_origin", cfg.corsOrigins()),
			zap.String("llm_provider", cfg.LLMProvider))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		return err
	}
	_, closeDB, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	logger.Info("[DB] schema up to date")
	return nil
}
