// Package internal wires the civitrack application together: config,
// logging, database, the report engine and the HTTP server.
package internal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"civitrack/internal/config"
	"civitrack/internal/database"
	"civitrack/internal/logging"
	"civitrack/internal/reports"
	"civitrack/internal/visits"
)

const shutdownTimeout = 10 * time.Second

// Application holds the wired components for one running instance.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.Manager
	Store     *visits.Store
	Generator *reports.Generator

	server *fiber.App
}

// NewApp builds the application from the environment configuration,
// opening and migrating the database.
func NewApp() (*Application, error) {
	cfg := config.GetConfig()
	logger := logging.NewLogger(cfg)

	dbManager := database.NewManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := dbManager.MigrateDatabase(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store := visits.NewStore(dbManager.GetConnection())
	generator := reports.NewGenerator(store, store, logger)

	app := &Application{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		Store:     store,
		Generator: generator,
	}

	app.server = fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: cfg.IsProduction(),
	})
	app.MountRoutes(app.server)

	return app, nil
}

// Run serves HTTP until SIGINT/SIGTERM, then shuts down gracefully.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("Starting HTTP server", slog.String("port", a.Config.AppPort))
		errCh <- a.server.Listen(":" + a.Config.AppPort)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		a.Logger.Info("Shutting down", slog.String("signal", sig.String()))
	}

	if err := a.server.ShutdownWithTimeout(shutdownTimeout); err != nil {
		a.Logger.Error("HTTP shutdown failed", slog.Any("error", err))
	}
	return a.Close()
}

// Close releases the application's resources.
func (a *Application) Close() error {
	if err := a.DBManager.CheckpointWAL("TRUNCATE"); err != nil {
		a.Logger.Warn("Failed to checkpoint WAL on shutdown", slog.Any("error", err))
	}
	return a.DBManager.Close()
}
