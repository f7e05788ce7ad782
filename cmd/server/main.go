/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the overtime engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (YAML file, .env, environment)
  3. Initialize SQLite store
  4. Seed configurations from the seed file, if any
  5. Build the overtime and maintenance services and the API handler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML configuration file (optional)
  -port    HTTP server port, overrides the configuration
  -db      SQLite database path, overrides the configuration
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/overtime.db"

  # Run with in-memory database and a seed file
  OVERTIME_SEED_FILE=./seed.json ./server -db=":memory:"

ENVIRONMENT:
  See config/config.go (OVERTIME_* variables).

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Settings
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/config"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/maintenance"
	"github.com/warp/overtime-engine/metrics"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Server.LogLevel})).
		With(slog.String("app", "overtime-engine"))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	svc := overtime.NewService(store, overtime.NewCalculator(cfg.Overtime.ReferenceZone), cfg.Overtime.Fallback, logger)
	svc.Observer = metrics.Observer{}

	if cfg.Overtime.SeedFile != "" {
		if err := seedConfigurations(context.Background(), svc, cfg.Overtime.SeedFile); err != nil {
			return err
		}
	}

	maint := maintenance.NewService(store, cfg.Overtime.ReferenceZone, logger)

	router := api.NewRouter(api.NewHandler(svc, maint, logger), api.RouterOptions{
		CORSOrigins: cfg.Server.CORSOrigins,
		LogLevel:    cfg.Server.LogLevel,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"port", cfg.Server.Port, "db", cfg.Database.Path,
			"reference_zone", cfg.Overtime.ReferenceZone.String(), "day_type_fallback", cfg.Overtime.Fallback)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// seedConfigurations creates the configurations of a JSON seed file that do
// not exist yet, activating those marked active.
func seedConfigurations(ctx context.Context, svc *overtime.Service, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	list, err := factory.NewConfigurationFactory().ParseConfigurations(data)
	if err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}

	for _, bs := range list {
		if bs.ID != "" {
			if _, err := svc.GetConfiguration(ctx, bs.ID); err == nil {
				continue
			} else if !generic.IsNotFound(err) {
				return err
			}
		}
		wantActive := bs.Status == overtime.StatusActive
		created, err := svc.CreateConfiguration(ctx, bs)
		if err != nil {
			return fmt.Errorf("seed configuration %q: %w", bs.Name, err)
		}
		if wantActive {
			if _, err := svc.ActivateConfiguration(ctx, created.ID); err != nil {
				svc.Logger.Warn("seed configuration left in draft", "configuration_id", created.ID, "error", err)
			}
		}
	}
	return nil
}
