package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"maestro-hq/maestro/pkg/config"
	"maestro-hq/maestro/pkg/dispatch"
	"maestro-hq/maestro/pkg/refinement"
	"maestro-hq/maestro/pkg/store"
	"maestro-hq/maestro/pkg/telemetry/health"
	"maestro-hq/maestro/pkg/telemetry/logging"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Maestro orchestrator",
	Long: `Start the Maestro orchestrator with the specified configuration.

The orchestrator keeps provider sessions warm, serves metrics and health
endpoints, runs scheduled storage maintenance, and hot-reloads the
refinement rules file when watching is enabled.

Examples:
  # Start with default config
  maestro run

  # Start with custom config
  maestro run --config /etc/maestro/config.yaml

  # Validate config without starting
  maestro run --dry-run`,
	RunE: runOrchestrator,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runOrchestrator(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply flag overrides
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, closeLog, err := logging.Setup(cfg.Telemetry.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Info("maestro starting",
		"version", version,
		"providers", len(app.adapters),
		"storage", cfg.Storage.Path,
	)

	maintenance := store.NewMaintenance(app.store, app.registry, store.MaintenanceConfig{
		Schedule:      cfg.Storage.MaintenanceSchedule,
		RetentionDays: cfg.Storage.RetentionDays,
	})
	if err := maintenance.Start(ctx); err != nil {
		return fmt.Errorf("failed to start storage maintenance: %w", err)
	}
	defer maintenance.Stop()

	var server *http.Server
	if cfg.Telemetry.Metrics.ListenAddress != "" {
		server = telemetryServer(cfg, app)
		go func() {
			logger.Info("telemetry endpoint listening", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("telemetry endpoint failed", "error", err)
			}
		}()
	}

	if cfg.Refinement.Watch && cfg.Refinement.RulesPath != "" {
		go watchRules(ctx, cfg.Refinement.RulesPath, app.dispatcher, logger)
	}

	if watcher, err := config.NewWatcher(cfgFile); err != nil {
		logger.Warn("config watching disabled", "error", err)
	} else {
		defer watcher.Close()
		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) {
				rules, err := loadRules(next)
				if err != nil {
					logger.Error("config reload: rules unusable, keeping previous rules", "error", err)
					return
				}
				app.dispatcher.SetRules(rules)
				logger.Info("configuration reloaded; provider and storage changes take effect on restart")
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry endpoint shutdown failed", "error", err)
		}
	}

	logger.Info("maestro stopped")
	return nil
}

// telemetryServer assembles the metrics and health endpoints on the
// configured listen address.
func telemetryServer(cfg *config.Config, app *app) *http.Server {
	checker := health.New(0)
	checker.RegisterCheck("store", health.StoreCheck(app.store))
	checker.RegisterCheck("adapters", health.AdapterCheck(app.adapters))
	checker.RegisterCheck("sessions", health.SessionCheck(app.registry))

	path := cfg.Telemetry.Metrics.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, app.collector.Handler())
	mux.Handle("/health", checker.LivenessHandler())
	mux.Handle("/health/ready", checker.ReadinessHandler())

	return &http.Server{
		Addr:              cfg.Telemetry.Metrics.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// watchRules reloads the refinement rules file whenever it changes. Editors
// that replace the file atomically emit Remove or Rename, so the watch is
// re-added after each reload.
func watchRules(ctx context.Context, path string, dispatcher *dispatch.Dispatcher, logger *slog.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to watch rules file", "path", path, "error", err)
		return
	}
	defer watcher.Close()

	// Watch the directory: atomic writes replace the file inode.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Error("failed to watch rules directory", "path", path, "error", err)
		return
	}

	const debounce = 100 * time.Millisecond
	var timer *time.Timer

	reload := func() {
		rules, err := refinement.LoadRulesFile(path)
		if err != nil {
			logger.Error("rules reload failed, keeping previous rules", "path", path, "error", err)
			return
		}
		dispatcher.SetRules(rules)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("rules watcher error", "error", err)
		}
	}
}
