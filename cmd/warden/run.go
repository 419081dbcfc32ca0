package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mineguard/warden/internal/standalone"
	"mineguard/warden/pkg/broadcast"
	"mineguard/warden/pkg/config"
	"mineguard/warden/pkg/keystore"
	"mineguard/warden/pkg/points"
	"mineguard/warden/pkg/policy/engine"
	"mineguard/warden/pkg/policy/manager"
	"mineguard/warden/pkg/rulelang/ast"
	"mineguard/warden/pkg/script"
	"mineguard/warden/pkg/server"
	"mineguard/warden/pkg/telemetry"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the warden daemon",
	Long: `Load the rule and message directories, start the timed broadcaster and
the admin HTTP server, and keep rules fresh by watching the directories for
changes. Without a connected game host, deliveries are logged.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if verbose {
		cfg.Rules.Verbose = true
		cfg.Logging.Level = "debug"
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(registry)

	keys, err := openKeyStore(cfg.Database.KeysPath)
	if err != nil {
		return err
	}
	defer keys.Close()

	pts, err := openPointsStore(cfg.Database.PointsPath)
	if err != nil {
		return err
	}
	defer pts.Close()

	adapter := standalone.New(logger)
	eng := engine.New(engine.Deps{
		Permissions: adapter,
		Channels:    adapter,
		Messenger:   adapter,
		Dispatcher:  adapter,
		Kicker:      adapter,
		Players:     adapter,
		Variables:   adapter,
		Keys:        keys,
		Points:      pts,
		Scripts:     script.NewExprEvaluator(),
		Logger:      logger.With("component", "engine"),
		Metrics:     metrics,
	}, engine.Options{
		StopOnFirstMatch: cfg.Rules.StopOnFirstMatch,
		ApplyOn:          applyOnTypes(cfg.Rules.ApplyOn),
		StripColors:      cfg.Rules.StripColors,
		StripAccents:     cfg.Rules.StripAccents,
		Verbose:          cfg.Rules.Verbose,
		MatchTimeout:     cfg.Rules.MatchTimeout,
	})

	loader := manager.NewLoader(cfg.Rules.MatchTimeout, logger.With("component", "loader")).
		WithEnabledMessages(enabledMessageTypes(cfg.Messages.Enabled))
	mgr := manager.New(loader, eng, cfg.Rules.Dir, cfg.Messages.Dir,
		logger.With("component", "manager"), metrics)

	broadcaster := broadcast.New(eng, cfg.Messages.TimedDelay, logger.With("component", "broadcast"))
	mgr.OnSwap(broadcaster.Schedule)

	if err := mgr.Reload(); err != nil {
		return fmt.Errorf("initial rule load failed: %w", err)
	}

	broadcaster.Start()
	defer broadcaster.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Rules.Watch {
		go func() {
			if err := mgr.Watch(ctx, cfg.Rules.WatchDebounce); err != nil {
				logger.Error("rule watcher exited", "error", err)
			}
		}()
	}

	if cfg.Admin.Enabled {
		admin := server.New(&cfg.Admin, mgr, registry, logger.With("component", "admin"))
		return admin.Start(ctx)
	}

	<-ctx.Done()
	return nil
}

func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		slog.Info("config file not found, using defaults", "path", cfgFile)
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func openKeyStore(path string) (keystore.Store, error) {
	if path == "" {
		return keystore.NewMemoryStore(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create key database directory: %w", err)
	}
	return keystore.NewSQLiteStore(path)
}

func openPointsStore(path string) (points.Store, error) {
	if path == "" {
		return points.NewMemoryStore(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create points database directory: %w", err)
	}
	return points.NewSQLiteStore(path)
}

func applyOnTypes(names []string) []ast.RuleType {
	types := make([]ast.RuleType, 0, len(names))
	for _, name := range names {
		types = append(types, ast.RuleType(name))
	}
	return types
}

func enabledMessageTypes(names []string) []ast.MessageType {
	types := make([]ast.MessageType, 0, len(names))
	for _, name := range names {
		types = append(types, ast.MessageType(name))
	}
	return types
}
