package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/arvis"
	"github.com/aretw0/arvis/internal/config"
	"github.com/aretw0/arvis/internal/logging"
	"github.com/aretw0/arvis/pkg/adapters/memory"
	"github.com/aretw0/arvis/pkg/adapters/process"
	"github.com/aretw0/arvis/pkg/adapters/redis"
	"github.com/aretw0/arvis/pkg/domain"
	"github.com/aretw0/arvis/pkg/ports"
)

// NewLogger configures the application logger from cfg.
// debug forces the debug level regardless of the configured one.
func NewLogger(cfg config.LogConfig, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	var opts []logging.Option
	if cfg.JSON {
		opts = append(opts, logging.WithJSON())
	}
	return logging.New(level, opts...), nil
}

// NewHistory opens the configured history store.
func NewHistory(cfg config.HistoryConfig) (ports.HistoryStore, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithMax(cfg.Max),
			redis.WithTTL(cfg.TTL),
		), nil
	case config.BackendMemory, "":
		return memory.NewHistory(cfg.Max), nil
	}
	return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
}

// LauncherOptions translates cfg into launcher options.
func LauncherOptions(cfg config.Config, logger *slog.Logger, debug bool) ([]arvis.Option, error) {
	shells, err := process.LoadShells(cfg.Script.ShellsFile)
	if err != nil {
		return nil, err
	}
	history, err := NewHistory(cfg.History)
	if err != nil {
		return nil, err
	}

	opts := []arvis.Option{
		arvis.WithExtensionsDir(cfg.ExtensionsDir),
		arvis.WithDataDir(cfg.DataDir),
		arvis.WithCacheDir(cfg.CacheDir),
		arvis.WithVariables(cfg.Variables),
		arvis.WithShells(shells),
		arvis.WithKillGrace(cfg.Script.KillGrace),
		arvis.WithScriptTimeout(cfg.Script.Timeout),
		arvis.WithScriptOutput(cfg.Script.PrintOut),
		arvis.WithHistory(history),
		arvis.WithLogger(logger),
	}
	if cfg.Script.Shell != "" {
		opts = append(opts, arvis.WithDefaultShell(cfg.Script.Shell))
	}
	if debug {
		opts = append(opts, arvis.WithLifecycleHooks(createDebugHooks(logger)))
	}
	return opts, nil
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTriggerPush: func(ctx context.Context, e *domain.TriggerEvent) {
			logger.Debug("Push Trigger", "type", e.TriggerType, "bundle_id", e.BundleID, "depth", e.Depth)
		},
		OnTriggerPop: func(ctx context.Context, e *domain.TriggerEvent) {
			logger.Debug("Pop Trigger", "bundle_id", e.BundleID, "depth", e.Depth)
		},
		OnScriptFilterRun: func(ctx context.Context, e *domain.ScriptFilterEvent) {
			logger.Debug("Script Filter Run", "bundle_id", e.BundleID, "input", e.Input)
		},
		OnScriptFilterDone: func(ctx context.Context, e *domain.ScriptFilterEvent) {
			logger.Debug("Script Filter Done", "bundle_id", e.BundleID, "status", e.Status, "items", e.Items, "duration", e.Duration)
		},
		OnActionDispatch: func(ctx context.Context, e *domain.ActionEvent) {
			logger.Debug("Dispatch Action", "type", e.ActionType, "bundle_id", e.BundleID)
		},
	}
}
