package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noot-app/fct-api/internal/config"
	"github.com/noot-app/fct-api/internal/dataset"
	"github.com/noot-app/fct-api/internal/index"
	"github.com/noot-app/fct-api/internal/query"
	"golang.org/x/sync/singleflight"
)

// ServerInitializer loads the data directory into the engine and keeps it
// current
type ServerInitializer struct {
	config *config.Config
	engine *query.Engine
	log    *slog.Logger
	group  singleflight.Group
}

// NewServerInitializer creates a new server initializer
func NewServerInitializer(cfg *config.Config, engine *query.Engine, logger *slog.Logger) *ServerInitializer {
	return &ServerInitializer{
		config: cfg,
		engine: engine,
		log:    logger,
	}
}

// Initialize loads the data directory and installs the first snapshot. A
// failure here must stop the process.
func (si *ServerInitializer) Initialize(ctx context.Context) error {
	start := time.Now()
	si.log.Info("Initializing server...", "data_dir", si.config.DataDir)

	// Log development mode warning
	if si.config.IsDevelopment() {
		si.log.Warn("🚧 DEVELOPMENT MODE ENABLED 🚧",
			"environment", si.config.Environment,
			"note", "Detailed error messages will be returned to clients")
	}

	idx, err := si.build(ctx)
	if err != nil {
		snapshotReloads.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	si.install(idx)

	si.log.Info("Server initialized successfully", "foods", idx.Len(), "duration", time.Since(start))
	return nil
}

// Reload rebuilds the snapshot when the data directory changed. Concurrent
// calls share one rebuild. On failure the current snapshot stays installed.
func (si *ServerInitializer) Reload(ctx context.Context, reason string) (bool, error) {
	v, err, shared := si.group.Do("reload", func() (any, error) {
		return si.reload(ctx, reason)
	})
	if shared {
		si.log.Debug("Reload coalesced", "reason", reason)
	}
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (si *ServerInitializer) reload(ctx context.Context, reason string) (bool, error) {
	start := time.Now()

	fingerprint, err := dataset.Fingerprint(si.config.DataDir)
	if err != nil {
		snapshotReloads.WithLabelValues("failed").Inc()
		si.log.Error("Reload failed, keeping current snapshot", "reason", reason, "error", err)
		return false, err
	}

	if current, err := si.engine.Snapshot(); err == nil && current.Fingerprint() == fingerprint {
		snapshotReloads.WithLabelValues("unchanged").Inc()
		si.log.Debug("Dataset unchanged, skipping reload", "reason", reason)
		return false, nil
	}

	idx, err := si.build(ctx)
	if err != nil {
		snapshotReloads.WithLabelValues("failed").Inc()
		si.log.Error("Reload failed, keeping current snapshot", "reason", reason, "error", err)
		return false, err
	}
	si.install(idx)

	si.log.Info("Reload completed", "reason", reason, "foods", idx.Len(), "duration", time.Since(start))
	return true, nil
}

// build loads the data directory and indexes it
func (si *ServerInitializer) build(ctx context.Context) (*index.Index, error) {
	store, err := dataset.Load(ctx, si.config.DataDir, si.log)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	idx := index.FromStore(store)
	si.log.Info("Index built", "foods", idx.Len(), "duration", time.Since(start))

	if si.config.MetadataPath != "" {
		if err := dataset.SaveMetadata(si.config.MetadataPath, dataset.NewMetadata(store)); err != nil {
			si.log.Warn("Failed to save metadata", "path", si.config.MetadataPath, "error", err)
		}
	}

	return idx, nil
}

func (si *ServerInitializer) install(idx *index.Index) {
	si.engine.Swap(idx)
	snapshotReloads.WithLabelValues("installed").Inc()
	snapshotFoods.Set(float64(idx.Len()))
	snapshotLoadedAt.Set(float64(idx.BuiltAt().Unix()))
}

// RunReloadLoop reloads on SIGHUP, on the configured interval and, when
// WATCH_DATA is set, on data file changes. It returns when ctx is done.
func (si *ServerInitializer) RunReloadLoop(ctx context.Context) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var tick <-chan time.Time
	if interval := si.config.ReloadInterval(); interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
		si.log.Info("Starting reload loop", "interval", interval)
	}

	changed := make(chan struct{}, 1)
	if si.config.WatchData {
		watcher, err := dataset.NewWatcher(si.config.DataDir, dataset.DefaultDebounce, si.log)
		if err != nil {
			si.log.Warn("Data directory watch disabled", "error", err)
		} else {
			go watcher.Run(ctx, func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})
		}
	}

	for {
		select {
		case <-ctx.Done():
			si.log.Info("Reload loop stopping due to context cancellation")
			return nil
		case <-hup:
			si.Reload(ctx, "signal")
		case <-tick:
			si.Reload(ctx, "interval")
		case <-changed:
			si.Reload(ctx, "watch")
		}
	}
}
