package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mapgrid-network/mapgrid/internal/api"
	"github.com/mapgrid-network/mapgrid/internal/app/card"
	"github.com/mapgrid-network/mapgrid/internal/app/dispatch"
	"github.com/mapgrid-network/mapgrid/internal/app/task"
	"github.com/mapgrid-network/mapgrid/internal/domain"
	"github.com/mapgrid-network/mapgrid/internal/health"
	"github.com/mapgrid-network/mapgrid/internal/infra/maps"
	"github.com/mapgrid-network/mapgrid/internal/infra/sqlite"
)

// Daemon is the core MapGrid runtime. It wires together all services.
type Daemon struct {
	Config     Config
	Store      domain.TaskStore
	Registry   *task.Registry
	Dispatcher *dispatch.Dispatcher
	Card       *card.Provider
	Health     *health.Checker
	Server     *api.Server
	Log        *log.Logger

	version string
	taskTTL time.Duration
	cancel  context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New(version string) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg, version)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config, version string) (*Daemon, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "mapgrid",
	})
	if lvl, err := log.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(lvl)
	}

	if cfg.Server.APIKey == "" {
		logger.Warn("no API key configured; set MAPGRID_API_KEY or server.api_key — all task routes will reject requests")
	}
	if cfg.Maps.APIKey == "" {
		logger.Warn("no Google Maps API key configured; upstream calls will be rejected by the provider")
	}

	// Task store: volatile memory by default, SQLite when configured.
	var store domain.TaskStore
	switch cfg.Storage.Backend {
	case "", "memory":
		store = task.NewMemoryStore()
	case "sqlite":
		db, err := sqlite.Open(cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("open task store: %w", err)
		}
		store = db
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	mapsClient := maps.NewClient(maps.Config{
		APIKey:  cfg.Maps.APIKey,
		BaseURL: cfg.Maps.BaseURL,
		Timeout: parseDuration(cfg.Maps.Timeout, maps.DefaultTimeout),
	})

	registry := task.NewRegistry(store, logger)
	dispatcher := dispatch.New(registry, mapsClient, logger)
	cardProvider := card.NewProvider(card.Info{
		Name:        cfg.Agent.Name,
		Description: cfg.Agent.Description,
		Version:     version,
		Contact:     cfg.Agent.Contact,
	})
	checker := health.NewChecker(store, mapsClient)

	srv := api.NewServer(registry, dispatcher, cardProvider, checker,
		cfg.Server.APIKey, version, logger)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:     cfg,
		Store:      store,
		Registry:   registry,
		Dispatcher: dispatcher,
		Card:       cardProvider,
		Health:     checker,
		Server:     srv,
		Log:        logger,
		version:    version,
		taskTTL:    parseDuration(cfg.Tasks.TTL, 0),
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.Health.Run(ctx)

	// Terminal-task eviction only applies to the volatile store, and only
	// when a TTL is configured.
	if mem, ok := d.Store.(*task.MemoryStore); ok && d.taskTTL > 0 {
		go d.runSweeper(ctx, mem)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.Server.Host, d.Config.Server.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.Store.Close()
	}()

	d.Log.Info("serving", "addr", "http://"+addr, "storage", storageName(d.Config.Storage.Backend))
	if d.Config.Telemetry.Prometheus {
		d.Log.Info("metrics enabled", "endpoint", "http://"+addr+"/metrics")
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// runSweeper evicts expired terminal tasks on a fixed cadence.
func (d *Daemon) runSweeper(ctx context.Context, mem *task.MemoryStore) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := mem.Sweep(now, d.taskTTL); n > 0 {
				d.Log.Debug("swept expired tasks", "count", n)
			}
		}
	}
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Store != nil {
		_ = d.Store.Close()
	}
}

func storageName(backend string) string {
	if backend == "" {
		return "memory"
	}
	return backend
}
