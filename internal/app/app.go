// Package app wires configuration, storage, the stream client, the
// pipeline, and the controllers into a running service.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/aprswatch/aprswatch/internal/aprsis"
	"github.com/aprswatch/aprswatch/internal/cache"
	"github.com/aprswatch/aprswatch/internal/constants"
	"github.com/aprswatch/aprswatch/internal/fanout"
	"github.com/aprswatch/aprswatch/internal/log"
	"github.com/aprswatch/aprswatch/internal/managers"
	"github.com/aprswatch/aprswatch/internal/pipeline"
	"github.com/aprswatch/aprswatch/internal/storage/postgres"
	"github.com/aprswatch/aprswatch/pkg/aprs"
	"github.com/aprswatch/aprswatch/pkg/config"
	"go.uber.org/zap"
)

// defaultMemcacheHost is used when storage.memcache.hosts is unset.
// The cache fails open, so a missing local memcached only disables
// dedup.
const defaultMemcacheHost = "localhost:11211"

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	cfg.ApplyDefaults()

	if cfg.APRS.UsingDefaultCallsign() {
		a.logger.Warnf("aprs.callsign not configured; logging in as %v (receive-only)", config.DefaultCallsign)
	}

	passcode := cfg.APRS.Passcode
	if strings.EqualFold(passcode, "auto") {
		passcode = strconv.Itoa(aprs.CalculatePasscode(cfg.APRS.Callsign))
	}

	if cfg.Storage.TimescaleDB == nil || cfg.Storage.TimescaleDB.ConnectionString == "" {
		return fmt.Errorf("storage.timescaledb.connection-string is required")
	}

	// Initialize the packet store
	store, err := postgres.New(ctx, cfg.Storage.TimescaleDB.ConnectionString)
	if err != nil {
		return fmt.Errorf("initializing packet store: %w", err)
	}

	// Initialize the dedup cache
	hosts := []string{defaultMemcacheHost}
	if cfg.Storage.Memcache != nil && len(cfg.Storage.Memcache.Hosts) > 0 {
		hosts = cfg.Storage.Memcache.Hosts
	}
	dedup := cache.New(hosts...)
	dedup.StartHealthMonitor(ctx)

	// Initialize the realtime fan-out hub
	hub := fanout.NewHub()

	// Initialize the stream client and the pipeline. The client calls
	// into the pipeline for every received line; handlers only fire
	// after Connect, so wiring through the closure is safe.
	var pl *pipeline.Pipeline
	client := aprsis.NewClient(aprsis.Config{
		Server:   cfg.APRS.Server,
		Callsign: cfg.APRS.Callsign,
		Passcode: passcode,
		Filter:   cfg.APRS.Filter,
		Software: "aprswatch",
		Version:  constants.Version,
	},
		aprsis.WithMessageHandler(func(line string) { pl.HandleLine(line) }),
		aprsis.WithValidatedHandler(func(verified bool) {
			if verified {
				log.Info("APRS-IS login verified")
			} else {
				log.Warn("APRS-IS login unverified; connection is receive-only")
			}
		}),
		aprsis.WithDisconnectHandler(func(err error) {
			if err != nil {
				log.Warnf("APRS-IS connection lost: %v", err)
			}
		}),
	)
	pl = pipeline.New(pipeline.Config{
		QueueSize: cfg.Pipeline.QueueSize,
		Workers:   cfg.Pipeline.Workers,
	}, client, store, dedup, hub)
	pl.Start(ctx, &wg)

	// Initialize the controller manager
	cm, err := managers.NewControllerManager(ctx, &wg, cfg.Controllers, managers.Deps{
		Store: store,
		Hub:   hub,
	}, a.logger)
	if err != nil {
		return err
	}
	err = cm.StartControllers()
	if err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	hub.Close()
	log.Info("shutdown complete")

	return nil
}
