package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rostermind/rostermind/config"
	"github.com/rostermind/rostermind/pkg/api"
	"github.com/rostermind/rostermind/pkg/api/handlers"
	"github.com/rostermind/rostermind/pkg/logger"
	"github.com/rostermind/rostermind/pkg/memory"
	"github.com/rostermind/rostermind/pkg/metrics"
	"github.com/rostermind/rostermind/pkg/persist"
	badgerstore "github.com/rostermind/rostermind/pkg/persist/badger"
	memstore "github.com/rostermind/rostermind/pkg/persist/memory"
	redisstore "github.com/rostermind/rostermind/pkg/persist/redis"
	"github.com/rostermind/rostermind/pkg/telemetry/tracing"
	"github.com/rostermind/rostermind/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	// CLI overrides
	appName    = flag.String("app-name", "", "Override app name")
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	// Print help
	if *helpFlag {
		printHelp()
		os.Exit(0)
	}

	// Print version
	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	// Build CLI overrides map
	overrides := buildOverrides()

	// Load configuration
	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	// Initialize logger with configuration
	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	log.Info("Starting Rostermind",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)

	// Create root context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize tracing if enabled
	var tracingShutdown tracing.ShutdownFunc
	if cfg.Tracing.Enabled {
		tracingShutdown, err = tracing.Init(ctx, cfg.Tracing, cfg.App.Name, version.Version)
		if err != nil {
			log.Error("Failed to initialize tracing", "error", err)
			os.Exit(1)
		}
		log.Info("Initialized tracing", "endpoint", cfg.Tracing.Endpoint, "sample_ratio", cfg.Tracing.SampleRatio)
	}

	// Initialize snapshot store backend
	var store persist.Store
	switch cfg.Storage.Type {
	case "badger":
		badgerCfg := &badgerstore.Config{
			Path:             cfg.Storage.Badger.Path,
			SyncWrites:       cfg.Storage.Badger.SyncWrites,
			ValueLogFileSize: cfg.Storage.Badger.ValueLogFileSize,
		}
		store, err = badgerstore.NewBadgerStore(badgerCfg)
		if err != nil {
			log.Error("Failed to create Badger store", "error", err)
			os.Exit(1)
		}
		log.Info("Initialized Badger snapshot store", "path", badgerCfg.Path)
	case "redis":
		redisCfg := &redisstore.Config{
			Address:   cfg.Storage.Redis.Address,
			Password:  cfg.Storage.Redis.Password,
			DB:        cfg.Storage.Redis.DB,
			KeyPrefix: cfg.Storage.Redis.KeyPrefix,
		}
		store, err = redisstore.NewRedisStore(ctx, redisCfg)
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		log.Info("Initialized Redis snapshot store", "address", redisCfg.Address)
	case "memory":
		store = memstore.NewMemoryStore()
		log.Info("Initialized in-memory snapshot store")
	default:
		store = memstore.NewMemoryStore()
		log.Warn("Unknown storage type, using in-memory snapshot store", "type", cfg.Storage.Type)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing snapshot store", "error", err)
		}
	}()

	// Initialize metrics manager
	metricsCfg := metrics.DefaultConfig()
	metricsCfg.Enabled = cfg.Metrics.Enabled
	metricsCfg.Port = cfg.Metrics.Port
	metricsCfg.Path = cfg.Metrics.Path
	metricsManager := metrics.NewManager(metricsCfg)

	// Start metrics server if enabled
	if metricsManager.Enabled() {
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	// Create the per-team engine registry and restore persisted state
	registry := memory.NewRegistry(cfg.Memory, log, metricsManager)

	keeper := persist.NewKeeper(store, registry, cfg.Storage.SnapshotInterval, log)
	if err := keeper.Restore(ctx); err != nil {
		log.Error("Failed to restore memory state", "error", err)
		os.Exit(1)
	}
	if cfg.Storage.SnapshotInterval > 0 {
		if err := keeper.Start(ctx); err != nil {
			log.Error("Failed to start snapshot keeper", "error", err)
			os.Exit(1)
		}
		log.Info("Snapshot keeper running", "interval", cfg.Storage.SnapshotInterval)
	}

	// Initialize HTTP server with handlers
	apiHandlers := &api.Handlers{
		Memory:  handlers.NewMemoryHandler(registry, log),
		Health:  handlers.NewHealthHandler(registry, store),
		Metrics: metricsManager,
	}

	httpServer := api.NewHTTPServer(cfg, log, apiHandlers)

	// Start HTTP server in a separate goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
		if err := httpServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	log.Info("Rostermind is running",
		"http_port", cfg.Server.Port,
		"metrics_port", cfg.Metrics.Port,
		"storage", cfg.Storage.Type,
	)
	log.Info("Press Ctrl+C to stop")

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErrChan:
		log.Error("HTTP server error", "error", err)
	case <-ctx.Done():
		log.Info("Context cancelled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server first so no new writes arrive
	log.Info("Shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	// Stop the keeper; it performs a final flush of all engines
	log.Info("Flushing memory snapshots")
	if cfg.Storage.SnapshotInterval > 0 {
		if err := keeper.Stop(shutdownCtx); err != nil {
			log.Error("Error during final snapshot flush", "error", err)
		}
	} else if err := keeper.FlushAll(shutdownCtx); err != nil {
		log.Error("Error during final snapshot flush", "error", err)
	}

	if tracingShutdown != nil {
		if err := tracingShutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracing", "error", err)
		}
	}

	log.Info("Rostermind stopped gracefully")
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *appName != "" {
		overrides["app.name"] = *appName
	}
	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
	}

	return overrides
}

func printVersion() {
	fmt.Printf("Rostermind - Contextual Memory Engine\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("Rostermind - Contextual memory engine for team assistants\n\n")
	fmt.Printf("Usage: rostermind [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  rostermind                                 # Run with default config\n")
	fmt.Printf("  rostermind -config config.yaml             # Use specific config file\n")
	fmt.Printf("  rostermind -port 9090 -log-level debug     # Override specific options\n")
	fmt.Printf("  rostermind -version                        # Print version info\n")
}
