// Command vrpd is the entry point for the vehicle routing service.
//
// vrpd exposes matrix computation and route solving over a small JSON/HTTP
// surface (see internal/httpapi): a Matrix Facade that resolves a named
// adapter and consults a TTL cache by request fingerprint, and a Dispatch
// Facade that normalizes a request, resolves a named solver engine, and
// enriches the resulting routes with recomputed totals.
//
// # Configuration
//
// Configuration loads in three layers, lowest to highest priority:
//  1. Built-in defaults (pkg/config/loader.go)
//  2. A YAML file (config.yaml, config/config.yaml, or $CONFIG_PATH)
//  3. VRP_-prefixed environment variables (VRP_HTTP_PORT, VRP_DATA_ROOT, …)
//
// DATA_DIR is folded into data.root; online adapter credentials are read per
// provider under adapters.online.<name>.api_key.
//
// # Startup sequence
//
// Config load → logger init → metrics init → matrix adapter/solver engine
// registries populated (registerAdapters/registerEngines) → benchmark index
// constructed over data.root → optional distributed matrix cache → Dispatch
// Facade constructed once → HTTP route table built over it → pkg/server.Run
// blocks, handling graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"os"

	"github.com/vrprouting/vrp-service/internal/dispatch"
	"github.com/vrprouting/vrp-service/internal/httpapi"
	"github.com/vrprouting/vrp-service/internal/index"
	"github.com/vrprouting/vrp-service/pkg/cache"
	"github.com/vrprouting/vrp-service/pkg/config"
	"github.com/vrprouting/vrp-service/pkg/logger"
	"github.com/vrprouting/vrp-service/pkg/metrics"
	"github.com/vrprouting/vrp-service/pkg/server"
)

const defaultHTTPPort = 8085

func main() {
	cfg, err := config.LoadWithServiceDefaults("vrpd", defaultHTTPPort)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.App.Name)

	adapterRegistry, err := registerAdapters(cfg)
	if err != nil {
		logger.Fatal("failed to register matrix adapters", "error", err)
	}
	engineRegistry, err := registerEngines()
	if err != nil {
		logger.Fatal("failed to register solver engines", "error", err)
	}

	idx := index.New(cfg.Data.Root, cfg.Data.BlacklistDirs)

	var matrixCache *cache.MatrixCache
	if cfg.Cache.Enabled {
		baseCache, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Warn("failed to create distributed matrix cache, continuing without it", "error", err)
		} else {
			matrixCache = cache.NewMatrixCache(baseCache, cfg.Cache.DefaultTTL)
			logger.Info("distributed matrix cache initialized", "backend", cfg.Cache.Backend, "ttl", cfg.Cache.DefaultTTL)
		}
	}

	app := dispatch.New(cfg, adapterRegistry, engineRegistry, idx, matrixCache)
	handler := httpapi.NewServer(app)

	logger.Info("starting vrpd",
		"port", cfg.HTTP.Port,
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
		"adapters", app.AdapterNames(),
		"engines", app.EngineNames(),
		"distributed_cache", matrixCache != nil,
	)

	if err := server.New(cfg, handler).Run(); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}
