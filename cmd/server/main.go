package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/simaogato/portfolio-engine/internal/adapter/cache"
	httpadapter "github.com/simaogato/portfolio-engine/internal/adapter/http"
	"github.com/simaogato/portfolio-engine/internal/adapter/repository/postgres"
	"github.com/simaogato/portfolio-engine/internal/config"
	"github.com/simaogato/portfolio-engine/internal/logger"
	"github.com/simaogato/portfolio-engine/internal/usecase/performance"
	"github.com/simaogato/portfolio-engine/internal/usecase/projection"
	"github.com/simaogato/portfolio-engine/internal/usecase/recurrence"
	"github.com/simaogato/portfolio-engine/internal/usecase/returns"
)

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer log.Sync() //nolint:errcheck

	// 2. Database
	db, err := postgres.NewDB(cfg.Database.ConnString())
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	// 3. Repositories
	portfolioRepo := postgres.NewPortfolioRepository(db)
	assetRepo := postgres.NewAssetRepository(db, log)
	changeRepo := postgres.NewPlannedChangeRepository(db, log)

	// 4. Engines
	strategy := returns.NewStrategy(cfg.Engine.DefaultAnnualReturns, log)
	expander := recurrence.NewExpander(log)
	initializer := projection.NewInitializer(strategy, cfg.Engine.InitializerMismatchTolerance, log)
	calculator := projection.NewCalculator(log)
	projectionEngine := projection.NewEngine(portfolioRepo, assetRepo, changeRepo, expander, initializer, calculator, log)

	resolver := performance.NewResolver(cfg.Engine.ReallocationSumTolerance, log)
	daily := performance.NewDailyCalculator(strategy)
	performanceEngine := performance.NewEngine(portfolioRepo, assetRepo, changeRepo, expander, resolver, daily, log)

	// 5. Optional projection cache
	var projectionCache *cache.ProjectionCache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Warnw("redis unreachable, projection cache disabled", "error", err)
		} else {
			ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
			projectionCache = cache.NewProjectionCache(client, ttl, log)
		}
	}

	// 6. HTTP server
	server := httpadapter.NewServer(
		portfolioRepo, assetRepo, changeRepo,
		projectionEngine, performanceEngine,
		projectionCache, log,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(cfg.Auth.APIToken),
	}

	go func() {
		log.Infow("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("failed to serve HTTP", "error", err)
		}
	}()

	waitForShutdown(httpServer, log)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(httpServer *http.Server, log *logger.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Infow("received signal, shutting down gracefully", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Errorw("graceful shutdown failed", "error", err)
	}
	log.Infow("HTTP server stopped")
}
