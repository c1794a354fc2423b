package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mkadlec/binsim/internal/buildinfo"
	"github.com/mkadlec/binsim/internal/cache"
	"github.com/mkadlec/binsim/internal/circuitbreaker"
	"github.com/mkadlec/binsim/internal/config"
	"github.com/mkadlec/binsim/internal/health"
	httphandler "github.com/mkadlec/binsim/internal/http"
	"github.com/mkadlec/binsim/internal/ingest"
	"github.com/mkadlec/binsim/internal/observability"
	"github.com/mkadlec/binsim/internal/service"
	"github.com/mkadlec/binsim/internal/store"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	logger.Info("starting binsim", zap.String("version", buildinfo.String()))

	repo, err := store.Open(cfg.StorePath, cfg.StoreBusyTimeout)
	if err != nil {
		logger.Fatal("fingerprint store", zap.Error(err), zap.String("path", cfg.StorePath))
	}

	cacheSvc, cachePing, cacheCloser := buildCache(cfg, logger)

	compareService := service.NewCompareService(
		repo,
		cacheSvc,
		cfg.CacheTTL,
		cfg.CacheStaleTTL,
		cfg.CoalesceTimeout,
		cfg.MaxMatrixNames,
	)

	importer := ingest.NewImporter(compareService, logger, ingest.Config{
		MinVectorLen:   cfg.MinVectorLen,
		MaxVectorLen:   cfg.MaxVectorLen,
		RetryAttempts:  cfg.RetryAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
		RetryMaxDelay:  cfg.RetryMaxDelay,
	})

	healthConfig := &health.Config{
		OverloadWindow:         cfg.OverloadWindow,
		OverloadThresholdPct:   cfg.OverloadThresholdPct,
		RateLimitRPS:           cfg.RateLimitRPS,
		RateLimitBurst:         cfg.RateLimitBurst,
		DegradedWindow:         cfg.DegradedWindow,
		DegradedErrorPct:       cfg.DegradedErrorPct,
		DegradedRetryInitial:   cfg.DegradedRetryInitial,
		DegradedRetryMax:       cfg.DegradedRetryMax,
		IdleWindow:             cfg.IdleWindow,
		IdleThresholdReqPerMin: cfg.IdleThresholdReqPerMin,
		MinimumLifespan:        cfg.MinimumLifespan,
		StartTime:              time.Now(),
		StorePing:              repo.Ping,
		CachePing:              cachePing,
	}

	recoveryCtx, recoveryCancel := context.WithCancel(context.Background())
	defer recoveryCancel()
	health.StartRecoveryListener(recoveryCtx,
		repo.Ping,
		cfg.DegradedRetryInitial,
		cfg.DegradedRetryMax,
		func() {
			logger.Error("recovery attempts exhausted, marking service shutting-down")
			health.SetShuttingDown(true)
		})

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(compareService, importer, healthConfig, logger, limiter, httphandler.Limits{
		MinVectorLen:     cfg.MinVectorLen,
		MaxVectorLen:     cfg.MaxVectorLen,
		MaxBatchMeasures: cfg.MaxBatchMeasures,
	})

	observability.RegisterRateLimitGauges(cfg.OverloadWindow)

	if cfg.WarmEnabled && len(cfg.WarmMeasures) > 0 {
		warmer := cache.NewWarmer(compareService, logger)
		warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := warmer.Warm(warmCtx, cfg.WarmMeasures); err != nil {
			logger.Warn("cache warming failed", zap.Error(err))
		}
		warmCancel()
		if cfg.WarmInterval > 0 {
			go func() {
				if err := warmer.WarmPeriodic(context.Background(), cfg.WarmMeasures, cfg.WarmInterval); err != nil && err != context.Canceled {
					logger.Error("periodic cache warming stopped", zap.Error(err))
				}
			}()
		}
	}

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	api := router.PathPrefix("/v1").Subrouter()
	api.Use(httphandler.RateLimitMiddleware(limiter))
	api.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	api.HandleFunc("/measures", handler.ListMeasures).Methods("GET")
	api.HandleFunc("/compare", handler.CompareBatch).Methods("POST")
	api.HandleFunc("/compare/{measure}", handler.Compare).Methods("POST")
	api.HandleFunc("/fingerprints:import", handler.ImportFingerprints).Methods("POST")
	api.HandleFunc("/fingerprints", handler.ListFingerprints).Methods("GET")
	api.HandleFunc("/fingerprints/{name}", handler.PutFingerprint).Methods("PUT")
	api.HandleFunc("/fingerprints/{name}", handler.GetFingerprint).Methods("GET")
	api.HandleFunc("/fingerprints/{name}", handler.DeleteFingerprint).Methods("DELETE")
	api.HandleFunc("/fingerprints/{name}/neighbors", handler.GetNeighbors).Methods("GET")
	api.HandleFunc("/matrix", handler.GetMatrix).Methods("GET")

	if cfg.TestingMode {
		logger.Warn("Testing mode enabled; /test endpoint exposed")
		router.HandleFunc("/test", handler.GetTestStatus).Methods("GET")
		router.HandleFunc("/test/{action}", handler.PostTestAction).Methods("POST")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	health.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	observability.RecordShutdownInFlight(inFlight)
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckPeriod); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if cacheCloser != nil {
		if err := cacheCloser.Close(); err != nil {
			logger.Error("cache close", zap.Error(err))
		}
	}
	if err := repo.Close(); err != nil {
		logger.Error("store close", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// buildCache constructs the configured cache backend. Remote backends are
// wrapped in a circuit breaker so a dead memcached or redis degrades reads
// to the store instead of stalling every request.
func buildCache(cfg *config.Config, logger *zap.Logger) (cache.Cache, func() error, cache.Closer) {
	var inner cache.Cache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		inner = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	case "redis":
		rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("redis cache", zap.Error(err))
		}
		inner = rc
		logger.Info("cache backend: redis", zap.String("addr", cfg.RedisAddr))
	default:
		logger.Info("cache backend: in_memory")
		return cache.NewInMemoryCache(), nil, nil
	}

	cb := circuitbreaker.New(circuitbreaker.Config{
		Component: cfg.CacheBackend,
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("cache circuit breaker state change",
				zap.String("component", cfg.CacheBackend),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	bc := cache.NewBreakerCache(inner, cb)
	return bc, bc.Ping, bc
}
