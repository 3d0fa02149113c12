package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	healthhandler "agentdir/internal/health/handler"
	managershandler "agentdir/internal/managers/handler"
	managersmetrics "agentdir/internal/managers/metrics"
	managersmodels "agentdir/internal/managers/models"
	managersservice "agentdir/internal/managers/service"
	managersstore "agentdir/internal/managers/store"
	"agentdir/internal/platform/config"
	"agentdir/internal/platform/httpserver"
	"agentdir/internal/platform/logger"
	"agentdir/internal/platform/metrics"
	"agentdir/internal/platform/postgres"
	"agentdir/internal/platform/redis"
	rlconfig "agentdir/internal/ratelimit/config"
	rlmetrics "agentdir/internal/ratelimit/metrics"
	rlmiddleware "agentdir/internal/ratelimit/middleware"
	rlservice "agentdir/internal/ratelimit/service"
	"agentdir/internal/ratelimit/store/allowlist"
	"agentdir/internal/ratelimit/store/bucket"
	httptransport "agentdir/internal/transport/http"
)

// main validates configuration, wires the dependency graph, and runs the
// server until a shutdown signal arrives. Business logic lives in the
// internal services.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Debug)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	db, err := postgres.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// nil when REDIS_URL is unset; a configured but unreachable Redis fails
	// startup instead of silently degrading to per-process limits.
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	limits, err := rlconfig.FromStrings(cfg.RateLimit.Default, cfg.RateLimit.Lookup)
	if err != nil {
		return err
	}
	allowlistStore, err := allowlist.NewMemory(cfg.RateLimit.Allowlist)
	if err != nil {
		return err
	}

	var buckets rlservice.BucketStore = bucket.New()
	if redisClient != nil {
		buckets = bucket.NewRedis(redisClient.Client)
		log.Info("rate limiting backed by redis")
	}

	rlMetrics := rlmetrics.New()
	limiter, err := rlservice.New(buckets, allowlistStore,
		rlservice.WithLogger(log),
		rlservice.WithConfig(limits),
		rlservice.WithMetrics(rlMetrics),
	)
	if err != nil {
		return err
	}
	rateLimit := rlmiddleware.New(limiter, log,
		rlmiddleware.WithDisabled(cfg.RateLimit.Disabled),
		rlmiddleware.WithFallback(rlmiddleware.NewFallbackLimiter(limits, allowlistStore, log)),
		rlmiddleware.WithMetrics(rlMetrics),
	)

	assignments := managersstore.NewPostgres(db,
		managersstore.WithPaidOperationID(cfg.Lookup.PaidOperationID))
	lookupService, err := managersservice.New(assignments,
		managersservice.WithMetrics(managersmetrics.New()))
	if err != nil {
		return err
	}
	managersHandler := managershandler.New(lookupService, log, managersmodels.ValidationConfig{
		MaxAgents:    cfg.Lookup.MaxAgents,
		StrictFormat: cfg.Lookup.StrictFormat,
		AllowEmpty:   cfg.Lookup.AllowEmptyAgents,
	})

	var redisPinger healthhandler.RedisPinger
	if redisClient != nil {
		redisPinger = redisClient
	}
	healthHandler := healthhandler.New(db, redisPinger, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Config:    cfg,
		Logger:    log,
		Metrics:   metrics.New(),
		RateLimit: rateLimit,
		Health:    healthHandler,
		Managers:  managersHandler,
	})

	srv := httpserver.New(cfg.Server.Addr(), router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting agentdir", "addr", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
