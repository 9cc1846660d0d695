// Package main is the entry point for the organization structure API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"orgstruct/internal/core/config"
	"orgstruct/internal/domain/orgstructure"
	"orgstruct/internal/domain/orgstructure/department"
	"orgstruct/internal/domain/orgstructure/version"
	"orgstruct/internal/infrastructure/cache"
	v1 "orgstruct/internal/infrastructure/http/v1"
	"orgstruct/internal/infrastructure/http/v1/handlers"
	"orgstruct/internal/infrastructure/metrics"
	"orgstruct/internal/infrastructure/storage/postgres"
	"orgstruct/internal/infrastructure/storage/postgres/orgstructure_repo"
	"orgstruct/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Info("starting orgstruct server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.PoolConfigFrom(cfg.Postgres))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	versionRepo := orgstructure_repo.NewVersionRepo(txManager)
	departmentRepo := orgstructure_repo.NewDepartmentRepo(txManager)

	// --- Metrics ---
	var (
		m        *metrics.Metrics
		recorder orgstructure.MutationRecorder = orgstructure.NopRecorder{}
	)
	if cfg.Metrics.Enabled {
		m = metrics.New()
		m.RegisterPool(pool)
		recorder = m
	}

	// --- Services ---
	identity := department.NewIdentityMapper()
	versionOpts := []version.Option{version.WithRecorder(recorder)}
	checks := map[string]handlers.Pinger{"database": txManager}

	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			// The cache is an optimization; run without it.
			log.Warnw("as-of cache disabled", "error", err)
		} else {
			defer closeRedis(rdb)
			asOf := cache.NewAsOfCache(rdb, cfg.Redis.AsOfTTL)
			versionOpts = append(versionOpts, version.WithCache(asOf))
			checks["redis"] = asOf
		}
	}

	versionService := version.NewService(versionRepo, departmentRepo, txManager, identity, versionOpts...)
	departmentService := department.NewService(departmentRepo, versionService, txManager, identity, recorder)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		Versions:     versionService,
		Departments:  departmentService,
		HealthChecks: checks,
		Metrics:      m,
		Debug:        cfg.App.IsDevelopment(),
	})

	server := &http.Server{
		Addr:         cfg.App.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go logPoolStats(ctx, pool)

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- Graceful shutdown ---
	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Errorw("server failed", "error", err)
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// logPoolStats periodically logs database pool usage until ctx is done.
func logPoolStats(ctx context.Context, pool *postgres.Pool) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pool.LogStats(ctx)
		}
	}
}

func closeRedis(rdb *goredis.Client) {
	_ = rdb.Close()
}
