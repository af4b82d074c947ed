package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/accounts/internal/accounts"
	"github.com/geocoder89/accounts/internal/cache"
	"github.com/geocoder89/accounts/internal/config"
	"github.com/geocoder89/accounts/internal/db"
	httpx "github.com/geocoder89/accounts/internal/http"
	"github.com/geocoder89/accounts/internal/http/handlers"
	"github.com/geocoder89/accounts/internal/observability"
	"github.com/geocoder89/accounts/internal/redisclient"
	"github.com/geocoder89/accounts/internal/repo/postgres"
	"github.com/geocoder89/accounts/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	// database: wait, then migrate
	pool, err := db.NewPool(ctx, cfg.DBURL, 10)
	if err != nil {
		log.Error("db config failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.WaitFor(ctx, pool.Ping, db.WaitOptions{Attempts: cfg.DBWaitAttempts, Log: log}); err != nil {
		log.Error("db unavailable", "err", err)
		os.Exit(1)
	}

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	checks := map[string]handlers.Check{"postgres": pool.Ping}

	// token cache: redis when configured, in-process otherwise
	var tokenCache accounts.TokenCache
	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rc.Close()

		tokenCache = cache.NewRedis(rc.Raw(), cfg.TokenCacheTTL)
		checks["redis"] = rc.Ping
	} else {
		tokenCache = cache.NewMemory(cfg.TokenCacheTTL)
	}

	// wire up repositories and services
	usersRepo := postgres.NewUsersRepo(pool, prom)
	tokensRepo := postgres.NewTokensRepo(pool, prom)

	svc := accounts.NewServices(usersRepo, tokensRepo, tokenCache, security.NewHasher(cfg.BcryptCost), log, prom)

	if err := db.EnsureSuperuser(ctx, svc.Users, cfg.SuperuserEmail, cfg.SuperuserPassword, log); err != nil {
		log.Error("superuser seed failed", "err", err)
		os.Exit(1)
	}

	var shuttingDown atomic.Bool

	// set up routers with the log
	router := httpx.NewRouter(log, httpx.RouterDeps{
		Config:       cfg,
		Services:     svc,
		Checks:       checks,
		ShuttingDown: shuttingDown.Load,
		Prom:         prom,
		Gatherer:     reg,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")
	shuttingDown.Store(true)

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctxTimeOut := 10 * time.Second

		ctx, cancel := config.WithTimeout(ctxTimeOut)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
