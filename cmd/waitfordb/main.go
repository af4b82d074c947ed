// Command waitfordb blocks until Postgres accepts connections, for use as a
// container entrypoint step before the API starts.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/geocoder89/accounts/internal/config"
	"github.com/geocoder89/accounts/internal/db"
	"github.com/geocoder89/accounts/internal/observability"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBURL, 1)

	if err != nil {
		log.Error("db config failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	if err := db.WaitFor(ctx, pool.Ping, db.WaitOptions{Attempts: cfg.DBWaitAttempts, Log: log}); err != nil {
		log.Error("database unavailable", "err", err)
		pool.Close()
		os.Exit(1)
	}
}
