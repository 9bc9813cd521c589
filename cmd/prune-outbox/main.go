// Command prune-outbox deletes dispatched notification outbox rows older than
// the configured retention (NOTIFY_RETENTION). The server prunes hourly on
// its own; this command is for deployments that prefer an external cron job.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/regpulse-backend/internal/adapter/postgres"
	outboxrepo "github.com/heartmarshall/regpulse-backend/internal/adapter/postgres/outbox"
	"github.com/heartmarshall/regpulse-backend/internal/app"
	"github.com/heartmarshall/regpulse-backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	deleted, err := outboxrepo.New(pool).PruneDispatched(ctx, cfg.Notify.Retention)
	if err != nil {
		logger.Error("prune outbox failed",
			slog.String("error", err.Error()),
			slog.Duration("retention", cfg.Notify.Retention),
		)
		os.Exit(1)
	}

	logger.Info("outbox pruned",
		slog.Int64("deleted", deleted),
		slog.Duration("retention", cfg.Notify.Retention),
	)
}
