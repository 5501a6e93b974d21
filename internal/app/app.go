// Package app wires configuration, storage, notifications and the lifecycle
// orchestrator for the commands under cmd/.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"bidmarket/db"
	"bidmarket/db/migrations"
	"bidmarket/internal/config"
	"bidmarket/internal/lifecycle"
	"bidmarket/internal/notify"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type App struct {
	Config       *config.Config
	Log          *slog.Logger
	DB           *sqlx.DB
	Storage      *db.Storage
	Dispatcher   *notify.Dispatcher
	Orchestrator *lifecycle.Orchestrator
}

// Open connects to Postgres, applies migrations when enabled and builds the
// orchestrator.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", cfg.PostgresConn)
	if err != nil {
		return nil, fmt.Errorf("app: connect: %w", err)
	}
	conn.SetMaxOpenConns(cfg.DBMaxOpenConns)
	conn.SetMaxIdleConns(cfg.DBMaxIdleConns)

	if cfg.RunMigrations {
		if err := migrations.Run(ctx, conn.DB); err != nil {
			conn.Close()
			return nil, err
		}
		log.Info("migrations applied")
	}

	notifiers := notify.Multi{notify.NewLogNotifier(log)}
	if cfg.NotifyWebhookURL != "" {
		client := &http.Client{Timeout: cfg.NotifyTimeout}
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.NotifyWebhookURL, client))
	}
	dispatcher := notify.NewDispatcher(notifiers, log, cfg.NotifyTimeout)

	storage := db.NewStorage(conn)
	orch := lifecycle.New(storage,
		lifecycle.WithLogger(log),
		lifecycle.WithEventSink(dispatcher),
		lifecycle.WithCommission(cfg.CommissionRate, cfg.CommissionMinFee),
		lifecycle.WithRequestTTL(cfg.RequestTTL),
		lifecycle.WithTxTimeout(cfg.TxTimeout),
		lifecycle.WithSweep(cfg.SweepBatchSize, 4),
	)
	return &App{
		Config:       cfg,
		Log:          log,
		DB:           conn,
		Storage:      storage,
		Dispatcher:   dispatcher,
		Orchestrator: orch,
	}, nil
}

// Close waits for pending notifications and closes the pool.
func (a *App) Close() error {
	a.Dispatcher.Wait()
	return a.DB.Close()
}
