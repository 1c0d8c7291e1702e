package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoicepro/invoicepro/internal/app"
	"github.com/invoicepro/invoicepro/internal/masterdata/companies"
	"github.com/invoicepro/invoicepro/internal/masterdata/units"
	"github.com/invoicepro/invoicepro/internal/platform/db"
	"github.com/invoicepro/invoicepro/internal/reminders"
	"github.com/invoicepro/invoicepro/jobs"
	"github.com/invoicepro/invoicepro/migrations"
)

type numberPreviewer interface {
	NextInvoiceNumber(ctx context.Context, userID, companyID int64) (string, error)
}

type unitSeeder interface {
	SeedDefaults(ctx context.Context) (int, error)
}

// runtime opens the database and queue only for the commands that need them.
// Tests replace the constructor funcs.
type runtime struct {
	cfg    *app.Config
	logger *slog.Logger
	out    io.Writer

	migrate func(ctx context.Context) ([]string, error)
	seeder  func(ctx context.Context) (unitSeeder, error)
	numbers func(ctx context.Context) (numberPreviewer, error)
	sweeper func(ctx context.Context) (jobs.Sweeper, error)

	pool    *pgxpool.Pool
	clients []*jobs.Client
}

func newRuntime(cfg *app.Config, logger *slog.Logger, out io.Writer) *runtime {
	rt := &runtime{cfg: cfg, logger: logger, out: out}
	rt.migrate = func(ctx context.Context) ([]string, error) {
		pool, err := rt.db(ctx)
		if err != nil {
			return nil, err
		}
		return migrations.Apply(ctx, pool)
	}
	rt.seeder = func(ctx context.Context) (unitSeeder, error) {
		pool, err := rt.db(ctx)
		if err != nil {
			return nil, err
		}
		return units.NewService(units.NewRepository(pool)), nil
	}
	rt.numbers = func(ctx context.Context) (numberPreviewer, error) {
		pool, err := rt.db(ctx)
		if err != nil {
			return nil, err
		}
		return companies.NewService(companies.NewRepository(pool)), nil
	}
	rt.sweeper = func(ctx context.Context) (jobs.Sweeper, error) {
		pool, err := rt.db(ctx)
		if err != nil {
			return nil, err
		}
		client := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		rt.clients = append(rt.clients, client)
		notifier := jobs.NewQueueNotifier(client)
		return reminders.NewSweeper(reminders.NewRepository(pool), notifier, logger, cfg.PublicBaseURL), nil
	}
	return rt
}

func (rt *runtime) db(ctx context.Context) (*pgxpool.Pool, error) {
	if rt.pool != nil {
		return rt.pool, nil
	}
	pool, err := db.New(ctx, rt.cfg.PGDSN)
	if err != nil {
		return nil, err
	}
	rt.pool = pool
	return pool, nil
}

func (rt *runtime) close() {
	for _, c := range rt.clients {
		if err := c.Close(); err != nil {
			rt.logger.Warn("asynq client close", slog.Any("error", err))
		}
	}
	rt.clients = nil
	if rt.pool != nil {
		rt.pool.Close()
		rt.pool = nil
	}
}
