package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/bukumitra/bukumitra/internal/app"
	jobmetrics "github.com/bukumitra/bukumitra/internal/jobs"
	"github.com/bukumitra/bukumitra/internal/observability"
	"github.com/bukumitra/bukumitra/internal/platform/db"
	"github.com/bukumitra/bukumitra/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	instrument := func(name string, h asynq.HandlerFunc) asynq.HandlerFunc {
		return func(ctx context.Context, t *asynq.Task) error {
			return jobMetrics.Track(name).End(h(ctx, t))
		}
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{
				Type:    jobs.TaskAllocationReconcile,
				Handler: instrument("allocation_reconcile", jobs.NewAllocationReconcileHandler(pool, logger, metrics.OrphansReconciled)),
			},
			{
				Type:    jobs.TaskEquityDriftCheck,
				Handler: instrument("equity_drift_check", jobs.NewEquityDriftCheckHandler(pool, logger)),
			},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: jobs.NewAllocationReconcileTask()},
			{Spec: "30 2 * * *", Task: jobs.NewEquityDriftCheckTask()},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
