package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bukumitra/bukumitra/internal/app"
	"github.com/bukumitra/bukumitra/internal/audit"
	"github.com/bukumitra/bukumitra/internal/business"
	"github.com/bukumitra/bukumitra/internal/capital"
	"github.com/bukumitra/bukumitra/internal/distribution"
	"github.com/bukumitra/bukumitra/internal/equity"
	"github.com/bukumitra/bukumitra/internal/ledger"
	"github.com/bukumitra/bukumitra/internal/observability"
	"github.com/bukumitra/bukumitra/internal/platform/cache"
	"github.com/bukumitra/bukumitra/internal/platform/db"
	"github.com/bukumitra/bukumitra/internal/reports"
	"github.com/bukumitra/bukumitra/internal/shared"
	"github.com/bukumitra/bukumitra/internal/users"
	"github.com/bukumitra/bukumitra/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	var equityLocker equity.Locker
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, equity lock disabled", slog.Any("error", err))
	} else {
		equityLocker = shared.NewEquityLocker(redisClient, cfg.EquityLockTTL)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)

	usersRepo := users.NewRepository(dbpool)

	businessRepo := business.NewRepository(dbpool)
	businessService := business.NewService(businessRepo, auditLogger)
	businessService.WithDirectory(usersRepo)
	businessHandler := business.NewHandler(logger, businessService)

	equityRepo := equity.NewRepository(dbpool)
	equityService := equity.NewService(equityRepo, businessService, auditLogger)
	if equityLocker != nil {
		equityService.WithLocker(equityLocker)
	}
	equityService.WithRecalcCounter(metrics.EquityRecalcs)
	equityHandler := equity.NewHandler(logger, equityService)

	capitalRepo := capital.NewRepository(dbpool)
	capitalService := capital.NewService(capitalRepo, businessService, auditLogger, equityService, logger)
	capitalHandler := capital.NewHandler(logger, capitalService)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, businessService, auditLogger, capitalService, logger)
	ledgerService.WithAutoCapitalizeCounter(metrics.AutoCapitalizeErrors)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(reportsRepo, businessService, capitalService)
	reportsHandler := reports.NewHandler(logger, reportsService)

	distributionRepo := distribution.NewRepository(dbpool)
	distributionService := distribution.NewService(distributionRepo, businessService, auditLogger, logger)
	distributionService.WithDistributionCounter(metrics.ProfitDistributions)
	distributionService.WithDirectory(usersRepo)
	distributionHandler := distribution.NewHandler(logger, distributionService)

	auditRepo := audit.NewRepository(dbpool)
	auditService := audit.NewService(auditRepo, businessService)
	auditHandler := audit.NewHandler(logger, auditService)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("build job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		BusinessHandler:     businessHandler,
		LedgerHandler:       ledgerHandler,
		CapitalHandler:      capitalHandler,
		EquityHandler:       equityHandler,
		ReportsHandler:      reportsHandler,
		DistributionHandler: distributionHandler,
		AuditHandler:        auditHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
