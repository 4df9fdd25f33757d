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

	"github.com/salonledger/salonledger/internal/admin"
	"github.com/salonledger/salonledger/internal/app"
	"github.com/salonledger/salonledger/internal/appointments"
	"github.com/salonledger/salonledger/internal/auth"
	"github.com/salonledger/salonledger/internal/catalog"
	"github.com/salonledger/salonledger/internal/ledger"
	"github.com/salonledger/salonledger/internal/observability"
	"github.com/salonledger/salonledger/internal/platform/cache"
	"github.com/salonledger/salonledger/internal/platform/db"
	"github.com/salonledger/salonledger/internal/reports"
	"github.com/salonledger/salonledger/internal/shared"
	"github.com/salonledger/salonledger/jobs"
	"github.com/salonledger/salonledger/report"
)

const sessionCookie = "salon_session"

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

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, cfg.PGDSN); err != nil {
			logger.Error("apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	sessionManager := shared.NewSessionManager(redisClient, sessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	catalogStore := catalog.NewPGStore(dbpool)
	catalogService := catalog.NewService(catalogStore)

	authService := auth.NewService(auth.NewRepository(catalogStore), cfg.DefaultAdminPassword)
	if err := authService.EnsureSeed(ctx); err != nil {
		logger.Error("seed users", slog.Any("error", err))
		os.Exit(1)
	}

	clock := cfg.Clock()
	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, catalogService, reportCache, metrics, logger).WithClock(clock)
	reportsService := reports.NewService(ledgerRepo, catalogService, reportCache, logger).WithClock(clock)
	appointmentService := appointments.NewService(appointments.NewRepository(dbpool), catalogService).WithClock(clock)
	adminService := admin.NewService(admin.NewRepository(dbpool), reportCache, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("close inspector", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		AuthHandler:        auth.NewHandler(logger, authService, sessionManager),
		CatalogHandler:     catalog.NewHandler(logger, catalogService),
		LedgerHandler:      ledger.NewHandler(logger, ledgerService),
		AppointmentHandler: appointments.NewHandler(logger, appointmentService),
		ReportsHandler:     reports.NewHandler(logger, reportsService),
		AdminHandler:       admin.NewHandler(logger, adminService),
		ReportHandler:      report.NewHandler(report.NewClient(cfg.GotenbergURL), reportsService, logger).WithClock(clock),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
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
