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

	"github.com/invoicepro/invoicepro/internal/app"
	"github.com/invoicepro/invoicepro/internal/dashboard"
	"github.com/invoicepro/invoicepro/internal/documents"
	"github.com/invoicepro/invoicepro/internal/invoicing"
	"github.com/invoicepro/invoicepro/internal/masterdata/clients"
	"github.com/invoicepro/invoicepro/internal/masterdata/companies"
	"github.com/invoicepro/invoicepro/internal/masterdata/products"
	"github.com/invoicepro/invoicepro/internal/masterdata/units"
	"github.com/invoicepro/invoicepro/internal/observability"
	"github.com/invoicepro/invoicepro/internal/payments"
	"github.com/invoicepro/invoicepro/internal/platform/cache"
	"github.com/invoicepro/invoicepro/internal/platform/db"
	"github.com/invoicepro/invoicepro/internal/procurement"
	"github.com/invoicepro/invoicepro/internal/shared"
	"github.com/invoicepro/invoicepro/jobs"
	"github.com/invoicepro/invoicepro/report"
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

	// the dashboard falls back to uncached queries while redis is down
	var dashboardCache *dashboard.Cache
	redisClient, err := cache.New(ctx, cfg.RedisAddr, "", 0)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		dashboardCache = dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	}

	auditLogger := shared.NewAuditLogger(dbpool)

	unitService := units.NewService(units.NewRepository(dbpool))
	productService := products.NewService(products.NewRepository(dbpool))
	clientService := clients.NewService(clients.NewRepository(dbpool))
	companyService := companies.NewService(companies.NewRepository(dbpool))

	procurementService := procurement.NewService(procurement.NewRepository(dbpool), companyService, auditLogger)
	invoiceService := invoicing.NewService(invoicing.NewRepository(dbpool), companyService, clientService, procurementService, auditLogger)
	paymentService := payments.NewService(payments.NewRepository(dbpool), invoiceService, auditLogger)

	reportClient := report.NewClient(cfg.GotenbergURL)
	pingCtx, cancelPing := context.WithTimeout(ctx, 3*time.Second)
	if err := reportClient.Ping(pingCtx); err != nil {
		logger.Warn("gotenberg ping", slog.Any("error", err))
	}
	cancelPing()
	documentService := documents.NewService(
		invoiceService,
		companyService,
		clientService,
		reportClient,
		documents.NewStampStore(cfg.MediaRoot),
		logger,
	)

	dashboardService := dashboard.NewService(dashboard.NewRepository(dbpool), dashboardCache)
	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		UnitsHandler:       units.NewHandler(logger, unitService),
		ProductsHandler:    products.NewHandler(logger, productService),
		ClientsHandler:     clients.NewHandler(logger, clientService),
		CompaniesHandler:   companies.NewHandler(logger, companyService),
		ProcurementHandler: procurement.NewHandler(logger, procurementService),
		InvoicingHandler:   invoicing.NewHandler(logger, invoiceService, paymentService),
		PaymentsHandler:    payments.NewHandler(logger, paymentService),
		DocumentsHandler:   documents.NewHandler(logger, documentService),
		DashboardHandler:   dashboard.NewHandler(logger, dashboardService),
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
