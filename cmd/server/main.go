package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lavilla/almacen/internal/config"
	"github.com/lavilla/almacen/internal/repository/filestore"
	"github.com/lavilla/almacen/internal/repository/mongodb"
	"github.com/lavilla/almacen/internal/repository/sheets"
	"github.com/lavilla/almacen/internal/scheduler"
	"github.com/lavilla/almacen/internal/server/handlers"
	"github.com/lavilla/almacen/internal/server/router"
	"github.com/lavilla/almacen/internal/service/alerts"
	"github.com/lavilla/almacen/internal/service/auth"
	commandsvc "github.com/lavilla/almacen/internal/service/commands"
	importersvc "github.com/lavilla/almacen/internal/service/importer"
	"github.com/lavilla/almacen/internal/service/inventory"
	reportingsvc "github.com/lavilla/almacen/internal/service/reporting"
	whatsappsvc "github.com/lavilla/almacen/internal/service/whatsapp"
	whatsappclient "github.com/lavilla/almacen/pkg/clients/whatsapp"
	"github.com/lavilla/almacen/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := filestore.NewStore(cfg.Store.Path, baseLogger.Named("repo.filestore"))
	if err != nil {
		baseLogger.Fatal("failed to init record store", zap.Error(err))
	}

	loc := cfg.Reporting.Location()
	evaluator := alerts.NewEvaluator(loc)
	inventorySvc := inventory.NewService(store, evaluator, baseLogger.Named("svc.inventory"))

	sessions := auth.NewSessionManager(cfg.Admin.SessionTTL)
	gate, err := auth.NewGate(cfg.Admin, sessions, baseLogger.Named("svc.auth"))
	if err != nil {
		baseLogger.Fatal("failed to init admin gate", zap.Error(err))
	}

	var (
		rangeReader importersvc.RangeReader
		sinks       = reportingsvc.Sinks{}
	)

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		rangeReader = sheetsRepo
		sinks.Sheet = sheetsRepo
		sinks.SheetRange = cfg.Sheets.AlertRange
	} else {
		baseLogger.Warn("google sheets not configured, legacy import and alert rows disabled")
	}

	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		sinks.Reports = mongoRepo
	} else {
		baseLogger.Warn("mongodb not configured, alert reports are not stored")
	}

	whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
	if cfg.WhatsApp.Enabled() {
		sinks.Messenger = whatsClient
		sinks.Recipient = cfg.WhatsApp.AlertRecipient
		baseLogger.Info("whatsapp alert delivery enabled")
	}

	importer := importersvc.NewService(rangeReader, inventorySvc, cfg.Sheets.LegacyRange, baseLogger.Named("svc.importer"))
	reportingSvc := reportingsvc.NewService(inventorySvc, sinks, loc, baseLogger.Named("svc.reporting"))

	routes := router.Handlers{
		Inventory: handlers.NewInventoryHandler(inventorySvc, baseLogger.Named("handlers.inventory")),
		Auth:      handlers.NewAuthHandler(gate, baseLogger.Named("handlers.auth")),
		Admin:     handlers.NewAdminHandler(importer, reportingSvc, baseLogger.Named("handlers.admin")),
		Sessions:  gate,
	}

	if cfg.WhatsApp.WebhookEnabled() {
		dispatcher := commandsvc.NewService(inventorySvc, reportingSvc, baseLogger.Named("svc.commands"))
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp.VerifyToken, whatsClient, dispatcher, baseLogger.Named("svc.whatsapp"))
		routes.Webhook = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
		baseLogger.Info("whatsapp stock queries enabled")
	}

	engine := router.New(routes, baseLogger.Named("router"))

	if reportingSvc.HasSinks() {
		sched := scheduler.NewScheduler(cfg.Reporting, reportingSvc, baseLogger.Named("scheduler"))
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	} else {
		baseLogger.Info("no alert sinks configured, scheduler not started")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("store", store.Path()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
