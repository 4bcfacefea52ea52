package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/feedplanner/internal/catalog"
	"github.com/mamadbah2/feedplanner/internal/config"
	"github.com/mamadbah2/feedplanner/internal/repository/mongodb"
	"github.com/mamadbah2/feedplanner/internal/repository/objectstore"
	"github.com/mamadbah2/feedplanner/internal/repository/sheets"
	"github.com/mamadbah2/feedplanner/internal/scheduler"
	"github.com/mamadbah2/feedplanner/internal/server/handlers"
	"github.com/mamadbah2/feedplanner/internal/server/router"
	commandsvc "github.com/mamadbah2/feedplanner/internal/service/commands"
	plannersvc "github.com/mamadbah2/feedplanner/internal/service/planner"
	pricingsvc "github.com/mamadbah2/feedplanner/internal/service/pricing"
	publishingsvc "github.com/mamadbah2/feedplanner/internal/service/publishing"
	reportingsvc "github.com/mamadbah2/feedplanner/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/feedplanner/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/feedplanner/pkg/clients/whatsapp"
	"github.com/mamadbah2/feedplanner/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	feedCatalog, err := catalog.Load(cfg.Planner.CatalogPath)
	if err != nil {
		baseLogger.Fatal("failed to load feed catalog", zap.Error(err), zap.String("path", cfg.Planner.CatalogPath))
	}
	baseLogger.Info("feed catalog loaded",
		zap.String("version", feedCatalog.Version()),
		zap.Int("categories", len(feedCatalog.Categories())))

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	var (
		sinks        publishingsvc.Sinks
		integrations commandsvc.Integrations
	)

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(startupCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sinks.Sheets = sheetsRepo
		sinks.ScheduleRange = cfg.Sheets.ScheduleRange
		integrations.Prices = pricingsvc.NewSheetSource(sheetsRepo, cfg.Sheets.PriceRange, baseLogger.Named("svc.pricing"))
	} else {
		baseLogger.Warn("google sheets not configured, plans are computed without prices")
	}

	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		sinks.Archive = mongoRepo
	}

	if cfg.Storage.Enabled() {
		store, err := objectstore.NewS3Store(startupCtx, cfg.Storage, baseLogger.Named("repo.objectstore"))
		if err != nil {
			baseLogger.Fatal("failed to init object storage", zap.Error(err))
		}
		sinks.Store = store
	}

	plannerSvc := plannersvc.NewService(feedCatalog, cfg.Planner.DefaultCurrency, baseLogger.Named("svc.planner"))
	reportingSvc := reportingsvc.NewService(cfg.Planner.FarmName, baseLogger.Named("svc.reporting"))
	publishingSvc := publishingsvc.NewService(reportingSvc, sinks, baseLogger.Named("svc.publishing"))

	integrations.Archiver = publishingSvc
	integrations.Publisher = publishingSvc

	planHandler := handlers.NewPlanHandler(plannerSvc, reportingSvc, publishingSvc, baseLogger.Named("handlers.plans"))

	var webhookHandler *handlers.WebhookHandler
	if cfg.WhatsApp.Enabled() {
		commandDispatcher := commandsvc.NewService(plannerSvc, reportingSvc, integrations, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		webhookHandler = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))

		if cfg.Reminder.Enabled() {
			sched, err := scheduler.NewScheduler(cfg.Reminder, plannerSvc, reportingSvc, messagingSvc, integrations, baseLogger.Named("scheduler"))
			if err != nil {
				baseLogger.Fatal("failed to init scheduler", zap.Error(err))
			}
			if err := sched.Start(); err != nil {
				baseLogger.Fatal("failed to start scheduler", zap.Error(err))
			}
			defer sched.Stop()
		}
	} else {
		baseLogger.Warn("whatsapp credentials missing, chat commands disabled")
	}

	engine := router.New(planHandler, webhookHandler, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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
