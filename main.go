package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wellness-rewards-system/config"
	"wellness-rewards-system/handlers"
	"wellness-rewards-system/services"
	"wellness-rewards-system/store"
	"wellness-rewards-system/utils"
	"wellness-rewards-system/workers"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config: ", err)
	}

	logger, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, err := openGateway(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to open storage: %v", err)
	}

	cal := services.NewCalendar(clockwork.NewRealClock(), cfg.Location)
	engine := services.NewProgressionEngine(gw, cal, logger)
	reconciler := services.NewLedgerReconciler(gw, logger)

	var exporter *services.SnapshotExporter
	if cfg.ExportEnabled() {
		r2, err := utils.NewR2Store(ctx, utils.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2Bucket,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
		if err != nil {
			logger.Fatalf("failed to initialize R2 client: %v", err)
		}
		exporter = services.NewSnapshotExporter(gw, r2, cal, logger)
	} else {
		logger.Warn("⚠️  R2 not configured, snapshot export disabled")
	}

	app := handlers.NewApp(handlers.AppOptions{
		ServiceToken:   cfg.ServiceToken,
		AllowedOrigins: cfg.AllowedOrigins,
		AccessLog:      true,
		Log:            logger,
		Habits: &handlers.HabitHandler{
			Habits: services.NewHabitService(gw, cal, logger),
			Engine: engine,
			Log:    logger,
		},
		Goals: &handlers.GoalHandler{
			Goals:  services.NewGoalService(gw, logger),
			Engine: engine,
			Log:    logger,
		},
		Activity: &handlers.ActivityHandler{
			Activity: services.NewActivityService(gw, engine.Ledger, cal, logger),
			Log:      logger,
		},
		Progression: &handlers.ProgressionHandler{
			Engine:     engine,
			Rewards:    services.NewRewardService(gw, logger),
			Reconciler: reconciler,
			Exporter:   exporter,
			Log:        logger,
		},
	})

	worker := workers.NewReconcileWorker(reconciler, cfg.ReconcileInterval, logger)
	if err := worker.Start(ctx); err != nil {
		logger.Fatalf("failed to start reconcile worker: %v", err)
	}
	defer worker.Stop()

	go func() {
		if err := app.Listen(cfg.Addr()); err != nil {
			logger.Errorf("Server error: %v", err)
			stop()
		}
	}()

	logger.Infof("✅ Server running on http://localhost%s (%s storage)", cfg.Addr(), cfg.StorageBackend)
	logger.Infof("✅ Ledger reconcile every %s", cfg.ReconcileInterval)
	logger.Infof("✅ CORS configured for origins: %v", cfg.AllowedOrigins)

	<-ctx.Done()
	logger.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}

func openGateway(cfg *config.Config, logger *zap.SugaredLogger) (store.Gateway, error) {
	if cfg.StorageBackend == config.BackendMemory {
		logger.Warn("⚠️  Using in-memory storage, data is lost on restart")
		return store.NewMemoryGateway(), nil
	}

	level := gormlogger.Warn
	if cfg.Env == "development" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}
	gw := store.NewGormGateway(db)
	if err := gw.Migrate(); err != nil {
		return nil, err
	}
	logger.Info("✅ Database migrated")
	return gw, nil
}
