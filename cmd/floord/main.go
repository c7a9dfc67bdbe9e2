package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"pos-floor-backend/config"
	"pos-floor-backend/internal/api"
	"pos-floor-backend/internal/cache"
	"pos-floor-backend/internal/db"
	"pos-floor-backend/internal/diagnose"
	"pos-floor-backend/internal/journal"
	"pos-floor-backend/internal/lifecycle"
	"pos-floor-backend/internal/notification"
	"pos-floor-backend/internal/reconcile"
	"pos-floor-backend/internal/registry"
	"pos-floor-backend/internal/remote"
)

func main() {
	logger := log.New(os.Stdout, "floor-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("journal database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Local fallback caches
	timerCache := cache.NewTimerCache(cfg.Cache.TimerPath)
	thresholdCache := cache.NewThresholdCache(cfg.Cache.ThresholdPath)

	// Remote session store client
	client := remote.NewHTTPClient(&cfg.SessionStore)

	// Table registry, seeded when the remote store is empty
	reg := registry.New()
	reg.LoadInitial(ctx, client, &cfg.Seed)
	logger.Printf("table registry populated with %d tables", len(reg.GetAll()))

	// Threshold alert pushes
	var notifier reconcile.Notifier
	webpushOptions := &webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		workerPool.Start(ctx)
		notifier = workerPool
	} else {
		logger.Println("VAPID keys not configured; threshold alert pushes disabled")
	}

	// Reconciliation engine and its scheduler
	reconciler := reconcile.New(reg, client, timerCache, thresholdCache, notifier)
	scheduler := reconcile.NewScheduler(cfg.Reconciler.Interval, reconciler.Refresh)
	if cfg.Reconciler.Enabled {
		scheduler.Start(ctx)
	} else {
		logger.Println("reconciler is disabled; refresh only on explicit request")
		reconciler.Refresh(ctx)
	}

	// Lifecycle controller and diagnostics
	rec := journal.NewGormJournal(gormDB)
	controller := lifecycle.New(reg, client, timerCache, rec, reconciler)
	reporter := diagnose.New(reg, client)

	handler := api.NewHandler(api.Deps{
		Registry:   reg,
		Controller: controller,
		Reporter:   reporter,
		Reconciler: reconciler,
		Scheduler:  scheduler,
		Thresholds: thresholdCache,
		Journal:    rec,
		DB:         gormDB,
		WebPush:    webpushOptions,
		AppCtx:     ctx,
	})
	router := api.NewRouter(&cfg.Server, handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
