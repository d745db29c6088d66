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

	"fellowship-backend/config"
	"fellowship-backend/internal/api"
	"fellowship-backend/internal/db"
	"fellowship-backend/internal/notify"
	"fellowship-backend/internal/push"
	"fellowship-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "fellowship-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)

	if cfg.Database.MigrateLegacyTokens {
		n, err := appStore.MigrateLegacyTokens(ctx)
		if err != nil {
			logger.Fatalf("legacy token migration failed: %v", err)
		}
		if n > 0 {
			logger.Printf("migrated %d legacy profile tokens", n)
		}
	}

	sender, err := newSender(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to initialize push sender: %v", err)
	}

	dispatcher := notify.NewDispatcher(appStore, sender, cfg.Push.SendTimeout)
	monitor := notify.NewMonitor(appStore)

	pool := notify.NewWorkerPool(cfg.WorkerPool.Size, dispatcher, monitor)
	pool.Start(ctx)

	sweeper := notify.NewSweeper(&cfg.Retention, appStore, monitor)
	go sweeper.Run(ctx)

	router := api.NewRouter(cfg, appStore, sender, pool)
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}

// newSender builds the configured delivery bridge. The returned value is the
// single provider instance shared by the dispatcher and the worker pool.
func newSender(ctx context.Context, cfg *config.Config, logger *log.Logger) (push.Sender, error) {
	switch cfg.Push.Provider {
	case "fcm":
		return push.NewFCMSender(ctx, cfg.Push.CredentialsFile)
	case "webpush":
		if cfg.Push.VAPIDPublicKey == "" || cfg.Push.VAPIDPrivateKey == "" {
			return nil, errors.New("webpush provider requires VAPID keys")
		}
		return push.NewWebPushSender(&webpush.Options{
			VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}), nil
	case "dryrun":
		logger.Println("push provider is dryrun; notifications will be logged, not delivered")
		return push.DryRunSender{}, nil
	default:
		return nil, fmt.Errorf("unknown push provider %q", cfg.Push.Provider)
	}
}
