package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	glog "github.com/goliatone/go-logger/glog"
	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-payment-ingest/core"
	"github.com/goliatone/go-payment-ingest/handlers"
	"github.com/goliatone/go-payment-ingest/ingest"
	"github.com/goliatone/go-payment-ingest/journal"
	"github.com/goliatone/go-payment-ingest/ledger"
	"github.com/goliatone/go-payment-ingest/orders"
	"github.com/goliatone/go-payment-ingest/server"
	"github.com/goliatone/go-payment-ingest/verify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, logger := glog.Resolve("payment-ingest", nil, newSlogLogger("payment-ingest"))
	logger = glog.Ensure(logger)

	cfg, err := loadConfig(ctx)
	if err != nil {
		logger.Fatal("configuration failed", "error", err.Error())
	}

	deliveryJournal, closeJournal, err := buildJournal(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("journal setup failed", "error", err.Error())
	}
	if closeJournal != nil {
		defer func() {
			if err := closeJournal(); err != nil {
				logger.Warn("journal close failed", "error", err.Error())
			}
		}()
	}

	store, err := buildLedger(cfg, logger, deliveryJournal)
	if err != nil {
		logger.Fatal("ledger setup failed", "error", err.Error())
	}

	verifier := verify.New(cfg.Webhook)
	verifier.Logger = logger

	router := ingest.NewRouter()
	if err := router.RegisterAll(handlers.Default(store, logger)...); err != nil {
		logger.Fatal("handler registration failed", "error", err.Error())
	}

	ingestService := ingest.NewService(verifier, router)
	ingestService.Journal = deliveryJournal
	ingestService.Logger = logger
	ingestService.Provider = cfg.Webhook.Provider

	orderService := orders.NewService(store, orders.NewSimulatedIntentClient())
	orderService.Logger = logger
	orderService.PublishableKey = cfg.ProviderAPI.PublishableKey

	srv := server.New(store, ingestService, orderService)
	srv.Logger = logger
	srv.ServiceName = cfg.ServiceName
	srv.Addr = cfg.HTTP.Addr

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server exited", "error", err.Error())
	}
}

func loadConfig(ctx context.Context) (core.Config, error) {
	defaults := core.DefaultConfig()

	provider := core.NewCfgxConfigProvider(core.JSONFileRawConfigLoader{
		Path: envOr("CONFIG_PATH", "config.json"),
	})
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return core.Config{}, err
	}

	return core.GoOptionsResolver{}.Resolve(defaults, loaded, runtimeOverrides())
}

// runtimeOverrides maps process environment onto the highest-priority config
// layer. Empty variables leave the lower layers untouched.
func runtimeOverrides() core.Config {
	return core.Config{
		ServiceName: os.Getenv("SERVICE_NAME"),
		HTTP: core.HTTPConfig{
			Addr: os.Getenv("HTTP_ADDR"),
		},
		Webhook: core.WebhookConfig{
			Provider: os.Getenv("WEBHOOK_PROVIDER"),
			Secret:   os.Getenv("WEBHOOK_SECRET"),
		},
		Journal: core.JournalConfig{
			Driver: os.Getenv("JOURNAL_DRIVER"),
			DSN:    os.Getenv("JOURNAL_DSN"),
		},
		ProviderAPI: core.ProviderAPIConfig{
			PublishableKey: os.Getenv("PUBLISHABLE_KEY"),
		},
	}
}

func buildLedger(cfg core.Config, logger core.Logger, deliveryJournal core.DeliveryJournal) (core.Ledger, error) {
	base := ledger.NewMemoryLedger(cfg.Ledger.SeedSampleData)
	base.Logger = logger
	base.Journal = deliveryJournal

	cacheConfig := repositorycache.DefaultConfig()
	cacheService, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		return nil, err
	}
	return ledger.NewCachedLedger(base, cacheService)
}

func buildJournal(ctx context.Context, cfg core.Config, logger core.Logger) (core.DeliveryJournal, func() error, error) {
	if !cfg.Journal.Enabled() {
		logger.Info("delivery journal running in memory")
		return journal.NewMemoryJournal(), nil, nil
	}

	bunJournal, closeFn, err := journal.Open(cfg.Journal)
	if err != nil {
		return nil, nil, err
	}
	if err := bunJournal.EnsureSchema(ctx); err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	logger.Info("delivery journal ready", "driver", cfg.Journal.Driver)
	return bunJournal, closeFn, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
