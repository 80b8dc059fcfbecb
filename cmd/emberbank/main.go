package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emberbank/emberbank/internal/accounts"
	"github.com/emberbank/emberbank/internal/app"
	"github.com/emberbank/emberbank/internal/ledger"
	"github.com/emberbank/emberbank/internal/ledger/export"
	"github.com/emberbank/emberbank/internal/observability"
	"github.com/emberbank/emberbank/internal/platform/cache"
	"github.com/emberbank/emberbank/internal/platform/db"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// The cache is an accelerator, never a source of truth; a missing
	// Redis tier degrades to direct store access.
	store := cache.NewStore(nil)
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, running without cache", slog.Any("error", err))
	} else {
		store = cache.NewStore(redisClient)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	transferMax, err := cfg.TransferCeiling()
	if err != nil {
		logger.Error("parse transfer ceiling", slog.Any("error", err))
		os.Exit(1)
	}

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo, store, logger, cfg.AccountCacheTTL)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, store, logger, metrics, ledger.ServiceConfig{
		TransferMax: transferMax,
		HistoryTTL:  cfg.HistoryCacheTTL,
	})
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	exportService := export.NewService(ledgerService, store, logger, cfg.ExportCacheTTL)
	exportHandler := export.NewHandler(logger, exportService)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AccountsHandler: accountsHandler,
		LedgerHandler:   ledgerHandler,
		ExportHandler:   exportHandler,
		Metrics:         metrics,
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
