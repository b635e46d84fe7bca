package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/auth"
	"expensetracker/internal/cache"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/core"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	listCacheSize   = 1000
	listCacheTTL    = 5 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger(nil))
	logger := cli.SetupLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.GracefulShutdown()
	defer stop()

	sessions := auth.NewMemorySessionStore(cfg.SessionMaxEntries)
	listCache := cache.NewLRUCache[[]core.Expense](listCacheSize, listCacheTTL)
	caches := cache.NewManager(logger)
	caches.Register("sessions", sessions)
	caches.Register("expense_lists", listCache)

	// Interfaces stay nil, not typed-nil, when the broker is off.
	var (
		publisher services.EventPublisher
		broker    apphttp.BrokerHealth
	)
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, expense events disabled", log.FieldError, err)
		} else {
			defer client.Close()
			publisher, broker = client, client
			logger.Info("Publishing expense events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	accounts := services.NewAccountService(repo, sessions, auth.NewHasher(cfg.BcryptCost), cfg.SessionTTL, logger)
	expenses := services.NewExpenseService(repo, publisher, listCache, logger)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Deps{
		Accounts: accounts,
		Expenses: expenses,
		Sessions: sessions,
		DB:       repo,
		Broker:   broker,
		Logger:   logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expense tracker server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", "timeout", shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return caches.Run(gctx, cfg.SessionCleanupInterval)
	})
	g.Go(func() error {
		return srv.RunRateLimiterCleanup(gctx)
	})
	return g.Wait()
}
