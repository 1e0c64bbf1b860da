package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	commissionrepo "offermarket_backend/internal/commission/repository"
	commissionsvc "offermarket_backend/internal/commission/service"
	"offermarket_backend/internal/delivery"
	"offermarket_backend/internal/dispatch"
	"offermarket_backend/internal/events"
	"offermarket_backend/internal/notification"
	"offermarket_backend/internal/notification/outbox"
	partnerrepo "offermarket_backend/internal/partners/repository"
	partnersvc "offermarket_backend/internal/partners/service"
	quoterepo "offermarket_backend/internal/quotes/repository"
	quotesvc "offermarket_backend/internal/quotes/service"
	"offermarket_backend/internal/scheduler"
	"offermarket_backend/platform/config"
	"offermarket_backend/platform/db"
	"offermarket_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	provider, err := delivery.NewProvider(cfg)
	if err != nil {
		log.Error("failed to initialize delivery provider", "error", err)
		panic("failed to initialize delivery provider: " + err.Error())
	}
	engine := dispatch.New(provider, cfg, log)

	// Worker-side domain wiring (no HTTP handlers required).
	commissionService := commissionsvc.New(commissionrepo.New(pool))
	partnersService := partnersvc.New(partnerrepo.New(pool), commissionService, eventBus)
	quotesService := quotesvc.New(quoterepo.New(pool), partnersService, eventBus, log)

	notification.NewModule(engine, outbox.New(pool), partnersService, cfg, eventBus, log)

	dispatcher, err := scheduler.NewOutboxDispatcher(cfg, pool, log)
	if err != nil {
		log.Error("failed to initialize outbox dispatcher", "error", err)
		panic("failed to initialize outbox dispatcher: " + err.Error())
	}
	defer func() { _ = dispatcher.Close() }()

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	sweeper := scheduler.NewExpirySweeper(client, getDurationEnv("OFFER_EXPIRY_SWEEP_INTERVAL", time.Hour), log)

	worker, err := scheduler.NewWorker(cfg, eventBus, quotesService, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
	log.Info("scheduler shut down")
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
