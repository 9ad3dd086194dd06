package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/maintenance"
	"property_portal_backend/internal/maintenance/repository"
	"property_portal_backend/internal/scheduler"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/db"
	"property_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	if cfg.DatastoreDriver != config.DatastorePostgres {
		panic("scheduler requires DATASTORE_DRIVER=postgres")
	}

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

	client := datastore.NewPGClient(pool)
	registry := schema.NewRegistry(schema.NewProbe(client, log), cfg.GetSchemaProbeMode(), log)
	if path := cfg.GetSchemaCapabilitiesFile(); path != "" {
		desc, err := schema.LoadDescriptor(path)
		if err != nil {
			log.Error("failed to load schema capabilities descriptor", "error", err, "path", path)
			panic("failed to load schema capabilities descriptor: " + err.Error())
		}
		registry.Pin(desc)
	}
	registry.Resolve(ctx, maintenance.Relations...)

	// The worker only re-appends history entries, so it needs the
	// repository without the HTTP module around it.
	history := repository.New(client, schema.NewWriter(client, registry, log), log)

	worker, err := scheduler.NewWorker(cfg, history, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
