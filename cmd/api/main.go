package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"property_portal_backend/internal/adapters/storage"
	"property_portal_backend/internal/capabilities"
	"property_portal_backend/internal/dashboard"
	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/datastore/memory"
	"property_portal_backend/internal/events"
	apphttp "property_portal_backend/internal/http"
	"property_portal_backend/internal/http/router"
	"property_portal_backend/internal/leases"
	"property_portal_backend/internal/maintenance"
	maintenanceservice "property_portal_backend/internal/maintenance/service"
	"property_portal_backend/internal/notification"
	"property_portal_backend/internal/scheduler"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/db"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "datastore", cfg.DatastoreDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	client, health, closeStore := initDatastore(ctx, cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	registry := schema.NewRegistry(schema.NewProbe(client, log), cfg.GetSchemaProbeMode(), log)
	if path := cfg.GetSchemaCapabilitiesFile(); path != "" {
		desc, err := schema.LoadDescriptor(path)
		if err != nil {
			log.Error("failed to load schema capabilities descriptor", "error", err, "path", path)
			panic("failed to load schema capabilities descriptor: " + err.Error())
		}
		registry.Pin(desc)
		log.Info("schema capabilities pinned", "version", desc.Version)
	}

	relations := writtenRelations()
	caps := registry.Resolve(ctx, relations...)
	if len(caps.Unknown) > 0 {
		log.Warn("schema capabilities unresolved; writes will be optimistic", "relations", caps.Unknown)
	}
	writer := schema.NewWriter(client, registry, log)

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	retrier, closeScheduler := initHistoryRetrier(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	blobs := initBlobStore(ctx, cfg, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules
	// ========================================================================

	notificationModule := notification.New(client, writer, log)
	notificationModule.RegisterHandlers(eventBus)

	leasesModule := leases.NewModule(client, writer, blobs, eventBus, val, log, cfg)
	maintenanceModule := maintenance.NewModule(client, writer, retrier, eventBus, val, log, cfg)
	dashboardModule := dashboard.NewModule(client, leasesModule.Reader, log, cfg)
	capabilitiesModule := capabilities.NewModule(registry, relations, eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leasesModule,
			maintenanceModule,
			dashboardModule,
			notificationModule,
			capabilitiesModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// writtenRelations lists every relation a module writes through the
// adaptive writer.
func writtenRelations() []string {
	var out []string
	out = append(out, leases.Relations...)
	out = append(out, maintenance.Relations...)
	out = append(out, notification.Relations...)
	return out
}

// initDatastore returns the relational client. The memory driver is for local
// development and carries no health check.
func initDatastore(ctx context.Context, cfg *config.Config, log *logger.Logger) (datastore.Client, apphttp.HealthChecker, func()) {
	if cfg.DatastoreDriver == config.DatastoreMemory {
		log.Warn("using in-memory datastore; data is lost on restart")
		return memory.New(), nil, nil
	}

	if cfg.RunMigrations {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

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
	log.Info("database connection established")
	return datastore.NewPGClient(pool), db.NewPoolAdapter(pool), pool.Close
}

// initHistoryRetrier returns the queue used to re-append history entries
// after an audit gap. Without Redis the gap is only logged.
func initHistoryRetrier(cfg config.SchedulerConfig, log *logger.Logger) (maintenanceservice.HistoryRetrier, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; maintenance history retries disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

// initBlobStore returns the lease attachment store, or nil when MinIO is not
// configured.
func initBlobStore(ctx context.Context, cfg storage.Config, log *logger.Logger) storage.BlobStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; lease attachments disabled")
		return nil
	}

	store, err := storage.NewMinIOStore(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure lease-attachments bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketLeaseAttachments())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	return store
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

	return fmt.Errorf("%s: %w", name, lastErr)
}
