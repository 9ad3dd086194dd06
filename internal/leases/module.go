// Package leases provides the leases domain module.
package leases

import (
	"property_portal_backend/internal/adapters/storage"
	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/events"
	apphttp "property_portal_backend/internal/http"
	"property_portal_backend/internal/leases/handler"
	"property_portal_backend/internal/leases/repository"
	"property_portal_backend/internal/leases/service"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/validator"
)

// Relations lists the tables whose column sets the module writes against.
var Relations = repository.Relations

// Module represents the leases domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
	// Reader is exposed for the dashboard aggregator.
	Reader repository.LeaseReader
}

// NewModule creates a new leases module with all dependencies wired.
// blobs may be nil when file storage is disabled.
func NewModule(client datastore.Client, writer *schema.Writer, blobs storage.BlobStore, eventBus events.Bus, val *validator.Validator, log *logger.Logger, cfg config.LeasesConfig) *Module {
	repo := repository.New(client, writer, log).WithPhoneRegion(cfg.GetPhoneDefaultRegion())
	svc := service.New(repo, blobs, eventBus, log, cfg.GetMinIOMaxFileSize())
	h := handler.New(svc, val, eventBus)

	return &Module{
		handler: h,
		Service: svc,
		Reader:  repo,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "leases"
}

// RegisterRoutes registers the module's routes under /api/v1/leases
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leases := ctx.Protected.Group("/leases")
	m.handler.RegisterRoutes(leases)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
