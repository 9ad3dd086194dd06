// Package maintenance provides the maintenance request lifecycle module.
package maintenance

import (
	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/events"
	apphttp "property_portal_backend/internal/http"
	"property_portal_backend/internal/maintenance/domain"
	"property_portal_backend/internal/maintenance/handler"
	"property_portal_backend/internal/maintenance/repository"
	"property_portal_backend/internal/maintenance/service"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/validator"
)

// Relations lists the tables whose column sets the module writes against.
var Relations = repository.Relations

// Module represents the maintenance domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
	// Repository is exposed for the history retry worker.
	Repository *repository.Repository
}

// NewModule creates a new maintenance module with all dependencies wired.
// retrier may be nil when no job queue is configured.
func NewModule(client datastore.Client, writer *schema.Writer, retrier service.HistoryRetrier, eventBus events.Bus, val *validator.Validator, log *logger.Logger, cfg config.MaintenanceConfig) *Module {
	repo := repository.New(client, writer, log).WithPhoneRegion(cfg.GetPhoneDefaultRegion())
	policy := domain.PolicyFor(cfg.GetMaintenanceTransitionPolicy())
	svc := service.New(repo, policy, retrier, eventBus, log)
	h := handler.New(svc, val, eventBus)

	return &Module{
		handler:    h,
		Service:    svc,
		Repository: repo,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "maintenance"
}

// RegisterRoutes registers the module's routes under /api/v1/maintenance-requests
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	requests := ctx.Protected.Group("/maintenance-requests")
	m.handler.RegisterRoutes(requests)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
