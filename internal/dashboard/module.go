// Package dashboard provides the aggregated overview module.
package dashboard

import (
	"property_portal_backend/internal/dashboard/handler"
	"property_portal_backend/internal/dashboard/repository"
	"property_portal_backend/internal/dashboard/service"
	"property_portal_backend/internal/datastore"
	apphttp "property_portal_backend/internal/http"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"
)

// Module represents the dashboard module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule wires the dashboard over the lease aggregator and the datastore.
func NewModule(client datastore.Client, leases service.LeaseLister, log *logger.Logger, cfg config.DashboardConfig) *Module {
	svc := service.New(leases, repository.New(client), log, cfg.GetDashboardExpiryWindowDays())
	return &Module{handler: handler.New(svc), Service: svc}
}

func (m *Module) Name() string {
	return "dashboard"
}

// RegisterRoutes registers GET /api/v1/dashboard
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/dashboard"))
}

var _ apphttp.Module = (*Module)(nil)
