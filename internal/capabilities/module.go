// Package capabilities exposes the schema registry to administrators.
package capabilities

import (
	"property_portal_backend/internal/capabilities/handler"
	"property_portal_backend/internal/events"
	apphttp "property_portal_backend/internal/http"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/httpkit"
)

// RoleAdmin is required for every capabilities route.
const RoleAdmin = "admin"

// Module represents the schema capabilities module
type Module struct {
	handler *handler.Handler
}

// NewModule creates the module over registry. relations lists every relation
// the application writes to.
func NewModule(registry *schema.Registry, relations []string, eventBus events.Bus) *Module {
	return &Module{handler: handler.New(registry, relations, eventBus)}
}

func (m *Module) Name() string {
	return "capabilities"
}

// RegisterRoutes registers the routes under /api/v1/schema/capabilities
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/schema/capabilities", httpkit.RequireRole(RoleAdmin))
	m.handler.RegisterRoutes(group)
}

var _ apphttp.Module = (*Module)(nil)
