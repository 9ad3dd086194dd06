package handler

import (
	"property_portal_backend/internal/events"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler exposes the resolved schema capabilities.
type Handler struct {
	registry  *schema.Registry
	relations []string
	eventBus  events.Bus
}

// New creates a handler. relations are re-probed on refresh.
func New(registry *schema.Registry, relations []string, eventBus events.Bus) *Handler {
	return &Handler{registry: registry, relations: relations, eventBus: eventBus}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Get)
	rg.POST("/refresh", h.Refresh)
}

type capabilitiesResponse struct {
	Mode string `json:"mode"`
	schema.Capabilities
}

// Get handles GET /api/v1/schema/capabilities
func (h *Handler) Get(c *gin.Context) {
	httpkit.OK(c, capabilitiesResponse{Mode: h.registry.Mode(), Capabilities: h.registry.Snapshot()})
}

// Refresh handles POST /api/v1/schema/capabilities/refresh
func (h *Handler) Refresh(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	h.registry.Invalidate()
	caps := h.registry.Resolve(c.Request.Context(), h.relations...)

	events.Report(c.Request.Context(), h.eventBus, events.Mutation{
		UserID: identity.UserID(),
		Entity: "schema capabilities",
		Action: "refreshed",
	}, nil)
	httpkit.OK(c, capabilitiesResponse{Mode: h.registry.Mode(), Capabilities: caps})
}
