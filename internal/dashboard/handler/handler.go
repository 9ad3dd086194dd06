package handler

import (
	"property_portal_backend/internal/dashboard/service"
	"property_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves the dashboard snapshot.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Get)
}

// Get handles GET /api/v1/dashboard
func (h *Handler) Get(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	httpkit.OK(c, h.svc.LoadDashboard(c.Request.Context(), identity.UserID()))
}
