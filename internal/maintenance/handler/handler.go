package handler

import (
	"net/http"

	"property_portal_backend/internal/events"
	"property_portal_backend/internal/maintenance/domain"
	"property_portal_backend/internal/maintenance/repository"
	"property_portal_backend/internal/maintenance/service"
	"property_portal_backend/internal/maintenance/transport"
	"property_portal_backend/platform/apperr"
	"property_portal_backend/platform/httpkit"
	"property_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
	entityRequest       = "maintenance request"
)

// Handler handles HTTP requests for maintenance requests
type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	eventBus events.Bus
}

// New creates a new maintenance handler
func New(svc *service.Service, val *validator.Validator, eventBus events.Bus) *Handler {
	return &Handler{svc: svc, val: val, eventBus: eventBus}
}

// RegisterRoutes registers the maintenance routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/transitions", h.Transition)
	rg.GET("/:id/history", h.History)
	rg.GET("/:id/cost", h.Cost)
}

// List handles GET /api/v1/maintenance-requests
func (h *Handler) List(c *gin.Context) {
	var params transport.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(params); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var filter repository.ListFilter
	if params.Status != "" {
		status := domain.Status(params.Status)
		filter.Status = &status
	}
	if params.PropertyID != "" {
		propertyID := uuid.MustParse(params.PropertyID)
		filter.PropertyID = &propertyID
	}

	result, err := h.svc.List(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// GetByID handles GET /api/v1/maintenance-requests/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create handles POST /api/v1/maintenance-requests
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), identity.UserID(), req)
	entityID := ""
	if result != nil {
		entityID = result.ID.String()
	}
	h.report(c, identity, entityID, "created", err)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Update handles PATCH /api/v1/maintenance-requests/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Update(c.Request.Context(), id, req)
	h.report(c, identity, id.String(), "updated", err)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Transition handles POST /api/v1/maintenance-requests/:id/transitions
func (h *Handler) Transition(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Transition(c.Request.Context(), id, status, domain.UserActor(identity.UserID()), req.Note)
	h.report(c, identity, id.String(), "moved to "+string(status), err)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// History handles GET /api/v1/maintenance-requests/:id/history
func (h *Handler) History(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.History(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// Cost handles GET /api/v1/maintenance-requests/:id/cost
func (h *Handler) Cost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.Cost(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete handles DELETE /api/v1/maintenance-requests/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	err := h.svc.Delete(c.Request.Context(), id)
	h.report(c, identity, id.String(), "deleted", err)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) report(c *gin.Context, identity httpkit.Identity, entityID, action string, err error) {
	events.Report(c.Request.Context(), h.eventBus, events.Mutation{
		UserID:   identity.UserID(),
		Entity:   entityRequest,
		EntityID: entityID,
		Action:   action,
	}, err)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidID))
		return uuid.UUID{}, false
	}
	return id, true
}
