package handler

import (
	"io"
	"net/http"

	"property_portal_backend/internal/events"
	"property_portal_backend/internal/leases/service"
	"property_portal_backend/internal/leases/transport"
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
	entityLease         = "lease"
	entityAttachment    = "lease attachment"
)

// Handler handles HTTP requests for leases
type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	eventBus events.Bus
}

// New creates a new leases handler
func New(svc *service.Service, val *validator.Validator, eventBus events.Bus) *Handler {
	return &Handler{svc: svc, val: val, eventBus: eventBus}
}

// RegisterRoutes registers the lease routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/finalize", h.Finalize)
	rg.POST("/:id/attachments", h.UploadAttachment)
	rg.DELETE("/:id/attachments/:attachmentId", h.RemoveAttachment)
}

// List handles GET /api/v1/leases
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// GetByID handles GET /api/v1/leases/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create handles POST /api/v1/leases
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeaseRequest
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

	result, err := h.svc.Create(c.Request.Context(), req)
	entityID := ""
	if result != nil {
		entityID = result.ID.String()
	}
	h.report(c, identity, entityLease, entityID, "created", err)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Update handles PUT /api/v1/leases/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.UpdateLeaseRequest
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
	h.report(c, identity, entityLease, id.String(), "updated", err)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Finalize handles POST /api/v1/leases/:id/finalize
func (h *Handler) Finalize(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Finalize(c.Request.Context(), identity.UserID(), id)
	h.report(c, identity, entityLease, id.String(), "finalized", err)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete handles DELETE /api/v1/leases/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	err := h.svc.Delete(c.Request.Context(), id)
	h.report(c, identity, entityLease, id.String(), "deleted", err)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadAttachment handles POST /api/v1/leases/:id/attachments (multipart "file")
func (h *Handler) UploadAttachment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	result, err := h.svc.UploadAttachment(c.Request.Context(), id, transport.AttachmentUpload{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	})
	h.report(c, identity, entityAttachment, id.String(), "uploaded", err)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// RemoveAttachment handles DELETE /api/v1/leases/:id/attachments/:attachmentId
func (h *Handler) RemoveAttachment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := parseID(c, "attachmentId")
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	err := h.svc.RemoveAttachment(c.Request.Context(), id, attachmentID)
	h.report(c, identity, entityAttachment, attachmentID.String(), "removed", err)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) report(c *gin.Context, identity httpkit.Identity, entity, entityID, action string, err error) {
	events.Report(c.Request.Context(), h.eventBus, events.Mutation{
		UserID:   identity.UserID(),
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
	}, err)
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidID))
		return uuid.UUID{}, false
	}
	return id, true
}

