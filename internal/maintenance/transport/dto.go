package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateRequest is the request body for reporting a maintenance issue.
type CreateRequest struct {
	Title          string           `json:"title" validate:"required,min=1,max=200"`
	Description    *string          `json:"description,omitempty" validate:"omitempty,max=4000"`
	Priority       *string          `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Type           *string          `json:"type,omitempty" validate:"omitempty,max=100"`
	PropertyID     *uuid.UUID       `json:"propertyId,omitempty"`
	UnitID         *uuid.UUID       `json:"unitId,omitempty"`
	RequestedByID  *uuid.UUID       `json:"requestedById,omitempty"`
	AssignedToID   *uuid.UUID       `json:"assignedToId,omitempty"`
	AssignedToType *string          `json:"assignedToType,omitempty" validate:"omitempty,oneof=team_member contact"`
	EstimatedCost  *decimal.Decimal `json:"estimatedCost,omitempty"`
	DueDate        *string          `json:"dueDate,omitempty" validate:"omitempty,isodate"`
	Materials      []map[string]any `json:"materials,omitempty"`
	Equipment      []map[string]any `json:"equipment,omitempty"`
	Tags           []string         `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=50"`
}

// UpdateRequest is the request body for editing a request. Omitted fields
// are left unchanged; status changes go through TransitionRequest.
type UpdateRequest struct {
	Title          *string          `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description    *string          `json:"description,omitempty" validate:"omitempty,max=4000"`
	Priority       *string          `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Type           *string          `json:"type,omitempty" validate:"omitempty,max=100"`
	PropertyID     *uuid.UUID       `json:"propertyId,omitempty"`
	UnitID         *uuid.UUID       `json:"unitId,omitempty"`
	AssignedToID   *uuid.UUID       `json:"assignedToId,omitempty"`
	AssignedToType *string          `json:"assignedToType,omitempty" validate:"omitempty,oneof=team_member contact"`
	EstimatedCost  *decimal.Decimal `json:"estimatedCost,omitempty"`
	ActualCost     *decimal.Decimal `json:"actualCost,omitempty"`
	DueDate        *string          `json:"dueDate,omitempty" validate:"omitempty,isodate"`
	Materials      []map[string]any `json:"materials,omitempty"`
	Equipment      []map[string]any `json:"equipment,omitempty"`
	Tags           []string         `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=50"`
}

// TransitionRequest moves a request to a new status.
type TransitionRequest struct {
	Status string  `json:"status" validate:"required,oneof=open assigned in_progress resolved cancelled rejected"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=2000"`
}

// ListParams are the query parameters of the list endpoint.
type ListParams struct {
	Status     string `form:"status" validate:"omitempty,oneof=open assigned in_progress resolved cancelled rejected"`
	PropertyID string `form:"propertyId" validate:"omitempty,uuid"`
}
