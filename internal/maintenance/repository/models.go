package repository

import (
	"time"

	"property_portal_backend/internal/maintenance/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Relations read or written by this repository.
const (
	TableRequests    = "maintenance_requests"
	TableHistory     = "maintenance_status_history"
	TableProperties  = "properties"
	TableUnits       = "units"
	TableTenants     = "tenants"
	TableTeamMembers = "team_members"
	TableContacts    = "contacts"
)

// Relations are the tables whose column sets the writer depends on.
var Relations = []string{TableRequests, TableHistory}

// PropertyRef is the property a request concerns.
type PropertyRef struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address *string   `json:"address,omitempty"`
}

// UnitRef is the unit a request concerns.
type UnitRef struct {
	ID         uuid.UUID `json:"id"`
	UnitNumber string    `json:"unitNumber"`
}

// RequesterView is the tenant who reported the issue.
type RequesterView struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
}

// AssigneeView is the team member or contact working the request.
type AssigneeView struct {
	ID      uuid.UUID           `json:"id"`
	Kind    domain.AssigneeKind `json:"kind"`
	Name    string              `json:"name"`
	Email   *string             `json:"email,omitempty"`
	Phone   *string             `json:"phone,omitempty"`
	Role    *string             `json:"role,omitempty"`
	Company *string             `json:"company,omitempty"`
}

// RequestView is a maintenance request with its relations. Relations that
// could not be loaded are nil or empty.
type RequestView struct {
	ID             uuid.UUID                   `json:"id"`
	Title          string                      `json:"title"`
	Description    *string                     `json:"description,omitempty"`
	Status         domain.Status               `json:"status"`
	Priority       string                      `json:"priority"`
	Type           *string                     `json:"type,omitempty"`
	PropertyID     *uuid.UUID                  `json:"propertyId,omitempty"`
	UnitID         *uuid.UUID                  `json:"unitId,omitempty"`
	RequestedByID  *uuid.UUID                  `json:"requestedById,omitempty"`
	AssignedToID   *uuid.UUID                  `json:"assignedToId,omitempty"`
	AssignedToType *domain.AssigneeKind        `json:"assignedToType,omitempty"`
	EstimatedCost  decimal.Decimal             `json:"estimatedCost"`
	ActualCost     decimal.Decimal             `json:"actualCost"`
	DueDate        string                      `json:"dueDate,omitempty"`
	ResolvedAt     *time.Time                  `json:"resolvedAt,omitempty"`
	Materials      any                         `json:"materials"`
	Equipment      any                         `json:"equipment"`
	Tags           []string                    `json:"tags"`
	CreatedAt      *time.Time                  `json:"createdAt,omitempty"`
	Property       *PropertyRef                `json:"property"`
	Unit           *UnitRef                    `json:"unit"`
	Requester      *RequesterView              `json:"requester"`
	Assignee       *AssigneeView               `json:"assignee"`
	History        []domain.StatusHistoryEntry `json:"history"`
}

// RequestFields carries the request columns a caller wants written. Nil
// fields are left untouched.
type RequestFields struct {
	Title          *string
	Description    *string
	Priority       *string
	Type           *string
	PropertyID     *uuid.UUID
	UnitID         *uuid.UUID
	RequestedByID  *uuid.UUID
	AssignedToID   *uuid.UUID
	AssignedToType *domain.AssigneeKind
	EstimatedCost  *decimal.Decimal
	ActualCost     *decimal.Decimal
	DueDate        *string
	Materials      []map[string]any
	Equipment      []map[string]any
	Tags           []string
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Status     *domain.Status
	PropertyID *uuid.UUID
}

// Transition is one status change to persist.
type Transition struct {
	RequestID uuid.UUID
	From      domain.Status
	To        domain.Status
	Actor     domain.Actor
	Note      *string
	At        time.Time
	// Record is false when the status is rewritten unchanged.
	Record bool
}
