// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"property_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// Outcome kinds carried by MutationReported.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// =============================================================================
// Mutation Outcomes
// =============================================================================

// MutationReported is published by handlers after a mutating call finishes.
// Subscribers turn it into user-facing notifications.
type MutationReported struct {
	BaseEvent
	UserID   uuid.UUID `json:"userId"`
	Kind     string    `json:"kind"`
	Entity   string    `json:"entity"`
	EntityID string    `json:"entityId,omitempty"`
	Action   string    `json:"action"`
	Message  string    `json:"message"`
}

func (e MutationReported) EventName() string { return "mutation.reported" }

// =============================================================================
// Lease Domain Events
// =============================================================================

// LeaseFinalized is published when a draft lease becomes a binding lease.
type LeaseFinalized struct {
	BaseEvent
	LeaseID     uuid.UUID `json:"leaseId"`
	TenantCount int       `json:"tenantCount"`
	ActorID     uuid.UUID `json:"actorId"`
}

func (e LeaseFinalized) EventName() string { return "leases.lease.finalized" }

// =============================================================================
// Maintenance Domain Events
// =============================================================================

// MaintenanceRequestCreated is published after a request and its first
// history entry are stored.
type MaintenanceRequestCreated struct {
	BaseEvent
	RequestID uuid.UUID `json:"requestId"`
	Title     string    `json:"title"`
	ActorID   uuid.UUID `json:"actorId"`
}

func (e MaintenanceRequestCreated) EventName() string { return "maintenance.request.created" }

// MaintenanceStatusChanged is published after a genuine status change.
type MaintenanceStatusChanged struct {
	BaseEvent
	RequestID  uuid.UUID  `json:"requestId"`
	FromStatus string     `json:"fromStatus"`
	ToStatus   string     `json:"toStatus"`
	ActorID    uuid.UUID  `json:"actorId"`
	AssigneeID *uuid.UUID `json:"assigneeId,omitempty"`
	AuditGap   bool       `json:"auditGap"`
}

func (e MaintenanceStatusChanged) EventName() string { return "maintenance.status.changed" }
