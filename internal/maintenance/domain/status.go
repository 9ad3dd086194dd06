// Package domain provides core business rules for maintenance requests.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is a maintenance request's lifecycle state.
type Status string

const (
	StatusOpen       Status = "open"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusCancelled  Status = "cancelled"
	StatusRejected   Status = "rejected"
)

// InitialStatus is the status every request is created with.
const InitialStatus = StatusOpen

var knownStatuses = map[Status]struct{}{
	StatusOpen:       {},
	StatusAssigned:   {},
	StatusInProgress: {},
	StatusResolved:   {},
	StatusCancelled:  {},
	StatusRejected:   {},
}

// ParseStatus validates a status name.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := knownStatuses[status]; !ok {
		return "", fmt.Errorf("unknown maintenance status %q", value)
	}
	return status, nil
}

// ActorKind tells who changed a request.
type ActorKind string

const (
	ActorUser   ActorKind = "user"
	ActorSystem ActorKind = "system"
)

// Actor is the identity recorded as changed_by on history entries.
type Actor struct {
	ID   uuid.UUID
	Kind ActorKind
}

// UserActor is an authenticated user.
func UserActor(id uuid.UUID) Actor {
	return Actor{ID: id, Kind: ActorUser}
}

// AssigneeKind discriminates the assignee relation.
type AssigneeKind string

const (
	AssigneeTeamMember AssigneeKind = "team_member"
	AssigneeContact    AssigneeKind = "contact"
)

// StatusHistoryEntry is one append-only audit row. From is nil for the
// creation entry.
type StatusHistoryEntry struct {
	ID            uuid.UUID  `json:"id"`
	RequestID     uuid.UUID  `json:"requestId"`
	FromStatus    *Status    `json:"fromStatus"`
	ToStatus      Status     `json:"toStatus"`
	ChangedByID   *uuid.UUID `json:"changedById,omitempty"`
	ChangedByKind ActorKind  `json:"changedByType"`
	Notes         *string    `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// NewHistoryEntry builds the audit row for a change from -> to. The id is
// assigned up front so a retried append stays idempotent.
func NewHistoryEntry(requestID uuid.UUID, from *Status, to Status, actor Actor, note *string, at time.Time) StatusHistoryEntry {
	entry := StatusHistoryEntry{
		ID:            uuid.New(),
		RequestID:     requestID,
		FromStatus:    from,
		ToStatus:      to,
		ChangedByKind: actor.Kind,
		Notes:         note,
		CreatedAt:     at,
	}
	if actor.ID != uuid.Nil {
		id := actor.ID
		entry.ChangedByID = &id
	}
	if entry.ChangedByKind == "" {
		entry.ChangedByKind = ActorUser
	}
	return entry
}
