// Package events re-exports the platform event bus for convenience.
// This allows internal modules to import events from internal/events
// while the implementation lives in platform/events.
package events

import (
	"context"

	platformevents "property_portal_backend/platform/events"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// Mutation identifies the entity a handler just mutated.
type Mutation struct {
	UserID   uuid.UUID
	Entity   string
	EntityID string
	Action   string
}

// Report publishes the outcome of a mutation. The message is the error text
// on failure and "<entity> <action>" on success. A nil bus is ignored.
func Report(ctx context.Context, bus Bus, m Mutation, err error) {
	if bus == nil {
		return
	}

	event := MutationReported{
		BaseEvent: NewBaseEvent(),
		UserID:    m.UserID,
		Kind:      OutcomeSuccess,
		Entity:    m.Entity,
		EntityID:  m.EntityID,
		Action:    m.Action,
		Message:   m.Entity + " " + m.Action,
	}
	if err != nil {
		event.Kind = OutcomeError
		event.Message = err.Error()
	}
	bus.Publish(ctx, event)
}
