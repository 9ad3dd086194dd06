// Package notification turns domain events into in-app notifications.
// Mutating handlers only report outcomes on the event bus; this module
// subscribes and decides what the user sees.
package notification

import (
	"context"
	"fmt"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/events"
	apphttp "property_portal_backend/internal/http"
	notifhandler "property_portal_backend/internal/notification/handler"
	"property_portal_backend/internal/notification/inapp"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Relations lists the tables the module writes against.
var Relations = []string{inapp.TableNotifications}

// Notifier delivers a message to a single user.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, message string) error
}

// Module handles all notification-related event subscriptions.
type Module struct {
	log          *logger.Logger
	inAppService *inapp.Service
	inAppHandler *notifhandler.HTTPHandler
}

// New creates a new notification module.
func New(client datastore.Client, writer *schema.Writer, log *logger.Logger) *Module {
	inAppRepo := inapp.NewRepository(client, writer)
	inAppSvc := inapp.NewService(inAppRepo, log)

	return &Module{
		log:          log,
		inAppService: inAppSvc,
		inAppHandler: notifhandler.NewHTTPHandler(inAppSvc),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes registers notification API routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	notifications := ctx.Protected.Group("/notifications")
	m.inAppHandler.RegisterRoutes(notifications)
}

// Notifier exposes the in-app service as the single-user notifier.
func (m *Module) Notifier() Notifier { return m.inAppService }

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.MutationReported{}.EventName(), m)
	bus.Subscribe(events.LeaseFinalized{}.EventName(), m)
	bus.Subscribe(events.MaintenanceRequestCreated{}.EventName(), m)
	bus.Subscribe(events.MaintenanceStatusChanged{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.MutationReported:
		return m.handleMutationReported(ctx, e)
	case events.LeaseFinalized:
		m.log.Info("lease finalized", "leaseId", e.LeaseID, "tenantCount", e.TenantCount, "actorId", e.ActorID)
		return nil
	case events.MaintenanceRequestCreated:
		m.log.Info("maintenance request created", "requestId", e.RequestID, "actorId", e.ActorID)
		return nil
	case events.MaintenanceStatusChanged:
		return m.handleMaintenanceStatusChanged(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleMutationReported(ctx context.Context, e events.MutationReported) error {
	if e.UserID == uuid.Nil {
		return nil
	}

	kind := inapp.KindSuccess
	if e.Kind == events.OutcomeError {
		kind = inapp.KindError
	}

	params := inapp.SendParams{
		UserID:  e.UserID,
		Kind:    kind,
		Message: e.Message,
		Entity:  e.Entity,
	}
	if id, err := uuid.Parse(e.EntityID); err == nil {
		params.EntityID = &id
	}
	return m.inAppService.Send(ctx, params)
}

func (m *Module) handleMaintenanceStatusChanged(ctx context.Context, e events.MaintenanceStatusChanged) error {
	m.log.Info("maintenance status changed",
		"requestId", e.RequestID,
		"from", e.FromStatus,
		"to", e.ToStatus,
		"actorId", e.ActorID,
		"auditGap", e.AuditGap,
	)
	if !e.AuditGap || e.ActorID == uuid.Nil {
		return nil
	}

	requestID := e.RequestID
	return m.inAppService.Send(ctx, inapp.SendParams{
		UserID:   e.ActorID,
		Kind:     inapp.KindWarning,
		Message:  fmt.Sprintf("status changed to %s but the history entry is still being recorded", e.ToStatus),
		Entity:   "maintenance request",
		EntityID: &requestID,
	})
}

var _ apphttp.Module = (*Module)(nil)
var _ Notifier = (*inapp.Service)(nil)
