package notification

import (
	"context"
	"errors"
	"testing"

	"property_portal_backend/internal/datastore/memory"
	"property_portal_backend/internal/events"
	"property_portal_backend/internal/notification/inapp"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/apperr"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
)

func newTestModule(cols ...string) (*Module, *memory.Store, *events.InMemoryBus) {
	store := memory.New()
	store.DefineColumns(inapp.TableNotifications, cols...)

	log := logger.Discard()
	registry := schema.NewRegistry(schema.NewProbe(store, log), config.ProbeModeStartup, log)
	m := New(store, schema.NewWriter(store, registry, log), log)

	bus := events.NewInMemoryBus(log)
	m.RegisterHandlers(bus)
	return m, store, bus
}

var currentColumns = []string{"id", "user_id", "kind", "message", "entity", "entity_id", "is_read", "created_at"}

func TestMutationReportedStoresNotification(t *testing.T) {
	m, store, bus := newTestModule(currentColumns...)
	userID := uuid.New()
	leaseID := uuid.New()

	err := bus.PublishSync(context.Background(), events.MutationReported{
		BaseEvent: events.NewBaseEvent(),
		UserID:    userID,
		Kind:      events.OutcomeSuccess,
		Entity:    "lease",
		EntityID:  leaseID.String(),
		Action:    "created",
		Message:   "lease created",
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	rows := store.Rows(inapp.TableNotifications)
	if len(rows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rows))
	}

	items, err := m.inAppService.List(context.Background(), userID, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 listed notification, got %d", len(items))
	}
	got := items[0]
	if got.Kind != inapp.KindSuccess || got.Message != "lease created" || got.IsRead {
		t.Fatalf("unexpected notification %+v", got)
	}
	if got.Entity == nil || *got.Entity != "lease" {
		t.Fatalf("expected entity lease, got %v", got.Entity)
	}
	if got.EntityID == nil || *got.EntityID != leaseID {
		t.Fatalf("expected entity id %s, got %v", leaseID, got.EntityID)
	}
}

func TestMutationErrorUsesLegacyResourceColumns(t *testing.T) {
	m, store, bus := newTestModule("id", "user_id", "kind", "message", "resource_type", "resource_id", "is_read", "created_at")
	userID := uuid.New()
	requestID := uuid.New()

	err := bus.PublishSync(context.Background(), events.MutationReported{
		BaseEvent: events.NewBaseEvent(),
		UserID:    userID,
		Kind:      events.OutcomeError,
		Entity:    "maintenance request",
		EntityID:  requestID.String(),
		Message:   "maintenance request not found",
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	rows := store.Rows(inapp.TableNotifications)
	if len(rows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rows))
	}
	if rows[0].String("resource_type") != "maintenance request" {
		t.Fatalf("expected entity in resource_type, got %v", rows[0])
	}

	items, err := m.inAppService.List(context.Background(), userID, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if items[0].Kind != inapp.KindError {
		t.Fatalf("expected error kind, got %q", items[0].Kind)
	}
	if items[0].EntityID == nil || *items[0].EntityID != requestID {
		t.Fatalf("expected entity id from resource_id, got %v", items[0].EntityID)
	}
}

func TestStatusChangeWarnsOnlyOnAuditGap(t *testing.T) {
	_, store, bus := newTestModule(currentColumns...)
	actorID := uuid.New()
	ctx := context.Background()

	change := events.MaintenanceStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		RequestID:  uuid.New(),
		FromStatus: "open",
		ToStatus:   "resolved",
		ActorID:    actorID,
	}
	if err := bus.PublishSync(ctx, change); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if n := len(store.Rows(inapp.TableNotifications)); n != 0 {
		t.Fatalf("expected no notification for a recorded change, got %d", n)
	}

	change.AuditGap = true
	if err := bus.PublishSync(ctx, change); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	rows := store.Rows(inapp.TableNotifications)
	if len(rows) != 1 || rows[0].String("kind") != inapp.KindWarning {
		t.Fatalf("expected one warning notification, got %v", rows)
	}
}

func TestMarkReadRejectsOtherUsersNotification(t *testing.T) {
	m, store, _ := newTestModule(currentColumns...)
	ctx := context.Background()
	owner := uuid.New()

	if err := m.Notifier().Notify(ctx, owner, inapp.KindInfo, "hello"); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	id := store.Rows(inapp.TableNotifications)[0].UUID("id")

	err := m.inAppService.MarkRead(ctx, uuid.New(), id)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := m.inAppService.MarkRead(ctx, owner, id); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	count, err := m.inAppService.CountUnread(ctx, owner)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no unread notifications, got %d", count)
	}
}

func TestSendSurfacesStoreFailure(t *testing.T) {
	m, store, _ := newTestModule(currentColumns...)
	boom := errors.New("connection reset")
	store.FailInsert(inapp.TableNotifications, boom)

	err := m.Notifier().Notify(context.Background(), uuid.New(), inapp.KindInfo, "hello")
	if !errors.Is(err, boom) {
		t.Fatalf("expected store failure, got %v", err)
	}
}
