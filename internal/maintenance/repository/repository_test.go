package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/datastore/memory"
	"property_portal_backend/internal/maintenance/domain"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	requestID  = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	propertyID = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")
	unitID     = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000003")
	tenantID   = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000004")
	memberID   = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000005")
	contactID  = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000006")
	actorID    = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000007")
)

var t0 = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// sequential hides the store's transaction and nested-select support.
type sequential struct {
	datastore.Client
}

func newTestRepository(client datastore.Client) *Repository {
	log := logger.Discard()
	registry := schema.NewRegistry(schema.NewProbe(client, log), config.ProbeModeStartup, log)
	writer := schema.NewWriter(client, registry, log)
	return New(client, writer, log).WithClock(func() time.Time { return t0 })
}

func seedRequest(store *memory.Store, assigneeType string, assigneeID uuid.UUID) {
	store.Seed(TableProperties, datastore.Row{"id": propertyID.String(), "name": "Harbor View"})
	store.Seed(TableUnits, datastore.Row{"id": unitID.String(), "property_id": propertyID.String(), "unit_number": "4B"})
	store.Seed(TableTenants, datastore.Row{"id": tenantID.String(), "first_name": "Ada", "last_name": "Lovelace", "phone": "2015550123"})
	store.Seed(TableTeamMembers, datastore.Row{"id": memberID.String(), "name": "Grace", "role": "technician"})
	store.Seed(TableContacts, datastore.Row{"id": contactID.String(), "name": "Pipes Inc", "company": "Pipes Inc"})
	store.Seed(TableRequests, datastore.Row{
		"id":               requestID.String(),
		"title":            "Leaking tap",
		"status":           "assigned",
		"priority":         "high",
		"property_id":      propertyID.String(),
		"unit_id":          unitID.String(),
		"requested_by_id":  tenantID.String(),
		"assigned_to_id":   assigneeID.String(),
		"assigned_to_type": assigneeType,
		"estimated_cost":   250.0,
		"actual_cost":      nil,
		"materials":        []any{map[string]any{"name": "washer", "quantity": 2.0}},
		"tags":             []string{"plumbing"},
		"resolved_at":      nil,
		"created_at":       t0,
		"updated_at":       t0,
	})
	store.Seed(TableHistory,
		datastore.Row{"id": "h2", "request_id": requestID.String(), "from_status": "open", "to_status": "assigned", "changed_by_id": actorID.String(), "changed_by_type": "user", "notes": nil, "created_at": t0.Add(time.Hour)},
		datastore.Row{"id": "h1", "request_id": requestID.String(), "from_status": nil, "to_status": "open", "changed_by_id": nil, "changed_by_type": "user", "notes": nil, "created_at": t0},
	)
}

func TestLoadWithRelationsResolvesAssigneeByType(t *testing.T) {
	cases := []struct {
		kind string
		id   uuid.UUID
		name string
	}{
		{"team_member", memberID, "Grace"},
		{"contact", contactID, "Pipes Inc"},
	}

	for _, tc := range cases {
		store := memory.New()
		seedRequest(store, tc.kind, tc.id)

		view, err := newTestRepository(store).LoadWithRelations(context.Background(), requestID)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.kind, err)
		}
		if view.Assignee == nil || view.Assignee.ID != tc.id || view.Assignee.Name != tc.name {
			t.Fatalf("%s: unexpected assignee %+v", tc.kind, view.Assignee)
		}
		if view.Requester == nil || view.Requester.Phone == nil || *view.Requester.Phone != "+12015550123" {
			t.Fatalf("%s: expected requester with normalized phone, got %+v", tc.kind, view.Requester)
		}
		if view.Property == nil || view.Unit == nil {
			t.Fatalf("%s: expected property and unit", tc.kind)
		}
		if len(view.History) != 2 || view.History[0].ToStatus != domain.StatusOpen || view.History[0].FromStatus != nil {
			t.Fatalf("%s: expected history oldest first, got %+v", tc.kind, view.History)
		}
		if !view.EstimatedCost.Equal(decimal.NewFromInt(250)) {
			t.Fatalf("%s: unexpected estimated cost %s", tc.kind, view.EstimatedCost)
		}
		if len(view.Tags) != 1 || view.Tags[0] != "plumbing" {
			t.Fatalf("%s: unexpected tags %v", tc.kind, view.Tags)
		}
	}
}

func TestLoadWithRelationsAbsorbsRelationFailures(t *testing.T) {
	store := memory.New()
	seedRequest(store, "team_member", memberID)
	store.FailSelect(TableTeamMembers, errors.New("timeout"))
	store.FailSelect(TableHistory, errors.New("timeout"))

	view, err := newTestRepository(store).LoadWithRelations(context.Background(), requestID)
	if err != nil {
		t.Fatalf("relation failures must not surface: %v", err)
	}
	if view.Assignee != nil {
		t.Fatalf("expected no assignee, got %+v", view.Assignee)
	}
	if view.History == nil || len(view.History) != 0 {
		t.Fatalf("expected empty history, got %+v", view.History)
	}
	if view.Property == nil {
		t.Fatalf("other relations should still load")
	}
}

func TestLoadWithRelationsNotFound(t *testing.T) {
	view, err := newTestRepository(memory.New()).LoadWithRelations(context.Background(), requestID)
	if err != nil || view != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", view, err)
	}
}

func TestListNestedMatchesFallback(t *testing.T) {
	store := memory.New()
	seedRequest(store, "contact", contactID)

	nested, err := newTestRepository(store).List(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("nested list failed: %v", err)
	}
	fallback, err := newTestRepository(sequential{Client: store}).List(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("fallback list failed: %v", err)
	}
	if !reflect.DeepEqual(nested, fallback) {
		t.Fatalf("views differ:\nnested:   %+v\nfallback: %+v", nested, fallback)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	store := memory.New()
	seedRequest(store, "contact", contactID)

	open := domain.StatusOpen
	views, err := newTestRepository(store).List(context.Background(), ListFilter{Status: &open})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("expected no open requests, got %d", len(views))
	}
}

func TestCreateWritesInitialHistory(t *testing.T) {
	store := memory.New()
	title := "Broken heater"

	id, err := newTestRepository(store).Create(context.Background(), RequestFields{Title: &title}, domain.UserActor(actorID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history := store.Rows(TableHistory)
	if len(history) != 1 {
		t.Fatalf("expected one history entry, got %d", len(history))
	}
	entry := history[0]
	if entry.String("request_id") != id.String() || entry.String("to_status") != "open" || entry.Has("from_status") {
		t.Fatalf("unexpected creation entry %+v", entry)
	}
	if entry.String("changed_by_id") != actorID.String() {
		t.Fatalf("expected actor recorded, got %+v", entry)
	}
}

func TestCreateRollsBackWhenHistoryFails(t *testing.T) {
	store := memory.New()
	store.FailInsert(TableHistory, errors.New("disk full"))
	title := "Broken heater"

	if _, err := newTestRepository(store).Create(context.Background(), RequestFields{Title: &title}, domain.UserActor(actorID)); err == nil {
		t.Fatalf("expected error")
	}
	if rows := store.Rows(TableRequests); len(rows) != 0 {
		t.Fatalf("expected request insert rolled back, got %d rows", len(rows))
	}
}

func TestApplyTransitionTransactional(t *testing.T) {
	store := memory.New()
	seedRequest(store, "team_member", memberID)
	store.FailInsert(TableHistory, errors.New("disk full"))

	err := newTestRepository(store).ApplyTransition(context.Background(), Transition{
		RequestID: requestID, From: domain.StatusAssigned, To: domain.StatusResolved,
		Actor: domain.UserActor(actorID), At: t0.Add(2 * time.Hour), Record: true,
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, gap := AsAuditGap(err); gap {
		t.Fatalf("transactional failure must not be reported as an audit gap")
	}
	if status := store.Rows(TableRequests)[0].String("status"); status != "assigned" {
		t.Fatalf("expected status rolled back, got %s", status)
	}
}

func TestApplyTransitionSequentialReportsAuditGap(t *testing.T) {
	store := memory.New()
	seedRequest(store, "team_member", memberID)
	store.FailInsert(TableHistory, errors.New("disk full"))
	at := t0.Add(2 * time.Hour)

	err := newTestRepository(sequential{Client: store}).ApplyTransition(context.Background(), Transition{
		RequestID: requestID, From: domain.StatusAssigned, To: domain.StatusResolved,
		Actor: domain.UserActor(actorID), At: at, Record: true,
	})
	gap, ok := AsAuditGap(err)
	if !ok {
		t.Fatalf("expected audit gap, got %v", err)
	}
	if gap.Entry.ToStatus != domain.StatusResolved || *gap.Entry.FromStatus != domain.StatusAssigned {
		t.Fatalf("unexpected pending entry %+v", gap.Entry)
	}

	row := store.Rows(TableRequests)[0]
	if row.String("status") != "resolved" {
		t.Fatalf("expected status written, got %s", row.String("status"))
	}
	if resolved, ok := row.Time("resolved_at"); !ok || !resolved.Equal(at) {
		t.Fatalf("expected resolved_at %s, got %v", at, row["resolved_at"])
	}
}

func TestApplyTransitionWithoutRecordSkipsHistory(t *testing.T) {
	store := memory.New()
	seedRequest(store, "team_member", memberID)

	err := newTestRepository(store).ApplyTransition(context.Background(), Transition{
		RequestID: requestID, From: domain.StatusAssigned, To: domain.StatusAssigned,
		Actor: domain.UserActor(actorID), At: t0, Record: false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(store.Rows(TableHistory)); n != 2 {
		t.Fatalf("expected history untouched, got %d entries", n)
	}
	if store.Rows(TableRequests)[0].TimePtr("resolved_at") != nil {
		t.Fatalf("resolved_at must only be set when resolving")
	}
}

func TestHistoryBreaksTimestampTiesBySequence(t *testing.T) {
	store := memory.New()
	store.Seed(TableRequests, datastore.Row{"id": requestID.String(), "title": "Leaking tap", "status": "in_progress", "created_at": t0})
	store.Seed(TableHistory,
		datastore.Row{"id": "h3", "request_id": requestID.String(), "from_status": "assigned", "to_status": "in_progress", "changed_by_type": "user", "created_at": t0, "seq": 3},
		datastore.Row{"id": "h1", "request_id": requestID.String(), "from_status": nil, "to_status": "open", "changed_by_type": "user", "created_at": t0, "seq": 1},
		datastore.Row{"id": "h2", "request_id": requestID.String(), "from_status": "open", "to_status": "assigned", "changed_by_type": "user", "created_at": t0, "seq": 2},
	)
	want := []domain.Status{domain.StatusOpen, domain.StatusAssigned, domain.StatusInProgress}

	check := func(label string, history []domain.StatusHistoryEntry) {
		t.Helper()
		if len(history) != len(want) {
			t.Fatalf("%s: expected %d entries, got %d", label, len(want), len(history))
		}
		for i, entry := range history {
			if entry.ToStatus != want[i] {
				t.Fatalf("%s: entry %d is %q, want %q", label, i, entry.ToStatus, want[i])
			}
		}
	}

	history, err := newTestRepository(store).History(context.Background(), requestID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	check("history", history)

	view, err := newTestRepository(store).LoadWithRelations(context.Background(), requestID)
	if err != nil || view == nil {
		t.Fatalf("load failed: %v", err)
	}
	check("view", view.History)

	views, err := newTestRepository(store).List(context.Background(), ListFilter{})
	if err != nil || len(views) != 1 {
		t.Fatalf("list failed: %v", err)
	}
	check("nested list", views[0].History)
}
