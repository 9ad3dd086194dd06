package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/datastore/memory"
	"property_portal_backend/internal/leases/domain"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
)

var (
	leaseID    = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	unitID     = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	propertyID = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	tenantA    = uuid.MustParse("44444444-4444-4444-4444-444444444444")
	tenantB    = uuid.MustParse("55555555-5555-5555-5555-555555555555")
	fileID     = uuid.MustParse("66666666-6666-6666-6666-666666666666")
)

func fixedToday() time.Time { return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC) }

func newTestRepository(store *memory.Store) *Repository {
	log := logger.Discard()
	registry := schema.NewRegistry(schema.NewProbe(store, log), config.ProbeModeStartup, log)
	writer := schema.NewWriter(store, registry, log)
	return New(store, writer, log).WithClock(fixedToday)
}

func seedLease(store *memory.Store, links ...datastore.Row) {
	store.Seed(TableProperties, datastore.Row{"id": propertyID.String(), "name": "Harbor View"})
	store.Seed(TableUnits, datastore.Row{"id": unitID.String(), "property_id": propertyID.String(), "unit_number": "4B"})
	store.Seed(TableTenants,
		datastore.Row{"id": tenantA.String(), "first_name": "Ada", "last_name": "Lovelace", "phone": "(201) 555-0123"},
		datastore.Row{"id": tenantB.String(), "first_name": "Alan", "last_name": "Turing"},
	)
	store.Seed(TableLeases, datastore.Row{
		"id":               leaseID.String(),
		"unit_id":          unitID.String(),
		"start_date":       "2024-01-01",
		"end_date":         "2024-12-31",
		"rent_amount":      1800.0,
		"security_deposit": 1800.0,
		"is_draft":         false,
		"status":           nil,
		"created_at":       time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
	})
	store.Seed(TableLeaseTenant, links...)
}

func link(id string, tenant uuid.UUID, primary bool, created time.Time) datastore.Row {
	return datastore.Row{"id": id, "lease_id": leaseID.String(), "tenant_id": tenant.String(), "is_primary": primary, "created_at": created}
}

func TestLoadWithRelationsAssemblesView(t *testing.T) {
	store := memory.New()
	t0 := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	seedLease(store, link("j1", tenantA, false, t0), link("j2", tenantB, true, t0.Add(time.Minute)))

	view, err := newTestRepository(store).LoadWithRelations(context.Background(), leaseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view == nil {
		t.Fatalf("expected lease view")
	}
	if view.Status != domain.StatusActive {
		t.Fatalf("expected active, got %s", view.Status)
	}
	if view.DepositAmount == nil || *view.DepositAmount != 1800 {
		t.Fatalf("expected deposit read from security_deposit, got %v", view.DepositAmount)
	}
	if view.Unit == nil || view.Unit.Property == nil || view.Unit.Property.Name != "Harbor View" {
		t.Fatalf("expected unit with property, got %+v", view.Unit)
	}
	if len(view.Tenants) != 2 {
		t.Fatalf("expected two tenants, got %d", len(view.Tenants))
	}
	if view.PrimaryTenant == nil || view.PrimaryTenant.ID != tenantB {
		t.Fatalf("expected flagged tenant to be primary, got %+v", view.PrimaryTenant)
	}
	if view.Tenants[0].Phone == nil || *view.Tenants[0].Phone != "+12015550123" {
		t.Fatalf("expected normalized phone, got %v", view.Tenants[0].Phone)
	}
}

func TestLoadWithRelationsPrimaryFallsBackToFirstTenant(t *testing.T) {
	store := memory.New()
	t0 := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	seedLease(store, link("j1", tenantA, false, t0), link("j2", tenantB, false, t0.Add(time.Minute)))

	view, err := newTestRepository(store).LoadWithRelations(context.Background(), leaseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.PrimaryTenant == nil || view.PrimaryTenant.ID != tenantA {
		t.Fatalf("expected first tenant as primary, got %+v", view.PrimaryTenant)
	}
}

func TestLoadWithRelationsToleratesTenantFailure(t *testing.T) {
	store := memory.New()
	seedLease(store, link("j1", tenantA, true, time.Now()))
	store.FailSelect(TableLeaseTenant, errors.New("connection reset by peer"))

	view, err := newTestRepository(store).LoadWithRelations(context.Background(), leaseID)
	if err != nil {
		t.Fatalf("relation failures must not surface, got %v", err)
	}
	if view.Tenants == nil || len(view.Tenants) != 0 {
		t.Fatalf("expected empty tenant list, got %v", view.Tenants)
	}
	if view.PrimaryTenant != nil {
		t.Fatalf("expected no primary tenant")
	}
	if view.Unit == nil || view.StartDate != "2024-01-01" || view.RentAmount != 1800 {
		t.Fatalf("expected primary fields to stay populated, got %+v", view)
	}
}

func TestLoadWithRelationsToleratesMissingUnit(t *testing.T) {
	store := memory.New()
	seedLease(store)
	store.FailSelect(TableUnits, errors.New("timeout"))

	view, err := newTestRepository(store).LoadWithRelations(context.Background(), leaseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Unit != nil {
		t.Fatalf("expected nil unit, got %+v", view.Unit)
	}
}

func TestLoadWithRelationsNotFound(t *testing.T) {
	view, err := newTestRepository(memory.New()).LoadWithRelations(context.Background(), uuid.New())
	if err != nil || view != nil {
		t.Fatalf("expected nil, nil for a missing lease, got %v, %v", view, err)
	}
}

func TestLoadWithRelationsSurfacesPrimaryFailure(t *testing.T) {
	store := memory.New()
	store.FailSelect(TableLeases, errors.New("permission denied"))

	if _, err := newTestRepository(store).LoadWithRelations(context.Background(), leaseID); err == nil {
		t.Fatalf("expected primary fetch failure to be returned")
	}
}

func TestLoadAllNestedAndFallbackProduceSameShape(t *testing.T) {
	build := func() *memory.Store {
		store := memory.New()
		t0 := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
		seedLease(store, link("j1", tenantA, true, t0), link("j2", tenantB, false, t0.Add(time.Minute)))
		store.Seed(TableAttachments, datastore.Row{
			"id": fileID.String(), "lease_id": leaseID.String(), "name": "lease.pdf",
			"file_url": "https://files/lease.pdf", "file_type": "application/pdf", "created_at": t0,
		})
		return store
	}

	nestedStore := build()
	nested, err := newTestRepository(nestedStore).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("nested load failed: %v", err)
	}

	fallbackStore := build()
	fallbackStore.DisableNested = true
	fallback, err := newTestRepository(fallbackStore).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("fallback load failed: %v", err)
	}

	if len(nested) != 1 || len(nested[0].Attachments) != 1 || len(nested[0].Tenants) != 2 {
		t.Fatalf("unexpected nested result %+v", nested)
	}
	if !reflect.DeepEqual(nested, fallback) {
		t.Fatalf("load paths disagree:\nnested   %+v\nfallback %+v", nested, fallback)
	}
}

func TestLoadAllFallsBackWhenNestedFetchFails(t *testing.T) {
	store := memory.New()
	seedLease(store, link("j1", tenantA, true, time.Now()))
	store.FailNested(TableLeases, errors.New("nested syntax unsupported"))

	views, err := newTestRepository(store).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 1 || len(views[0].Tenants) != 1 {
		t.Fatalf("expected fallback to load tenants, got %+v", views)
	}
}

func TestCreateWritesDepositToAvailableColumn(t *testing.T) {
	store := memory.New()
	store.DefineColumns(TableLeases, "id", "unit_id", "start_date", "end_date", "rent_amount", "deposit", "notes", "is_draft", "status", "created_at")
	store.DefineColumns(TableLeaseTenant, "id", "lease_id", "tenant_id", "is_primary", "created_at")
	repo := newTestRepository(store)

	start, end, rent, deposit, draft := "2024-01-01", "2024-12-31", 1500.0, 1500.0, false
	id, err := repo.Create(context.Background(), LeaseFields{
		UnitID: &unitID, StartDate: &start, EndDate: &end, RentAmount: &rent, DepositAmount: &deposit, IsDraft: &draft,
	}, domain.LinkTenants([]uuid.UUID{tenantA, tenantB}, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := store.Rows(TableLeases)
	if len(rows) != 1 || rows[0].Float("deposit") != 1500 || rows[0].UUID("id") != id {
		t.Fatalf("expected deposit under legacy column, got %+v", rows)
	}
	links := store.Rows(TableLeaseTenant)
	if len(links) != 2 || !links[0].Bool("is_primary") || links[1].Bool("is_primary") {
		t.Fatalf("expected exactly one primary link, got %+v", links)
	}
}

func TestCreateRollsBackWhenTenantLinkFails(t *testing.T) {
	store := memory.New()
	store.FailInsert(TableLeaseTenant, errors.New("foreign key violation"))
	repo := newTestRepository(store)

	draft := false
	_, err := repo.Create(context.Background(), LeaseFields{IsDraft: &draft}, domain.LinkTenants([]uuid.UUID{tenantA}, nil))
	if err == nil {
		t.Fatalf("expected link failure to be returned")
	}
	if len(store.Rows(TableLeases)) != 0 {
		t.Fatalf("expected lease insert to be rolled back")
	}
}
