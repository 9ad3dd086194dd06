package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/datastore/memory"
	"property_portal_backend/internal/events"
	"property_portal_backend/internal/leases/domain"
	"property_portal_backend/internal/leases/repository"
	"property_portal_backend/internal/leases/transport"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/apperr"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeBlobs struct {
	uploaded map[string][]byte
	removed  []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{uploaded: make(map[string][]byte)}
}

func (f *fakeBlobs) Upload(_ context.Context, path, _ string, data []byte) (string, error) {
	f.uploaded[path] = data
	return "https://files.example.com/" + path, nil
}

func (f *fakeBlobs) Remove(_ context.Context, path string) error {
	f.removed = append(f.removed, path)
	delete(f.uploaded, path)
	return nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

type fixture struct {
	store *memory.Store
	blobs *fakeBlobs
	bus   *recordingBus
	svc   *Service
}

func newFixture() fixture {
	store := memory.New()
	log := logger.Discard()
	registry := schema.NewRegistry(schema.NewProbe(store, log), config.ProbeModeStartup, log)
	repo := repository.New(store, schema.NewWriter(store, registry, log), log).
		WithClock(func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) })
	blobs := newFakeBlobs()
	bus := &recordingBus{}
	return fixture{store: store, blobs: blobs, bus: bus, svc: New(repo, blobs, bus, log, 1024)}
}

func seedTenant(store *memory.Store) uuid.UUID {
	id := uuid.New()
	store.Seed(repository.TableTenants, datastore.Row{"id": id.String(), "first_name": "Grace", "last_name": "Hopper"})
	return id
}

func createRequest(isDraft bool, tenants ...uuid.UUID) transport.CreateLeaseRequest {
	unitID := uuid.New()
	return transport.CreateLeaseRequest{
		UnitID:     &unitID,
		StartDate:  "2024-01-01",
		EndDate:    "2024-12-31",
		RentAmount: 1200,
		IsDraft:    isDraft,
		TenantIDs:  tenants,
	}
}

func TestCreateRejectsFinalizedLeaseWithoutTenants(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), createRequest(false))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.store.Rows(repository.TableLeases)) != 0 {
		t.Fatalf("nothing should be written")
	}
}

func TestCreateDraftWithoutTenants(t *testing.T) {
	f := newFixture()

	view, err := f.svc.Create(context.Background(), createRequest(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Status != domain.StatusDraft || len(view.Tenants) != 0 {
		t.Fatalf("expected empty draft, got %+v", view)
	}
}

func TestCreateRejectsEndBeforeStart(t *testing.T) {
	f := newFixture()
	req := createRequest(true)
	req.EndDate = "2023-12-31"

	if _, err := f.svc.Create(context.Background(), req); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFinalizeDraft(t *testing.T) {
	f := newFixture()
	tenant := seedTenant(f.store)
	draft, err := f.svc.Create(context.Background(), createRequest(true, tenant))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := f.svc.Finalize(context.Background(), uuid.New(), draft.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.IsDraft || view.Status != domain.StatusActive {
		t.Fatalf("expected active lease, got draft=%v status=%s", view.IsDraft, view.Status)
	}
	if view.PrimaryTenant == nil || view.PrimaryTenant.ID != tenant {
		t.Fatalf("expected sole tenant to be primary")
	}
	if len(f.bus.published) != 1 {
		t.Fatalf("expected LeaseFinalized event, got %d events", len(f.bus.published))
	}

	if _, err := f.svc.Finalize(context.Background(), uuid.New(), draft.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on second finalize, got %v", err)
	}
}

func TestFinalizeWithoutTenantsFails(t *testing.T) {
	f := newFixture()
	draft, err := f.svc.Create(context.Background(), createRequest(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.Finalize(context.Background(), uuid.New(), draft.ID); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetMissingLease(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Get(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUploadAttachmentRemovesFileWhenRecordFails(t *testing.T) {
	f := newFixture()
	lease, err := f.svc.Create(context.Background(), createRequest(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boom := errors.New("insert failed")
	f.store.FailInsert(repository.TableAttachments, boom)

	_, err = f.svc.UploadAttachment(context.Background(), lease.ID, transport.AttachmentUpload{
		FileName: "lease.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.7"),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected insert error, got %v", err)
	}
	if len(f.blobs.uploaded) != 0 || len(f.blobs.removed) != 1 {
		t.Fatalf("expected uploaded file to be removed, uploaded=%d removed=%d", len(f.blobs.uploaded), len(f.blobs.removed))
	}
}

func TestUploadAndRemoveAttachment(t *testing.T) {
	f := newFixture()
	lease, err := f.svc.Create(context.Background(), createRequest(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attachment, err := f.svc.UploadAttachment(context.Background(), lease.ID, transport.AttachmentUpload{
		FileName: "lease.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.7"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, _ := f.svc.Get(context.Background(), lease.ID)
	if len(view.Attachments) != 1 || view.Attachments[0].FileURL != attachment.FileURL {
		t.Fatalf("expected attachment on lease, got %+v", view.Attachments)
	}

	if err := f.svc.RemoveAttachment(context.Background(), lease.ID, attachment.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.blobs.removed) != 1 {
		t.Fatalf("expected stored file to be removed")
	}
}

func TestUploadAttachmentValidatesInput(t *testing.T) {
	f := newFixture()
	_, err := f.svc.UploadAttachment(context.Background(), uuid.New(), transport.AttachmentUpload{
		FileName: "run.exe", ContentType: "application/x-msdownload", Data: []byte("MZ"),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
