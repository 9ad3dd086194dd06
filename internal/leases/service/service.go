package service

import (
	"context"

	"property_portal_backend/internal/adapters/storage"
	"property_portal_backend/internal/events"
	"property_portal_backend/internal/leases/domain"
	"property_portal_backend/internal/leases/repository"
	"property_portal_backend/internal/leases/transport"
	"property_portal_backend/platform/apperr"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	errLeaseNotFound      = "lease not found"
	errAttachmentNotFound = "attachment not found"
	errEndBeforeStart     = "endDate must not be before startDate"
)

// Service provides business logic for leases
type Service struct {
	repo        repository.LeaseRepository
	blobs       storage.BlobStore
	eventBus    events.Bus
	log         *logger.Logger
	maxFileSize int64
}

// New creates a new leases service. blobs may be nil when file storage is
// not configured; attachment uploads are then rejected.
func New(repo repository.LeaseRepository, blobs storage.BlobStore, eventBus events.Bus, log *logger.Logger, maxFileSize int64) *Service {
	return &Service{repo: repo, blobs: blobs, eventBus: eventBus, log: log, maxFileSize: maxFileSize}
}

// List returns every lease with its relations.
func (s *Service) List(ctx context.Context) ([]repository.LeaseView, error) {
	return s.repo.LoadAll(ctx)
}

// Get returns one lease with its relations.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.LeaseView, error) {
	view, err := s.repo.LoadWithRelations(ctx, id)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, apperr.NotFound(errLeaseNotFound)
	}
	return view, nil
}

// Create stores a new lease. Non-draft leases need at least one tenant and
// get exactly one primary tenant.
func (s *Service) Create(ctx context.Context, req transport.CreateLeaseRequest) (*repository.LeaseView, error) {
	if err := checkDateOrder(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	links := domain.LinkTenants(req.TenantIDs, req.PrimaryTenantID)
	if err := domain.CheckTenants(req.IsDraft, len(links)); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	isDraft := req.IsDraft
	id, err := s.repo.Create(ctx, repository.LeaseFields{
		UnitID:        req.UnitID,
		StartDate:     &req.StartDate,
		EndDate:       &req.EndDate,
		RentAmount:    &req.RentAmount,
		DepositAmount: req.DepositAmount,
		Notes:         sanitize.TextPtr(req.Notes),
		IsDraft:       &isDraft,
		Status:        req.Status,
	}, links)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Update writes the supplied fields and, when given, replaces the tenants.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeaseRequest) (*repository.LeaseView, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	start, end := current.StartDate, current.EndDate
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if req.EndDate != nil {
		end = *req.EndDate
	}
	if err := checkDateOrder(start, end); err != nil {
		return nil, err
	}

	var links []domain.TenantLink
	if req.TenantIDs != nil {
		links = domain.LinkTenants(req.TenantIDs, req.PrimaryTenantID)
	}
	if req.IsDraft != nil || req.TenantIDs != nil {
		isDraft := current.IsDraft
		if req.IsDraft != nil {
			isDraft = *req.IsDraft
		}
		tenantCount := len(current.Tenants)
		if req.TenantIDs != nil {
			tenantCount = len(links)
		}
		if err := domain.CheckTenants(isDraft, tenantCount); err != nil {
			return nil, apperr.Validation(err.Error())
		}
	}

	fields := repository.LeaseFields{
		UnitID:        req.UnitID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		RentAmount:    req.RentAmount,
		DepositAmount: req.DepositAmount,
		Notes:         sanitize.TextPtr(req.Notes),
		IsDraft:       req.IsDraft,
		Status:        req.Status,
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound(errLeaseNotFound)
		}
		return nil, err
	}
	if req.TenantIDs != nil {
		if err := s.repo.ReplaceTenants(ctx, id, links); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// Finalize turns a draft into a binding lease.
func (s *Service) Finalize(ctx context.Context, actorID, id uuid.UUID) (*repository.LeaseView, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsDraft {
		return nil, apperr.Conflict("lease is already finalized")
	}
	if err := domain.CheckTenants(false, len(current.Tenants)); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	finalized := false
	if err := s.repo.Update(ctx, id, repository.LeaseFields{IsDraft: &finalized}); err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, events.LeaseFinalized{
		BaseEvent:   events.NewBaseEvent(),
		LeaseID:     id,
		TenantCount: len(current.Tenants),
		ActorID:     actorID,
	})
	return s.Get(ctx, id)
}

// Delete removes the lease and, best effort, its stored files.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	for _, attachment := range current.Attachments {
		s.removeBlob(ctx, attachment.FilePath)
	}
	return nil
}

// UploadAttachment stores the file and records it on the lease. If the
// record cannot be written the stored file is removed again.
func (s *Service) UploadAttachment(ctx context.Context, leaseID uuid.UUID, upload transport.AttachmentUpload) (*repository.AttachmentView, error) {
	if s.blobs == nil {
		return nil, apperr.Internal("file storage is not configured")
	}
	if err := storage.ValidateContentType(upload.ContentType); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := storage.ValidateFileSize(int64(len(upload.Data)), s.maxFileSize); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if _, err := s.Get(ctx, leaseID); err != nil {
		return nil, err
	}

	path := storage.ObjectPath("leases/"+leaseID.String(), upload.FileName)
	fileURL, err := s.blobs.Upload(ctx, path, upload.ContentType, upload.Data)
	if err != nil {
		return nil, err
	}

	attachment, err := s.repo.AddAttachment(ctx, leaseID, repository.AttachmentInput{
		Name:     upload.FileName,
		FileURL:  fileURL,
		FilePath: path,
		FileType: upload.ContentType,
	})
	if err != nil {
		s.removeBlob(ctx, path)
		return nil, err
	}
	return attachment, nil
}

// RemoveAttachment deletes the attachment record and its stored file.
func (s *Service) RemoveAttachment(ctx context.Context, leaseID, attachmentID uuid.UUID) error {
	attachment, err := s.repo.GetAttachment(ctx, leaseID, attachmentID)
	if err != nil {
		return err
	}
	if attachment == nil {
		return apperr.NotFound(errAttachmentNotFound)
	}
	if err := s.repo.DeleteAttachment(ctx, attachmentID); err != nil {
		return err
	}
	s.removeBlob(ctx, attachment.FilePath)
	return nil
}

func (s *Service) removeBlob(ctx context.Context, path string) {
	if s.blobs == nil || path == "" {
		return
	}
	if err := s.blobs.Remove(ctx, path); err != nil {
		s.log.WithContext(ctx).Warn("failed to remove lease file", "path", path, "error", err)
	}
}

func checkDateOrder(start, end string) error {
	startDay, okStart := domain.CalendarDay(start)
	endDay, okEnd := domain.CalendarDay(end)
	if okStart && okEnd && endDay.Before(startDay) {
		return apperr.Validation(errEndBeforeStart)
	}
	return nil
}
