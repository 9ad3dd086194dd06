package repository

import (
	"context"

	"property_portal_backend/internal/leases/domain"

	"github.com/google/uuid"
)

// LeaseReader assembles composite lease views.
type LeaseReader interface {
	// LoadWithRelations returns nil, nil when the lease does not exist.
	LoadWithRelations(ctx context.Context, id uuid.UUID) (*LeaseView, error)
	LoadAll(ctx context.Context) ([]LeaseView, error)
	GetAttachment(ctx context.Context, leaseID, attachmentID uuid.UUID) (*AttachmentView, error)
}

// LeaseWriter persists leases and their dependents.
type LeaseWriter interface {
	Create(ctx context.Context, fields LeaseFields, tenants []domain.TenantLink) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, fields LeaseFields) error
	ReplaceTenants(ctx context.Context, leaseID uuid.UUID, tenants []domain.TenantLink) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddAttachment(ctx context.Context, leaseID uuid.UUID, input AttachmentInput) (*AttachmentView, error)
	DeleteAttachment(ctx context.Context, attachmentID uuid.UUID) error
}

// LeaseRepository is the aggregate-root repository for leases.
type LeaseRepository interface {
	LeaseReader
	LeaseWriter
}

var _ LeaseRepository = (*Repository)(nil)
