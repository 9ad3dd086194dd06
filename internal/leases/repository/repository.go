package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/leases/domain"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/phone"

	"github.com/google/uuid"
)

// Repository reads and writes leases through the generic datastore client.
type Repository struct {
	client      datastore.Client
	writer      *schema.Writer
	log         *logger.Logger
	now         func() time.Time
	phoneRegion string
}

// New creates a lease repository.
func New(client datastore.Client, writer *schema.Writer, log *logger.Logger) *Repository {
	return &Repository{
		client:      client,
		writer:      writer,
		log:         log,
		now:         time.Now,
		phoneRegion: phone.DefaultRegion,
	}
}

// WithClock overrides the clock used to derive lease status.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// WithPhoneRegion sets the region used to normalize tenant phone numbers.
func (r *Repository) WithPhoneRegion(region string) *Repository {
	if region != "" {
		r.phoneRegion = region
	}
	return r
}

// Create inserts a lease and its tenant links, atomically when the datastore
// supports transactions.
func (r *Repository) Create(ctx context.Context, fields LeaseFields, tenants []domain.TenantLink) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.inTx(ctx, func(client datastore.Client, writer *schema.Writer) error {
		row, err := writer.Insert(ctx, TableLeases, leaseFields(fields))
		if err != nil {
			return err
		}
		id = row.UUID("id")
		return insertTenantLinks(ctx, writer, id, tenants)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Update writes the non-nil fields onto the lease.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, fields LeaseFields) error {
	_, err := r.writer.Update(ctx, TableLeases, id.String(), leaseFields(fields))
	return err
}

// ReplaceTenants swaps the lease's tenant links for tenants.
func (r *Repository) ReplaceTenants(ctx context.Context, leaseID uuid.UUID, tenants []domain.TenantLink) error {
	return r.inTx(ctx, func(client datastore.Client, writer *schema.Writer) error {
		existing, err := client.Select(ctx, datastore.Query{
			Table:   TableLeaseTenant,
			Columns: []string{"id"},
			Filters: []datastore.Filter{datastore.Eq("lease_id", leaseID.String())},
		})
		if err != nil {
			return err
		}
		for _, link := range existing {
			if err := client.Delete(ctx, TableLeaseTenant, link.String("id")); err != nil {
				return err
			}
		}
		return insertTenantLinks(ctx, writer, leaseID, tenants)
	})
}

// Delete removes the lease. Dependent rows are removed by the datastore.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.client.Delete(ctx, TableLeases, id.String())
}

// AddAttachment records an uploaded document.
func (r *Repository) AddAttachment(ctx context.Context, leaseID uuid.UUID, input AttachmentInput) (*AttachmentView, error) {
	row, err := r.writer.Insert(ctx, TableAttachments, []schema.Field{
		schema.Plain("lease_id", leaseID.String()),
		schema.Plain("name", input.Name),
		schema.Plain("file_url", input.FileURL),
		schema.Plain("file_path", input.FilePath),
		schema.Plain("file_type", input.FileType),
	})
	if err != nil {
		return nil, err
	}
	attachment := mapAttachment(row)
	return &attachment, nil
}

// GetAttachment returns nil, nil when the attachment does not belong to the lease.
func (r *Repository) GetAttachment(ctx context.Context, leaseID, attachmentID uuid.UUID) (*AttachmentView, error) {
	rows, err := r.client.Select(ctx, datastore.Query{
		Table: TableAttachments,
		Filters: []datastore.Filter{
			datastore.Eq("id", attachmentID.String()),
			datastore.Eq("lease_id", leaseID.String()),
		},
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("load attachment: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	attachment := mapAttachment(rows[0])
	return &attachment, nil
}

// DeleteAttachment removes the attachment row.
func (r *Repository) DeleteAttachment(ctx context.Context, attachmentID uuid.UUID) error {
	return r.client.Delete(ctx, TableAttachments, attachmentID.String())
}

func (r *Repository) inTx(ctx context.Context, fn func(client datastore.Client, writer *schema.Writer) error) error {
	tx, ok := r.client.(datastore.Transactor)
	if !ok {
		return fn(r.client, r.writer)
	}
	return tx.WithTx(ctx, func(client datastore.Client) error {
		return fn(client, r.writer.With(client))
	})
}

func insertTenantLinks(ctx context.Context, writer *schema.Writer, leaseID uuid.UUID, tenants []domain.TenantLink) error {
	for _, link := range tenants {
		_, err := writer.Insert(ctx, TableLeaseTenant, []schema.Field{
			schema.Plain("lease_id", leaseID.String()),
			schema.Plain("tenant_id", link.TenantID.String()),
			schema.Plain("is_primary", link.IsPrimary),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func leaseFields(f LeaseFields) []schema.Field {
	fields := make([]schema.Field, 0, 8)
	if f.UnitID != nil {
		fields = append(fields, schema.Plain("unit_id", f.UnitID.String()))
	}
	if f.StartDate != nil {
		fields = append(fields, schema.Plain("start_date", *f.StartDate))
	}
	if f.EndDate != nil {
		fields = append(fields, schema.Plain("end_date", *f.EndDate))
	}
	if f.RentAmount != nil {
		fields = append(fields, schema.Plain("rent_amount", *f.RentAmount))
	}
	if f.DepositAmount != nil {
		fields = append(fields, schema.Chain("deposit", *f.DepositAmount, DepositColumns...))
	}
	if f.Notes != nil {
		fields = append(fields, schema.Plain("notes", *f.Notes))
	}
	if f.IsDraft != nil {
		fields = append(fields, schema.Plain("is_draft", *f.IsDraft))
	}
	if f.Status != nil {
		fields = append(fields, schema.Plain("status", *f.Status))
	}
	return fields
}

// IsNotFound reports whether err means the lease row is gone.
func IsNotFound(err error) bool {
	return errors.Is(err, datastore.ErrNotFound)
}
