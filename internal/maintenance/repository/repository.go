package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/maintenance/domain"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/phone"

	"github.com/google/uuid"
)

// Repository reads and writes maintenance requests through the generic
// datastore client.
type Repository struct {
	client      datastore.Client
	writer      *schema.Writer
	log         *logger.Logger
	now         func() time.Time
	phoneRegion string
}

// New creates a maintenance repository.
func New(client datastore.Client, writer *schema.Writer, log *logger.Logger) *Repository {
	return &Repository{
		client:      client,
		writer:      writer,
		log:         log,
		now:         time.Now,
		phoneRegion: phone.DefaultRegion,
	}
}

// WithClock overrides the clock used for the creation history entry.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// WithPhoneRegion sets the region used to normalize contact phone numbers.
func (r *Repository) WithPhoneRegion(region string) *Repository {
	if region != "" {
		r.phoneRegion = region
	}
	return r
}

// Create inserts an open request together with its (nil -> open) history
// entry. Without transactions an unwritten entry is reported as an
// *AuditGapError after the request row exists.
func (r *Repository) Create(ctx context.Context, fields RequestFields, actor domain.Actor) (uuid.UUID, error) {
	payload := append(requestFields(fields), schema.Plain("status", string(domain.InitialStatus)))

	insertEntry := func(ctx context.Context, writer *schema.Writer, id uuid.UUID) (domain.StatusHistoryEntry, error) {
		entry := domain.NewHistoryEntry(id, nil, domain.InitialStatus, actor, nil, r.now())
		return entry, appendHistory(ctx, writer, entry)
	}

	if tx, ok := r.client.(datastore.Transactor); ok {
		var id uuid.UUID
		err := tx.WithTx(ctx, func(client datastore.Client) error {
			writer := r.writer.With(client)
			row, err := writer.Insert(ctx, TableRequests, payload)
			if err != nil {
				return err
			}
			id = row.UUID("id")
			_, err = insertEntry(ctx, writer, id)
			return err
		})
		if err != nil {
			return uuid.Nil, err
		}
		return id, nil
	}

	row, err := r.writer.Insert(ctx, TableRequests, payload)
	if err != nil {
		return uuid.Nil, err
	}
	id := row.UUID("id")
	if entry, err := insertEntry(ctx, r.writer, id); err != nil {
		return id, &AuditGapError{Entry: entry, Err: err}
	}
	return id, nil
}

// Update writes the non-nil fields onto the request. Status is only changed
// through ApplyTransition.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, fields RequestFields) error {
	_, err := r.writer.Update(ctx, TableRequests, id.String(), requestFields(fields))
	return err
}

// Delete removes the request. History rows go with it through the foreign key.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.client.Delete(ctx, TableRequests, id.String())
}

// ApplyTransition stores the new status and its history entry as one
// command: inside a transaction when the datastore has them, otherwise one
// after the other.
func (r *Repository) ApplyTransition(ctx context.Context, t Transition) error {
	from := t.From
	entry := domain.NewHistoryEntry(t.RequestID, &from, t.To, t.Actor, t.Note, t.At)
	fields := []schema.Field{
		schema.Plain("status", string(t.To)),
		schema.Plain("updated_at", t.At),
	}
	if t.To == domain.StatusResolved {
		fields = append(fields, schema.Plain("resolved_at", t.At))
	}

	if tx, ok := r.client.(datastore.Transactor); ok {
		return tx.WithTx(ctx, func(client datastore.Client) error {
			writer := r.writer.With(client)
			if _, err := writer.Update(ctx, TableRequests, t.RequestID.String(), fields); err != nil {
				return err
			}
			if !t.Record {
				return nil
			}
			return appendHistory(ctx, writer, entry)
		})
	}

	if _, err := r.writer.Update(ctx, TableRequests, t.RequestID.String(), fields); err != nil {
		return err
	}
	if !t.Record {
		return nil
	}
	if err := appendHistory(ctx, r.writer, entry); err != nil {
		return &AuditGapError{Entry: entry, Err: err}
	}
	return nil
}

// AppendHistory writes a single history entry.
func (r *Repository) AppendHistory(ctx context.Context, entry domain.StatusHistoryEntry) error {
	return appendHistory(ctx, r.writer, entry)
}

// CurrentStatus reads only the status column of the request.
func (r *Repository) CurrentStatus(ctx context.Context, id uuid.UUID) (domain.Status, error) {
	rows, err := r.client.Select(ctx, datastore.Query{
		Table:   TableRequests,
		Columns: []string{"id", "status"},
		Filters: []datastore.Filter{datastore.Eq("id", id.String())},
		Limit:   1,
	})
	if err != nil {
		return "", fmt.Errorf("load request status: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return domain.Status(rows[0].String("status")), nil
}

// History returns the request's entries, oldest first.
func (r *Repository) History(ctx context.Context, id uuid.UUID) ([]domain.StatusHistoryEntry, error) {
	rows, err := r.client.Select(ctx, historyQuery(id.String()))
	if err != nil {
		return nil, fmt.Errorf("load status history: %w", err)
	}
	return mapHistory(rows), nil
}

func appendHistory(ctx context.Context, writer *schema.Writer, entry domain.StatusHistoryEntry) error {
	fields := []schema.Field{
		schema.Plain("id", entry.ID.String()),
		schema.Plain("request_id", entry.RequestID.String()),
		schema.Plain("to_status", string(entry.ToStatus)),
		schema.Plain("changed_by_type", string(entry.ChangedByKind)),
		schema.Plain("created_at", entry.CreatedAt),
	}
	if entry.FromStatus != nil {
		fields = append(fields, schema.Plain("from_status", string(*entry.FromStatus)))
	}
	if entry.ChangedByID != nil {
		fields = append(fields, schema.Plain("changed_by_id", entry.ChangedByID.String()))
	}
	if entry.Notes != nil {
		fields = append(fields, schema.Plain("notes", *entry.Notes))
	}
	_, err := writer.Insert(ctx, TableHistory, fields)
	return err
}

func requestFields(f RequestFields) []schema.Field {
	fields := make([]schema.Field, 0, 16)
	if f.Title != nil {
		fields = append(fields, schema.Plain("title", *f.Title))
	}
	if f.Description != nil {
		fields = append(fields, schema.Plain("description", *f.Description))
	}
	if f.Priority != nil {
		fields = append(fields, schema.Plain("priority", *f.Priority))
	}
	if f.Type != nil {
		fields = append(fields, schema.Plain("type", *f.Type))
	}
	if f.PropertyID != nil {
		fields = append(fields, schema.Plain("property_id", f.PropertyID.String()))
	}
	if f.UnitID != nil {
		fields = append(fields, schema.Plain("unit_id", f.UnitID.String()))
	}
	if f.RequestedByID != nil {
		fields = append(fields, schema.Plain("requested_by_id", f.RequestedByID.String()))
	}
	if f.AssignedToID != nil {
		fields = append(fields, schema.Plain("assigned_to_id", f.AssignedToID.String()))
	}
	if f.AssignedToType != nil {
		fields = append(fields, schema.Plain("assigned_to_type", string(*f.AssignedToType)))
	}
	if f.EstimatedCost != nil {
		fields = append(fields, schema.Plain("estimated_cost", f.EstimatedCost.String()))
	}
	if f.ActualCost != nil {
		fields = append(fields, schema.Plain("actual_cost", f.ActualCost.String()))
	}
	if f.DueDate != nil {
		fields = append(fields, schema.Plain("due_date", *f.DueDate))
	}
	if f.Materials != nil {
		fields = append(fields, schema.Plain("materials", f.Materials))
	}
	if f.Equipment != nil {
		fields = append(fields, schema.Plain("equipment", f.Equipment))
	}
	if f.Tags != nil {
		fields = append(fields, schema.Plain("tags", f.Tags))
	}
	return fields
}

// IsNotFound reports whether err means the request row is gone.
func IsNotFound(err error) bool {
	return errors.Is(err, datastore.ErrNotFound)
}
