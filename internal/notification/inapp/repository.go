package inapp

import (
	"context"
	"time"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// TableNotifications stores in-app notifications.
const TableNotifications = "notifications"

const (
	errRepoNotConfigured = "in-app notification repository not configured"
	errUserIDRequired    = "userId is required"

	opCreate      = "inapp.repository.create"
	opList        = "inapp.repository.list"
	opCountUnread = "inapp.repository.count_unread"
	opMarkRead    = "inapp.repository.mark_read"
	opMarkAllRead = "inapp.repository.mark_all_read"
	opDelete      = "inapp.repository.delete"
)

// Notification is one stored in-app notification.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
	Entity    *string    `json:"entity,omitempty"`
	EntityID  *uuid.UUID `json:"entityId,omitempty"`
	IsRead    bool       `json:"isRead"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// CreateParams carries the values of a new notification.
type CreateParams struct {
	UserID   uuid.UUID
	Kind     string
	Message  string
	Entity   string
	EntityID *uuid.UUID
}

// Repository persists notifications through the adaptive writer so older
// deployments without the entity columns still accept rows.
type Repository struct {
	client datastore.Client
	writer *schema.Writer
}

func NewRepository(client datastore.Client, writer *schema.Writer) *Repository {
	return &Repository{client: client, writer: writer}
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	if r == nil || r.writer == nil {
		return Notification{}, apperr.Internal(errRepoNotConfigured).WithOp(opCreate)
	}
	if p.UserID == uuid.Nil {
		return Notification{}, apperr.Validation(errUserIDRequired).WithOp(opCreate)
	}
	if p.Message == "" {
		return Notification{}, apperr.Validation("message is required").WithOp(opCreate)
	}

	fields := []schema.Field{
		schema.Plain("id", uuid.New().String()),
		schema.Plain("user_id", p.UserID.String()),
		schema.Plain("kind", p.Kind),
		schema.Plain("message", p.Message),
		schema.Plain("is_read", false),
		schema.Plain("created_at", time.Now().UTC()),
	}
	if p.Entity != "" {
		fields = append(fields, schema.Chain("entity", p.Entity, "entity", "resource_type"))
	}
	if p.EntityID != nil {
		fields = append(fields, schema.Chain("entity_id", p.EntityID.String(), "entity_id", "resource_id"))
	}

	row, err := r.writer.Insert(ctx, TableNotifications, fields)
	if err != nil {
		return Notification{}, apperr.Wrap(apperr.KindInternal, "create in-app notification failed", err).WithOp(opCreate)
	}
	return mapNotification(row), nil
}

// List returns the user's notifications newest first, capped at limit.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error) {
	if r == nil || r.client == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opList)
	}
	if userID == uuid.Nil {
		return nil, apperr.Validation(errUserIDRequired).WithOp(opList)
	}

	rows, err := r.client.Select(ctx, datastore.Query{
		Table:   TableNotifications,
		Filters: []datastore.Filter{datastore.Eq("user_id", userID.String())},
		Order:   []datastore.Order{{Column: "created_at", Desc: true}},
		Limit:   limit,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list notifications failed", err).WithOp(opList)
	}

	items := make([]Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items, nil
}

func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, apperr.Validation(errUserIDRequired).WithOp(opCountUnread)
	}
	rows, err := r.unread(ctx, userID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "count unread notifications failed", err).WithOp(opCountUnread)
	}
	return len(rows), nil
}

func (r *Repository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil || notificationID == uuid.Nil {
		return apperr.Validation("userId and notificationId are required").WithOp(opMarkRead)
	}
	if err := r.owned(ctx, userID, notificationID, opMarkRead); err != nil {
		return err
	}
	if _, err := r.client.Update(ctx, TableNotifications, notificationID.String(), datastore.Row{"is_read": true}); err != nil {
		return apperr.Wrap(apperr.KindInternal, "mark notification read failed", err).WithOp(opMarkRead)
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return apperr.Validation(errUserIDRequired).WithOp(opMarkAllRead)
	}
	rows, err := r.unread(ctx, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "mark all notifications read failed", err).WithOp(opMarkAllRead)
	}
	for _, row := range rows {
		if _, err := r.client.Update(ctx, TableNotifications, row.String("id"), datastore.Row{"is_read": true}); err != nil {
			return apperr.Wrap(apperr.KindInternal, "mark all notifications read failed", err).WithOp(opMarkAllRead)
		}
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := r.owned(ctx, userID, notificationID, opDelete); err != nil {
		return err
	}
	if err := r.client.Delete(ctx, TableNotifications, notificationID.String()); err != nil {
		return apperr.Wrap(apperr.KindInternal, "delete notification failed", err).WithOp(opDelete)
	}
	return nil
}

func (r *Repository) unread(ctx context.Context, userID uuid.UUID) ([]datastore.Row, error) {
	return r.client.Select(ctx, datastore.Query{
		Table: TableNotifications,
		Filters: []datastore.Filter{
			datastore.Eq("user_id", userID.String()),
			datastore.Eq("is_read", false),
		},
	})
}

// owned returns NotFound unless the notification exists and belongs to userID.
func (r *Repository) owned(ctx context.Context, userID, notificationID uuid.UUID, op string) error {
	row, err := datastore.GetByID(ctx, r.client, TableNotifications, notificationID.String())
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "load notification failed", err).WithOp(op)
	}
	if row == nil || row.UUID("user_id") != userID {
		return apperr.NotFound("notification not found").WithOp(op)
	}
	return nil
}

func mapNotification(row datastore.Row) Notification {
	n := Notification{
		ID:        row.UUID("id"),
		UserID:    row.UUID("user_id"),
		Kind:      row.String("kind"),
		Message:   row.String("message"),
		IsRead:    row.Bool("is_read"),
		CreatedAt: row.TimePtr("created_at"),
	}
	if _, column, ok := schema.FirstPresent(row, "entity", "resource_type"); ok {
		n.Entity = row.StringPtr(column)
	}
	if _, column, ok := schema.FirstPresent(row, "entity_id", "resource_id"); ok {
		n.EntityID = row.UUIDPtr(column)
	}
	return n
}
