// Package repository reads the flat dashboard sections.
package repository

import (
	"context"
	"fmt"
	"time"

	"property_portal_backend/internal/datastore"

	"github.com/google/uuid"
)

// notificationLimit caps the unread notifications shown on the dashboard.
const notificationLimit = 20

// Repository reads dashboard sections through the generic datastore client.
type Repository struct {
	client datastore.Client
}

// New creates a dashboard repository.
func New(client datastore.Client) *Repository {
	return &Repository{client: client}
}

// RecentTransactions returns transactions dated on or after since, newest first.
func (r *Repository) RecentTransactions(ctx context.Context, since time.Time) ([]Transaction, error) {
	rows, err := r.client.Select(ctx, datastore.Query{
		Table:   TableTransactions,
		Filters: []datastore.Filter{datastore.Gte("date", since.Format(datastore.DateLayout))},
		Order:   []datastore.Order{{Column: "date", Desc: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, Transaction{
			ID:          row.UUID("id"),
			PropertyID:  row.UUIDPtr("property_id"),
			LeaseID:     row.UUIDPtr("lease_id"),
			Type:        row.String("type"),
			Category:    row.StringPtr("category"),
			Amount:      row.Decimal("amount"),
			Description: row.StringPtr("description"),
			Date:        row.Date("date"),
		})
	}
	return out, nil
}

// UpcomingInspections returns scheduled inspections from today on, soonest first.
func (r *Repository) UpcomingInspections(ctx context.Context, today time.Time) ([]Inspection, error) {
	rows, err := r.client.Select(ctx, datastore.Query{
		Table: TableInspections,
		Filters: []datastore.Filter{
			datastore.Gte("scheduled_date", today.Format(datastore.DateLayout)),
			datastore.Eq("status", "scheduled"),
		},
		Order: []datastore.Order{{Column: "scheduled_date"}},
	})
	if err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}

	out := make([]Inspection, 0, len(rows))
	for _, row := range rows {
		out = append(out, Inspection{
			ID:             row.UUID("id"),
			PropertyID:     row.UUIDPtr("property_id"),
			UnitID:         row.UUIDPtr("unit_id"),
			InspectionType: row.StringPtr("inspection_type"),
			Status:         row.String("status"),
			ScheduledDate:  row.Date("scheduled_date"),
		})
	}
	return out, nil
}

// UnreadNotifications returns the user's newest unread notifications.
func (r *Repository) UnreadNotifications(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	rows, err := r.client.Select(ctx, datastore.Query{
		Table: TableNotifications,
		Filters: []datastore.Filter{
			datastore.Eq("user_id", userID.String()),
			datastore.Eq("is_read", false),
		},
		Order: []datastore.Order{{Column: "created_at", Desc: true}},
		Limit: notificationLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	out := make([]Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, Notification{
			ID:        row.UUID("id"),
			Kind:      row.String("kind"),
			Message:   row.String("message"),
			Entity:    row.StringPtr("entity"),
			EntityID:  row.UUIDPtr("entity_id"),
			CreatedAt: row.TimePtr("created_at"),
		})
	}
	return out, nil
}

// Units returns every unit.
func (r *Repository) Units(ctx context.Context) ([]Unit, error) {
	rows, err := r.client.Select(ctx, datastore.Query{
		Table: TableUnits,
		Order: []datastore.Order{{Column: "unit_number"}},
	})
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}

	out := make([]Unit, 0, len(rows))
	for _, row := range rows {
		out = append(out, Unit{
			ID:         row.UUID("id"),
			PropertyID: row.UUIDPtr("property_id"),
			UnitNumber: row.String("unit_number"),
			MarketRent: row.FloatPtr("market_rent"),
		})
	}
	return out, nil
}
