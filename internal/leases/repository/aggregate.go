package repository

import (
	"context"
	"fmt"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/platform/metrics"

	"github.com/google/uuid"
)

const entityLease = "lease"

var (
	orderByCreated = []datastore.Order{{Column: "created_at"}}

	// leaseNesting is the nested row shape both load paths produce.
	leaseNesting = []datastore.Nested{
		{
			Name: "unit", Table: TableUnits, LocalColumn: "unit_id", ForeignColumn: "id",
			Children: []datastore.Nested{
				{Name: "property", Table: TableProperties, LocalColumn: "property_id", ForeignColumn: "id"},
			},
		},
		{
			Name: TableLeaseTenant, Table: TableLeaseTenant, LocalColumn: "id", ForeignColumn: "lease_id",
			Many: true, Order: orderByCreated,
			Children: []datastore.Nested{
				{Name: "tenant", Table: TableTenants, LocalColumn: "tenant_id", ForeignColumn: "id"},
			},
		},
		{
			Name: TableAttachments, Table: TableAttachments, LocalColumn: "id", ForeignColumn: "lease_id",
			Many: true, Order: orderByCreated,
		},
	}
)

// LoadWithRelations fetches the lease, then each relation independently.
// A relation that fails or is empty leaves its field unset; only a failure to
// read the lease itself is returned.
func (r *Repository) LoadWithRelations(ctx context.Context, id uuid.UUID) (*LeaseView, error) {
	row, err := datastore.GetByID(ctx, r.client, TableLeases, id.String())
	if err != nil {
		return nil, fmt.Errorf("load lease: %w", err)
	}
	if row == nil {
		return nil, nil
	}

	r.attachRelations(ctx, row)
	view := r.mapLease(row)
	return &view, nil
}

// LoadAll returns every lease with relations, newest first. It uses a single
// nested fetch when the datastore offers one and falls back to loading each
// lease's relations separately.
func (r *Repository) LoadAll(ctx context.Context) ([]LeaseView, error) {
	query := datastore.Query{Table: TableLeases, Order: []datastore.Order{{Column: "created_at", Desc: true}}}

	if nested, ok := r.client.(datastore.NestedSelector); ok {
		rows, err := nested.SelectNested(ctx, query, leaseNesting)
		if err == nil {
			return r.mapLeases(rows), nil
		}
		r.log.WithContext(ctx).Warn("nested lease fetch failed, loading relations separately", "error", err)
	}

	rows, err := r.client.Select(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list leases: %w", err)
	}
	for _, row := range rows {
		r.attachRelations(ctx, row)
	}
	return r.mapLeases(rows), nil
}

// attachRelations embeds unit, tenant links and attachments into row using
// the same keys as leaseNesting.
func (r *Repository) attachRelations(ctx context.Context, row datastore.Row) {
	leaseID := row.String("id")

	row["unit"] = r.loadUnit(ctx, leaseID, row.String("unit_id"))
	row[TableLeaseTenant] = r.loadTenantLinks(ctx, leaseID)
	row[TableAttachments] = r.loadList(ctx, leaseID, "attachments", datastore.Query{
		Table:   TableAttachments,
		Filters: []datastore.Filter{datastore.Eq("lease_id", leaseID)},
		Order:   orderByCreated,
	})
}

func (r *Repository) loadUnit(ctx context.Context, leaseID, unitID string) datastore.Row {
	if unitID == "" {
		return nil
	}
	unit := r.loadOne(ctx, leaseID, "unit", TableUnits, unitID)
	if unit == nil {
		return nil
	}
	if propertyID := unit.String("property_id"); propertyID != "" {
		unit["property"] = r.loadOne(ctx, leaseID, "property", TableProperties, propertyID)
	}
	return unit
}

// loadTenantLinks returns the join rows with each tenant embedded. When the
// tenant fetch fails the links carry no tenant and map to an empty list.
func (r *Repository) loadTenantLinks(ctx context.Context, leaseID string) []datastore.Row {
	links := r.loadList(ctx, leaseID, "lease_tenants", datastore.Query{
		Table:   TableLeaseTenant,
		Filters: []datastore.Filter{datastore.Eq("lease_id", leaseID)},
		Order:   orderByCreated,
	})
	if len(links) == 0 {
		return links
	}

	ids := make([]string, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.String("tenant_id"))
	}
	tenants := r.loadList(ctx, leaseID, "tenants", datastore.Query{
		Table:   TableTenants,
		Filters: []datastore.Filter{datastore.In("id", ids)},
	})

	byID := make(map[string]datastore.Row, len(tenants))
	for _, tenant := range tenants {
		byID[tenant.String("id")] = tenant
	}
	for _, link := range links {
		if tenant, ok := byID[link.String("tenant_id")]; ok {
			link["tenant"] = tenant
		} else {
			link["tenant"] = nil
		}
	}
	return links
}

func (r *Repository) loadOne(ctx context.Context, leaseID, relation, table, id string) datastore.Row {
	row, err := datastore.GetByID(ctx, r.client, table, id)
	if err != nil || row == nil {
		r.relationMissing(ctx, leaseID, relation, err)
		return nil
	}
	return row
}

func (r *Repository) loadList(ctx context.Context, leaseID, relation string, q datastore.Query) []datastore.Row {
	rows, err := r.client.Select(ctx, q)
	if err != nil {
		r.relationMissing(ctx, leaseID, relation, err)
		return []datastore.Row{}
	}
	return rows
}

func (r *Repository) relationMissing(ctx context.Context, leaseID, relation string, err error) {
	r.log.WithContext(ctx).RelationMissing(entityLease, relation, leaseID, err)
	if err != nil {
		metrics.Get().RelationMisses.WithLabelValues(entityLease, relation).Inc()
	}
}
