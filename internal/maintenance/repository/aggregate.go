package repository

import (
	"context"
	"fmt"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/maintenance/domain"
	"property_portal_backend/platform/metrics"

	"github.com/google/uuid"
)

const (
	entityRequest = "maintenance_request"

	keyProperty   = "property"
	keyUnit       = "unit"
	keyRequester  = "requester"
	keyTeamMember = "assignee_team_member"
	keyContact    = "assignee_contact"
)

// requestNesting is the nested row shape both load paths produce. Both
// assignee tables are embedded; the mapper picks one by assigned_to_type.
var requestNesting = []datastore.Nested{
	{Name: keyProperty, Table: TableProperties, LocalColumn: "property_id", ForeignColumn: "id"},
	{Name: keyUnit, Table: TableUnits, LocalColumn: "unit_id", ForeignColumn: "id"},
	{Name: keyRequester, Table: TableTenants, LocalColumn: "requested_by_id", ForeignColumn: "id"},
	{Name: keyTeamMember, Table: TableTeamMembers, LocalColumn: "assigned_to_id", ForeignColumn: "id"},
	{Name: keyContact, Table: TableContacts, LocalColumn: "assigned_to_id", ForeignColumn: "id"},
	{
		Name: TableHistory, Table: TableHistory, LocalColumn: "id", ForeignColumn: "request_id",
		Many: true, Order: historyOrder,
	},
}

// historyOrder breaks created_at ties by insertion sequence, so the last
// entry always carries the current status.
var historyOrder = []datastore.Order{{Column: "created_at"}, {Column: "seq"}}

func historyQuery(requestID string) datastore.Query {
	return datastore.Query{
		Table:   TableHistory,
		Filters: []datastore.Filter{datastore.Eq("request_id", requestID)},
		Order:   historyOrder,
	}
}

// LoadWithRelations fetches the request, then each relation independently.
// Relation failures are logged and leave the field empty.
func (r *Repository) LoadWithRelations(ctx context.Context, id uuid.UUID) (*RequestView, error) {
	row, err := datastore.GetByID(ctx, r.client, TableRequests, id.String())
	if err != nil {
		return nil, fmt.Errorf("load maintenance request: %w", err)
	}
	if row == nil {
		return nil, nil
	}

	r.attachRelations(ctx, row)
	view := r.mapRequest(row)
	return &view, nil
}

// List returns matching requests with relations, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]RequestView, error) {
	query := datastore.Query{
		Table: TableRequests,
		Order: []datastore.Order{{Column: "created_at", Desc: true}},
	}
	if filter.Status != nil {
		query.Filters = append(query.Filters, datastore.Eq("status", string(*filter.Status)))
	}
	if filter.PropertyID != nil {
		query.Filters = append(query.Filters, datastore.Eq("property_id", filter.PropertyID.String()))
	}

	if nested, ok := r.client.(datastore.NestedSelector); ok {
		rows, err := nested.SelectNested(ctx, query, requestNesting)
		if err == nil {
			return r.mapRequests(rows), nil
		}
		r.log.WithContext(ctx).Warn("nested maintenance fetch failed, loading relations separately", "error", err)
	}

	rows, err := r.client.Select(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list maintenance requests: %w", err)
	}
	for _, row := range rows {
		r.attachRelations(ctx, row)
	}
	return r.mapRequests(rows), nil
}

func (r *Repository) attachRelations(ctx context.Context, row datastore.Row) {
	requestID := row.String("id")

	row[keyProperty] = r.loadOne(ctx, requestID, keyProperty, TableProperties, row.String("property_id"))
	row[keyUnit] = r.loadOne(ctx, requestID, keyUnit, TableUnits, row.String("unit_id"))
	row[keyRequester] = r.loadOne(ctx, requestID, keyRequester, TableTenants, row.String("requested_by_id"))

	assigneeID := row.String("assigned_to_id")
	switch domain.AssigneeKind(row.String("assigned_to_type")) {
	case domain.AssigneeTeamMember:
		row[keyTeamMember] = r.loadOne(ctx, requestID, "assignee", TableTeamMembers, assigneeID)
	case domain.AssigneeContact:
		row[keyContact] = r.loadOne(ctx, requestID, "assignee", TableContacts, assigneeID)
	}

	history, err := r.client.Select(ctx, historyQuery(requestID))
	if err != nil {
		r.relationMissing(ctx, requestID, "history", err)
		history = []datastore.Row{}
	}
	row[TableHistory] = history
}

func (r *Repository) loadOne(ctx context.Context, requestID, relation, table, id string) datastore.Row {
	if id == "" {
		return nil
	}
	row, err := datastore.GetByID(ctx, r.client, table, id)
	if err != nil || row == nil {
		r.relationMissing(ctx, requestID, relation, err)
		return nil
	}
	return row
}

func (r *Repository) relationMissing(ctx context.Context, requestID, relation string, err error) {
	r.log.WithContext(ctx).RelationMissing(entityRequest, relation, requestID, err)
	if err != nil {
		metrics.Get().RelationMisses.WithLabelValues(entityRequest, relation).Inc()
	}
}
