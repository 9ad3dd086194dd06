package repository

import (
	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/maintenance/domain"
	"property_portal_backend/platform/phone"
)

func (r *Repository) mapRequests(rows []datastore.Row) []RequestView {
	out := make([]RequestView, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.mapRequest(row))
	}
	return out
}

func (r *Repository) mapRequest(row datastore.Row) RequestView {
	view := RequestView{
		ID:            row.UUID("id"),
		Title:         row.String("title"),
		Description:   row.StringPtr("description"),
		Status:        domain.Status(row.String("status")),
		Priority:      row.String("priority"),
		Type:          row.StringPtr("type"),
		PropertyID:    row.UUIDPtr("property_id"),
		UnitID:        row.UUIDPtr("unit_id"),
		RequestedByID: row.UUIDPtr("requested_by_id"),
		AssignedToID:  row.UUIDPtr("assigned_to_id"),
		EstimatedCost: row.Decimal("estimated_cost"),
		ActualCost:    row.Decimal("actual_cost"),
		DueDate:       row.Date("due_date"),
		ResolvedAt:    row.TimePtr("resolved_at"),
		Materials:     jsonList(row, "materials"),
		Equipment:     jsonList(row, "equipment"),
		Tags:          row.StringSlice("tags"),
		CreatedAt:     row.TimePtr("created_at"),
	}

	if property := row.Nested(keyProperty); property != nil {
		view.Property = &PropertyRef{
			ID:      property.UUID("id"),
			Name:    property.String("name"),
			Address: property.StringPtr("address"),
		}
	}
	if unit := row.Nested(keyUnit); unit != nil {
		view.Unit = &UnitRef{ID: unit.UUID("id"), UnitNumber: unit.String("unit_number")}
	}
	if tenant := row.Nested(keyRequester); tenant != nil {
		view.Requester = &RequesterView{
			ID:        tenant.UUID("id"),
			FirstName: tenant.String("first_name"),
			LastName:  tenant.String("last_name"),
			Email:     tenant.StringPtr("email"),
			Phone:     r.phone(tenant),
		}
	}

	if kind := row.String("assigned_to_type"); kind != "" {
		assigneeKind := domain.AssigneeKind(kind)
		view.AssignedToType = &assigneeKind
		view.Assignee = r.mapAssignee(row, assigneeKind)
	}

	view.History = mapHistory(row.NestedList(TableHistory))
	return view
}

func (r *Repository) mapAssignee(row datastore.Row, kind domain.AssigneeKind) *AssigneeView {
	var source datastore.Row
	switch kind {
	case domain.AssigneeTeamMember:
		source = row.Nested(keyTeamMember)
	case domain.AssigneeContact:
		source = row.Nested(keyContact)
	}
	if source == nil {
		return nil
	}

	assignee := &AssigneeView{
		ID:    source.UUID("id"),
		Kind:  kind,
		Name:  source.String("name"),
		Email: source.StringPtr("email"),
		Phone: r.phone(source),
	}
	if kind == domain.AssigneeTeamMember {
		assignee.Role = source.StringPtr("role")
	} else {
		assignee.Company = source.StringPtr("company")
	}
	return assignee
}

func (r *Repository) phone(row datastore.Row) *string {
	raw := row.String("phone")
	if raw == "" {
		return nil
	}
	normalized := phone.NormalizeE164(raw, r.phoneRegion)
	return &normalized
}

func mapHistory(rows []datastore.Row) []domain.StatusHistoryEntry {
	out := make([]domain.StatusHistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry := domain.StatusHistoryEntry{
			ID:            row.UUID("id"),
			RequestID:     row.UUID("request_id"),
			ToStatus:      domain.Status(row.String("to_status")),
			ChangedByID:   row.UUIDPtr("changed_by_id"),
			ChangedByKind: domain.ActorKind(row.String("changed_by_type")),
			Notes:         row.StringPtr("notes"),
		}
		if from := row.String("from_status"); from != "" {
			status := domain.Status(from)
			entry.FromStatus = &status
		}
		if at, ok := row.Time("created_at"); ok {
			entry.CreatedAt = at
		}
		out = append(out, entry)
	}
	return out
}

// jsonList returns a JSON collection column, or an empty list when unset.
func jsonList(row datastore.Row, col string) any {
	value := row.JSON(col)
	if value == nil {
		return []any{}
	}
	return value
}
