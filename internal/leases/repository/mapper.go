package repository

import (
	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/leases/domain"
	"property_portal_backend/internal/schema"
	"property_portal_backend/platform/phone"
)

func (r *Repository) mapLeases(rows []datastore.Row) []LeaseView {
	out := make([]LeaseView, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.mapLease(row))
	}
	return out
}

// mapLease turns a nested lease row into its view and derives the status.
func (r *Repository) mapLease(row datastore.Row) LeaseView {
	view := LeaseView{
		ID:           row.UUID("id"),
		UnitID:       row.UUIDPtr("unit_id"),
		StartDate:    row.Date("start_date"),
		EndDate:      row.Date("end_date"),
		RentAmount:   row.Float("rent_amount"),
		Notes:        row.StringPtr("notes"),
		IsDraft:      row.Bool("is_draft"),
		StoredStatus: row.String("status"),
		CreatedAt:    row.TimePtr("created_at"),
		Tenants:      make([]TenantView, 0),
		Attachments:  make([]AttachmentView, 0),
	}

	if _, column, ok := schema.FirstPresent(row, DepositColumns...); ok {
		view.DepositAmount = row.FloatPtr(column)
	}
	if unit := row.Nested("unit"); unit != nil {
		view.Unit = mapUnit(unit)
	}

	for _, link := range row.NestedList(TableLeaseTenant) {
		tenant := link.Nested("tenant")
		if tenant == nil {
			continue
		}
		view.Tenants = append(view.Tenants, r.mapTenant(tenant, link.Bool("is_primary")))
	}
	view.PrimaryTenant = primaryTenant(view.Tenants)

	for _, attachment := range row.NestedList(TableAttachments) {
		view.Attachments = append(view.Attachments, mapAttachment(attachment))
	}

	view.Status = domain.DeriveLeaseStatus(view.Lease(), r.now())
	return view
}

// primaryTenant is the flagged tenant, else the first one.
func primaryTenant(tenants []TenantView) *TenantView {
	if len(tenants) == 0 {
		return nil
	}
	for i := range tenants {
		if tenants[i].IsPrimary {
			primary := tenants[i]
			return &primary
		}
	}
	primary := tenants[0]
	return &primary
}

func mapUnit(row datastore.Row) *UnitView {
	unit := &UnitView{
		ID:         row.UUID("id"),
		PropertyID: row.UUIDPtr("property_id"),
		UnitNumber: row.String("unit_number"),
		Bedrooms:   row.FloatPtr("bedrooms"),
		Bathrooms:  row.FloatPtr("bathrooms"),
		MarketRent: row.FloatPtr("market_rent"),
	}
	if property := row.Nested("property"); property != nil {
		unit.Property = &PropertyView{
			ID:      property.UUID("id"),
			Name:    property.String("name"),
			Address: property.StringPtr("address"),
			City:    property.StringPtr("city"),
		}
	}
	return unit
}

func (r *Repository) mapTenant(row datastore.Row, isPrimary bool) TenantView {
	tenant := TenantView{
		ID:        row.UUID("id"),
		FirstName: row.String("first_name"),
		LastName:  row.String("last_name"),
		Email:     row.StringPtr("email"),
		IsPrimary: isPrimary,
	}
	if raw := row.String("phone"); raw != "" {
		normalized := phone.NormalizeE164(raw, r.phoneRegion)
		tenant.Phone = &normalized
	}
	return tenant
}

func mapAttachment(row datastore.Row) AttachmentView {
	return AttachmentView{
		ID:        row.UUID("id"),
		LeaseID:   row.UUID("lease_id"),
		Name:      row.String("name"),
		FileURL:   row.String("file_url"),
		FilePath:  row.String("file_path"),
		FileType:  row.StringPtr("file_type"),
		CreatedAt: row.TimePtr("created_at"),
	}
}
