package domain

import (
	"errors"

	"github.com/google/uuid"
)

// ErrFinalizedWithoutTenant is returned when a non-draft lease has no tenants.
var ErrFinalizedWithoutTenant = errors.New("a finalized lease needs at least one tenant")

// TenantLink is one row of the lease/tenant join.
type TenantLink struct {
	TenantID  uuid.UUID
	IsPrimary bool
}

// LinkTenants builds join rows with exactly one primary tenant. primary wins
// when it is among tenantIDs, otherwise the first tenant is primary.
// Duplicate IDs are dropped.
func LinkTenants(tenantIDs []uuid.UUID, primary *uuid.UUID) []TenantLink {
	links := make([]TenantLink, 0, len(tenantIDs))
	seen := make(map[uuid.UUID]bool, len(tenantIDs))
	primaryIndex := 0

	for _, id := range tenantIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if primary != nil && *primary == id {
			primaryIndex = len(links)
		}
		links = append(links, TenantLink{TenantID: id})
	}
	if len(links) > 0 {
		links[primaryIndex].IsPrimary = true
	}
	return links
}

// CheckTenants enforces that only drafts may be saved without tenants.
func CheckTenants(isDraft bool, tenantCount int) error {
	if !isDraft && tenantCount == 0 {
		return ErrFinalizedWithoutTenant
	}
	return nil
}
