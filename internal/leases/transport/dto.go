package transport

import "github.com/google/uuid"

// CreateLeaseRequest is the request body for creating a lease.
type CreateLeaseRequest struct {
	UnitID          *uuid.UUID  `json:"unitId" validate:"required"`
	StartDate       string      `json:"startDate" validate:"required,isodate"`
	EndDate         string      `json:"endDate" validate:"required,isodate"`
	RentAmount      float64     `json:"rentAmount" validate:"gte=0"`
	DepositAmount   *float64    `json:"depositAmount,omitempty" validate:"omitempty,gte=0"`
	Notes           *string     `json:"notes,omitempty" validate:"omitempty,max=4000"`
	IsDraft         bool        `json:"isDraft"`
	Status          *string     `json:"status,omitempty" validate:"omitempty,max=50"`
	TenantIDs       []uuid.UUID `json:"tenantIds"`
	PrimaryTenantID *uuid.UUID  `json:"primaryTenantId,omitempty"`
}

// UpdateLeaseRequest is the request body for updating a lease. Omitted fields
// are left unchanged; a non-null tenantIds replaces the tenant list.
type UpdateLeaseRequest struct {
	UnitID          *uuid.UUID  `json:"unitId,omitempty"`
	StartDate       *string     `json:"startDate,omitempty" validate:"omitempty,isodate"`
	EndDate         *string     `json:"endDate,omitempty" validate:"omitempty,isodate"`
	RentAmount      *float64    `json:"rentAmount,omitempty" validate:"omitempty,gte=0"`
	DepositAmount   *float64    `json:"depositAmount,omitempty" validate:"omitempty,gte=0"`
	Notes           *string     `json:"notes,omitempty" validate:"omitempty,max=4000"`
	IsDraft         *bool       `json:"isDraft,omitempty"`
	Status          *string     `json:"status,omitempty" validate:"omitempty,max=50"`
	TenantIDs       []uuid.UUID `json:"tenantIds,omitempty"`
	PrimaryTenantID *uuid.UUID  `json:"primaryTenantId,omitempty"`
}

// AttachmentUpload is a file received for a lease.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}
