package repository

import (
	"time"

	"property_portal_backend/internal/leases/domain"

	"github.com/google/uuid"
)

// Relations written or read by this repository.
const (
	TableLeases      = "leases"
	TableLeaseTenant = "lease_tenants"
	TableTenants     = "tenants"
	TableUnits       = "units"
	TableProperties  = "properties"
	TableAttachments = "lease_attachments"
)

// DepositColumns lists the names the deposit has been stored under, newest first.
var DepositColumns = []string{"deposit_amount", "security_deposit", "deposit"}

// Relations are the tables whose column sets the writer depends on.
var Relations = []string{TableLeases, TableLeaseTenant, TableAttachments}

// PropertyView is the property a unit belongs to.
type PropertyView struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address *string   `json:"address,omitempty"`
	City    *string   `json:"city,omitempty"`
}

// UnitView is the leased unit.
type UnitView struct {
	ID         uuid.UUID     `json:"id"`
	PropertyID *uuid.UUID    `json:"propertyId,omitempty"`
	UnitNumber string        `json:"unitNumber"`
	Bedrooms   *float64      `json:"bedrooms,omitempty"`
	Bathrooms  *float64      `json:"bathrooms,omitempty"`
	MarketRent *float64      `json:"marketRent,omitempty"`
	Property   *PropertyView `json:"property,omitempty"`
}

// TenantView is a tenant on the lease.
type TenantView struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	IsPrimary bool      `json:"isPrimary"`
}

// AttachmentView is a document stored against the lease.
type AttachmentView struct {
	ID        uuid.UUID  `json:"id"`
	LeaseID   uuid.UUID  `json:"leaseId"`
	Name      string     `json:"name"`
	FileURL   string     `json:"fileUrl"`
	FilePath  string     `json:"-"`
	FileType  *string    `json:"fileType,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// LeaseView is a lease with its unit, tenants and attachments. Relations that
// could not be loaded are nil or empty.
type LeaseView struct {
	ID            uuid.UUID        `json:"id"`
	UnitID        *uuid.UUID       `json:"unitId,omitempty"`
	StartDate     string           `json:"startDate"`
	EndDate       string           `json:"endDate"`
	RentAmount    float64          `json:"rentAmount"`
	DepositAmount *float64         `json:"depositAmount,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
	IsDraft       bool             `json:"isDraft"`
	StoredStatus  string           `json:"storedStatus,omitempty"`
	Status        domain.Status    `json:"status"`
	CreatedAt     *time.Time       `json:"createdAt,omitempty"`
	Unit          *UnitView        `json:"unit"`
	Tenants       []TenantView     `json:"tenants"`
	PrimaryTenant *TenantView      `json:"primaryTenant"`
	Attachments   []AttachmentView `json:"attachments"`
}

// Lease returns the fields status derivation needs.
func (v LeaseView) Lease() domain.Lease {
	return domain.Lease{
		IsDraft:   v.IsDraft,
		Status:    v.StoredStatus,
		StartDate: v.StartDate,
		EndDate:   v.EndDate,
	}
}

// LeaseFields carries the lease columns a caller wants written. Nil fields
// are left untouched.
type LeaseFields struct {
	UnitID        *uuid.UUID
	StartDate     *string
	EndDate       *string
	RentAmount    *float64
	DepositAmount *float64
	Notes         *string
	IsDraft       *bool
	Status        *string
}

// AttachmentInput describes an uploaded lease document.
type AttachmentInput struct {
	Name     string
	FileURL  string
	FilePath string
	FileType string
}
