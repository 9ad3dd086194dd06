package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Relations read by the dashboard.
const (
	TableTransactions  = "transactions"
	TableInspections   = "inspections"
	TableNotifications = "notifications"
	TableUnits         = "units"
)

// Transaction types counted as income and expense.
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Transaction is a ledger row.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	PropertyID  *uuid.UUID      `json:"propertyId,omitempty"`
	LeaseID     *uuid.UUID      `json:"leaseId,omitempty"`
	Type        string          `json:"type"`
	Category    *string         `json:"category,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description,omitempty"`
	Date        string          `json:"date"`
}

// Inspection is a scheduled property or unit inspection.
type Inspection struct {
	ID             uuid.UUID  `json:"id"`
	PropertyID     *uuid.UUID `json:"propertyId,omitempty"`
	UnitID         *uuid.UUID `json:"unitId,omitempty"`
	InspectionType *string    `json:"inspectionType,omitempty"`
	Status         string     `json:"status"`
	ScheduledDate  string     `json:"scheduledDate"`
}

// Notification is an unread in-app notification.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	Kind      string     `json:"kind"`
	Message   string     `json:"message"`
	Entity    *string    `json:"entity,omitempty"`
	EntityID  *uuid.UUID `json:"entityId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Unit is a rentable unit.
type Unit struct {
	ID         uuid.UUID  `json:"id"`
	PropertyID *uuid.UUID `json:"propertyId,omitempty"`
	UnitNumber string     `json:"unitNumber"`
	MarketRent *float64   `json:"marketRent,omitempty"`
}
