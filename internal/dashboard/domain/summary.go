// Package domain holds the figures derived from dashboard sections.
package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Occupancy is the share of units under an active lease.
type Occupancy struct {
	TotalUnits    int             `json:"totalUnits"`
	OccupiedUnits int             `json:"occupiedUnits"`
	Rate          decimal.Decimal `json:"rate"`
}

// ComputeOccupancy counts units in unitIDs that appear in occupied. The rate
// is a percentage rounded to one decimal, 0 without units.
func ComputeOccupancy(unitIDs []string, occupied map[string]bool) Occupancy {
	result := Occupancy{TotalUnits: len(unitIDs), Rate: decimal.Zero}
	for _, id := range unitIDs {
		if occupied[id] {
			result.OccupiedUnits++
		}
	}
	if result.TotalUnits > 0 {
		result.Rate = decimal.NewFromInt(int64(result.OccupiedUnits)).
			Div(decimal.NewFromInt(int64(result.TotalUnits))).
			Mul(hundred).
			Round(1)
	}
	return result
}

// Income sums income and expense amounts.
type Income struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// Entry is a typed amount.
type Entry struct {
	Type   string
	Amount decimal.Decimal
}

// ComputeIncome totals entries by type. Types other than income and expense
// are ignored.
func ComputeIncome(entries []Entry, incomeType, expenseType string) Income {
	result := Income{Income: decimal.Zero, Expense: decimal.Zero}
	for _, e := range entries {
		switch e.Type {
		case incomeType:
			result.Income = result.Income.Add(e.Amount)
		case expenseType:
			result.Expense = result.Expense.Add(e.Amount.Abs())
		}
	}
	result.Net = result.Income.Sub(result.Expense)
	return result
}

// Expiring is an active lease ending soon.
type Expiring struct {
	LeaseID       string `json:"leaseId"`
	UnitNumber    string `json:"unitNumber,omitempty"`
	TenantName    string `json:"tenantName,omitempty"`
	EndDate       string `json:"endDate"`
	DaysRemaining int    `json:"daysRemaining"`
}

// SortExpiring orders by days remaining, then lease id for stable output.
func SortExpiring(items []Expiring) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DaysRemaining != items[j].DaysRemaining {
			return items[i].DaysRemaining < items[j].DaysRemaining
		}
		return items[i].LeaseID < items[j].LeaseID
	})
}

// WithinWindow reports whether days falls in [0, window].
func WithinWindow(days, window int) bool {
	return days >= 0 && days <= window
}

// RecentWindow is how far back the income figures reach.
const RecentWindow = 30 * 24 * time.Hour
