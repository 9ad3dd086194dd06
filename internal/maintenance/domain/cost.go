package domain

import "github.com/shopspring/decimal"

// CostStatus compares actual spend to the estimate.
type CostStatus string

const (
	CostPending    CostStatus = "pending"
	CostOnBudget   CostStatus = "on_budget"
	CostOverBudget CostStatus = "over_budget"
)

var hundred = decimal.NewFromInt(100)

// CostSummary is the budget position of a request.
type CostSummary struct {
	Status          CostStatus      `json:"status"`
	Estimated       decimal.Decimal `json:"estimated"`
	Actual          decimal.Decimal `json:"actual"`
	Variance        decimal.Decimal `json:"variance"`
	VariancePercent decimal.Decimal `json:"variancePercent"`
}

// DeriveCostStatus reports pending until money is spent, then on or over
// budget. The variance percentage is 0 when nothing was estimated.
func DeriveCostStatus(estimated, actual decimal.Decimal) CostSummary {
	summary := CostSummary{
		Estimated:       estimated,
		Actual:          actual,
		Variance:        actual.Sub(estimated),
		VariancePercent: decimal.Zero,
	}
	if !estimated.IsZero() {
		summary.VariancePercent = summary.Variance.Div(estimated).Mul(hundred).Round(2)
	}

	switch {
	case actual.IsZero():
		summary.Status = CostPending
	case actual.LessThanOrEqual(estimated):
		summary.Status = CostOnBudget
	default:
		summary.Status = CostOverBudget
	}
	return summary
}
