package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAllowAllAcceptsAnyTransition(t *testing.T) {
	policy := AllowAll{}
	for from := range knownStatuses {
		for to := range knownStatuses {
			if err := policy.Allow(from, to); err != nil {
				t.Fatalf("%s -> %s rejected: %v", from, to, err)
			}
		}
	}
}

func TestStrictPolicy(t *testing.T) {
	policy := NewStrictPolicy(nil)

	if err := policy.Allow(StatusOpen, StatusResolved); err != nil {
		t.Fatalf("open -> resolved should be allowed: %v", err)
	}
	if err := policy.Allow(StatusResolved, StatusResolved); err != nil {
		t.Fatalf("rewriting the same status should be allowed: %v", err)
	}
	err := policy.Allow(StatusCancelled, StatusResolved)
	if !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("cancelled -> resolved should be rejected, got %v", err)
	}
}

func TestPolicyFor(t *testing.T) {
	if _, ok := PolicyFor("strict").(StrictPolicy); !ok {
		t.Fatalf("expected strict policy")
	}
	if _, ok := PolicyFor("any").(AllowAll); !ok {
		t.Fatalf("expected allow-all policy")
	}
}

func TestParseStatus(t *testing.T) {
	if status, err := ParseStatus(" In_Progress "); err != nil || status != StatusInProgress {
		t.Fatalf("expected in_progress, got %s (%v)", status, err)
	}
	if _, err := ParseStatus("closed"); err == nil {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestDeriveCostStatus(t *testing.T) {
	cases := []struct {
		estimated, actual string
		status            CostStatus
		variance, percent string
	}{
		{"500", "0", CostPending, "-500", "-100"},
		{"500", "450", CostOnBudget, "-50", "-10"},
		{"500", "500", CostOnBudget, "0", "0"},
		{"500", "650", CostOverBudget, "150", "30"},
		{"0", "120", CostOverBudget, "120", "0"},
		{"0", "0", CostPending, "0", "0"},
	}

	for _, tc := range cases {
		got := DeriveCostStatus(decimal.RequireFromString(tc.estimated), decimal.RequireFromString(tc.actual))
		if got.Status != tc.status {
			t.Fatalf("%s/%s: expected %s, got %s", tc.estimated, tc.actual, tc.status, got.Status)
		}
		if !got.Variance.Equal(decimal.RequireFromString(tc.variance)) {
			t.Fatalf("%s/%s: expected variance %s, got %s", tc.estimated, tc.actual, tc.variance, got.Variance)
		}
		if !got.VariancePercent.Equal(decimal.RequireFromString(tc.percent)) {
			t.Fatalf("%s/%s: expected percent %s, got %s", tc.estimated, tc.actual, tc.percent, got.VariancePercent)
		}
	}
}
