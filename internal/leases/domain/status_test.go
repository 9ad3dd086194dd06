package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDeriveLeaseStatusFromDates(t *testing.T) {
	lease := Lease{StartDate: "2024-01-01", EndDate: "2024-12-31"}
	cases := map[string]Status{
		"2024-06-15": StatusActive,
		"2025-01-01": StatusExpired,
		"2023-01-01": StatusUpcoming,
		"2024-01-01": StatusActive,
		"2024-12-31": StatusActive,
	}
	for today, want := range cases {
		if got := DeriveLeaseStatus(lease, day(today)); got != want {
			t.Fatalf("today %s: expected %s, got %s", today, want, got)
		}
	}
}

func TestDeriveLeaseStatusDraftWins(t *testing.T) {
	for _, stored := range []string{"", "active", "expired", "unknown", "terminated"} {
		lease := Lease{IsDraft: true, Status: stored, StartDate: "2020-01-01", EndDate: "2020-12-31"}
		if got := DeriveLeaseStatus(lease, day("2024-06-15")); got != StatusDraft {
			t.Fatalf("stored %q: expected draft, got %s", stored, got)
		}
	}
}

func TestDeriveLeaseStatusStoredStatusWins(t *testing.T) {
	for _, stored := range []string{"active", "expired", "terminated", "month_to_month"} {
		lease := Lease{Status: stored, StartDate: "2030-01-01", EndDate: "2030-12-31"}
		if got := DeriveLeaseStatus(lease, day("2024-06-15")); got != Status(stored) {
			t.Fatalf("expected stored status %q, got %s", stored, got)
		}
	}
}

func TestDeriveLeaseStatusUnknownSentinelFallsThrough(t *testing.T) {
	lease := Lease{Status: "unknown", StartDate: "2024-01-01", EndDate: "2024-12-31"}
	if got := DeriveLeaseStatus(lease, day("2024-06-15")); got != StatusActive {
		t.Fatalf("expected derived active, got %s", got)
	}
}

func TestDeriveLeaseStatusUnparsableDates(t *testing.T) {
	cases := []Lease{
		{StartDate: "", EndDate: "2024-12-31"},
		{StartDate: "2024-01-01", EndDate: "someday"},
		{},
	}
	for _, lease := range cases {
		if got := DeriveLeaseStatus(lease, day("2024-06-15")); got != StatusUnknown {
			t.Fatalf("lease %+v: expected unknown, got %s", lease, got)
		}
	}
}

func TestDeriveLeaseStatusIgnoresTimeOfDay(t *testing.T) {
	lease := Lease{StartDate: "2024-01-01T00:00:00Z", EndDate: "2024-12-31"}
	lateEvening := time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)
	if got := DeriveLeaseStatus(lease, lateEvening); got != StatusActive {
		t.Fatalf("expected active on the final day, got %s", got)
	}
}

func TestDaysUntil(t *testing.T) {
	days, ok := DaysUntil("2024-07-15", day("2024-06-15"))
	if !ok || days != 30 {
		t.Fatalf("expected 30 days, got %d (%v)", days, ok)
	}
}

func TestLinkTenantsMarksExactlyOnePrimary(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	links := LinkTenants([]uuid.UUID{a, b, a}, &b)
	if len(links) != 2 {
		t.Fatalf("expected duplicates dropped, got %d links", len(links))
	}
	if links[0].IsPrimary || !links[1].IsPrimary {
		t.Fatalf("expected requested tenant to be primary, got %+v", links)
	}

	links = LinkTenants([]uuid.UUID{a, b}, nil)
	if !links[0].IsPrimary || links[1].IsPrimary {
		t.Fatalf("expected first tenant primary by default, got %+v", links)
	}

	if len(LinkTenants(nil, nil)) != 0 {
		t.Fatalf("expected no links")
	}
}

func TestCheckTenants(t *testing.T) {
	if err := CheckTenants(true, 0); err != nil {
		t.Fatalf("drafts may have no tenants: %v", err)
	}
	if err := CheckTenants(false, 0); err != ErrFinalizedWithoutTenant {
		t.Fatalf("expected ErrFinalizedWithoutTenant, got %v", err)
	}
}
