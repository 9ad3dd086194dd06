// Package domain provides core business rules for the leases bounded context.
package domain

import (
	"time"

	"property_portal_backend/internal/datastore"
)

// Status is a lease's effective lifecycle status.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusUnknown  Status = "unknown"
)

// Lease holds the stored fields status derivation reads.
type Lease struct {
	IsDraft   bool
	Status    string
	StartDate string
	EndDate   string
}

// DeriveLeaseStatus returns the effective status of lease on today.
// A draft is always draft. A stored status other than unknown is returned
// unchanged. Otherwise the dates decide, compared by calendar day; leases
// whose dates do not parse are unknown.
func DeriveLeaseStatus(lease Lease, today time.Time) Status {
	if lease.IsDraft {
		return StatusDraft
	}
	if lease.Status != "" && Status(lease.Status) != StatusUnknown {
		return Status(lease.Status)
	}

	start, okStart := CalendarDay(lease.StartDate)
	end, okEnd := CalendarDay(lease.EndDate)
	if !okStart || !okEnd {
		return StatusUnknown
	}

	day := truncateDay(today)
	switch {
	case start.After(day):
		return StatusUpcoming
	case end.Before(day):
		return StatusExpired
	default:
		return StatusActive
	}
}

// DaysUntil returns whole calendar days from today until date.
func DaysUntil(date string, today time.Time) (int, bool) {
	day, ok := CalendarDay(date)
	if !ok {
		return 0, false
	}
	return int(day.Sub(truncateDay(today)).Hours() / 24), true
}

// CalendarDay parses a date or timestamp and keeps only its calendar day.
func CalendarDay(value string) (time.Time, bool) {
	t, ok := datastore.ParseTime(value)
	if !ok {
		return time.Time{}, false
	}
	return truncateDay(t), true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
