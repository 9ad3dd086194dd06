package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"property_portal_backend/internal/dashboard/domain"
	"property_portal_backend/internal/dashboard/repository"
	leasedomain "property_portal_backend/internal/leases/domain"
	leaserepo "property_portal_backend/internal/leases/repository"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Section names reported in SectionStatus.
const (
	SectionLeases        = "leases"
	SectionTransactions  = "transactions"
	SectionInspections   = "inspections"
	SectionNotifications = "notifications"
	SectionUnits         = "units"
)

// LeaseLister provides the lease views with relations and derived status.
type LeaseLister interface {
	LoadAll(ctx context.Context) ([]leaserepo.LeaseView, error)
}

// SectionReader provides the flat dashboard sections.
type SectionReader interface {
	RecentTransactions(ctx context.Context, since time.Time) ([]repository.Transaction, error)
	UpcomingInspections(ctx context.Context, today time.Time) ([]repository.Inspection, error)
	UnreadNotifications(ctx context.Context, userID uuid.UUID) ([]repository.Notification, error)
	Units(ctx context.Context) ([]repository.Unit, error)
}

// SectionStatus records whether one section loaded.
type SectionStatus struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Snapshot is the dashboard payload. Sections that failed are empty and
// flagged in Sections.
type Snapshot struct {
	GeneratedAt   time.Time                 `json:"generatedAt"`
	Sections      []SectionStatus           `json:"sections"`
	Leases        []leaserepo.LeaseView     `json:"leases"`
	Transactions  []repository.Transaction  `json:"transactions"`
	Inspections   []repository.Inspection   `json:"inspections"`
	Notifications []repository.Notification `json:"notifications"`
	Units         []repository.Unit         `json:"units"`
	Occupancy     domain.Occupancy          `json:"occupancy"`
	Income        domain.Income             `json:"income"`
	Expiring      []domain.Expiring         `json:"expiringLeases"`
}

// Service assembles dashboard snapshots.
type Service struct {
	leases       LeaseLister
	sections     SectionReader
	log          *logger.Logger
	expiryWindow int
	now          func() time.Time
}

// New creates a dashboard service. expiryWindowDays bounds the lease
// expiration countdown.
func New(leases LeaseLister, sections SectionReader, log *logger.Logger, expiryWindowDays int) *Service {
	return &Service{
		leases:       leases,
		sections:     sections,
		log:          log,
		expiryWindow: expiryWindowDays,
		now:          time.Now,
	}
}

// WithClock overrides the clock used for date windows.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// LoadDashboard runs every section concurrently. A failing section is
// logged, counted and left empty; the snapshot itself never fails.
func (s *Service) LoadDashboard(ctx context.Context, userID uuid.UUID) Snapshot {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	snap := Snapshot{
		GeneratedAt:   now,
		Leases:        []leaserepo.LeaseView{},
		Transactions:  []repository.Transaction{},
		Inspections:   []repository.Inspection{},
		Notifications: []repository.Notification{},
		Units:         []repository.Unit{},
		Expiring:      []domain.Expiring{},
	}

	var (
		mu       sync.Mutex
		statuses = make(map[string]SectionStatus, 5)
	)
	record := func(name string, err error) {
		status := SectionStatus{Name: name, OK: err == nil}
		if err != nil {
			status.Error = err.Error()
			s.log.WithContext(ctx).Warn("dashboard section failed", "section", name, "error", err)
			metrics.Get().DashboardFailures.WithLabelValues(name).Inc()
		}
		mu.Lock()
		statuses[name] = status
		mu.Unlock()
	}

	// Sections run on a plain group so one failure does not cancel the rest.
	var g errgroup.Group
	g.Go(func() error {
		leases, err := s.leases.LoadAll(ctx)
		if err == nil && leases != nil {
			snap.Leases = leases
		}
		record(SectionLeases, err)
		return nil
	})
	g.Go(func() error {
		txs, err := s.sections.RecentTransactions(ctx, today.Add(-domain.RecentWindow))
		if err == nil && txs != nil {
			snap.Transactions = txs
		}
		record(SectionTransactions, err)
		return nil
	})
	g.Go(func() error {
		inspections, err := s.sections.UpcomingInspections(ctx, today)
		if err == nil && inspections != nil {
			snap.Inspections = inspections
		}
		record(SectionInspections, err)
		return nil
	})
	g.Go(func() error {
		notes, err := s.sections.UnreadNotifications(ctx, userID)
		if err == nil && notes != nil {
			snap.Notifications = notes
		}
		record(SectionNotifications, err)
		return nil
	})
	g.Go(func() error {
		units, err := s.sections.Units(ctx)
		if err == nil && units != nil {
			snap.Units = units
		}
		record(SectionUnits, err)
		return nil
	})
	_ = g.Wait()

	for _, name := range []string{SectionLeases, SectionTransactions, SectionInspections, SectionNotifications, SectionUnits} {
		snap.Sections = append(snap.Sections, statuses[name])
	}

	snap.Occupancy = occupancy(snap.Units, snap.Leases)
	snap.Income = income(snap.Transactions)
	snap.Expiring = s.expiring(snap.Leases, today)
	return snap
}

func occupancy(units []repository.Unit, leases []leaserepo.LeaseView) domain.Occupancy {
	occupied := make(map[string]bool, len(leases))
	for _, lease := range leases {
		if lease.Status == leasedomain.StatusActive && lease.UnitID != nil {
			occupied[lease.UnitID.String()] = true
		}
	}
	ids := make([]string, 0, len(units))
	for _, unit := range units {
		ids = append(ids, unit.ID.String())
	}
	return domain.ComputeOccupancy(ids, occupied)
}

func income(txs []repository.Transaction) domain.Income {
	entries := make([]domain.Entry, 0, len(txs))
	for _, tx := range txs {
		entries = append(entries, domain.Entry{Type: tx.Type, Amount: tx.Amount})
	}
	return domain.ComputeIncome(entries, repository.TransactionIncome, repository.TransactionExpense)
}

func (s *Service) expiring(leases []leaserepo.LeaseView, today time.Time) []domain.Expiring {
	out := make([]domain.Expiring, 0)
	for _, lease := range leases {
		if lease.Status != leasedomain.StatusActive {
			continue
		}
		days, ok := leasedomain.DaysUntil(lease.EndDate, today)
		if !ok || !domain.WithinWindow(days, s.expiryWindow) {
			continue
		}

		item := domain.Expiring{
			LeaseID:       lease.ID.String(),
			EndDate:       lease.EndDate,
			DaysRemaining: days,
		}
		if lease.Unit != nil {
			item.UnitNumber = lease.Unit.UnitNumber
		}
		if lease.PrimaryTenant != nil {
			item.TenantName = strings.TrimSpace(lease.PrimaryTenant.FirstName + " " + lease.PrimaryTenant.LastName)
		}
		out = append(out, item)
	}
	domain.SortExpiring(out)
	return out
}
