package service

import (
	"context"
	"time"

	"property_portal_backend/internal/events"
	"property_portal_backend/internal/maintenance/domain"
	"property_portal_backend/internal/maintenance/repository"
	"property_portal_backend/internal/maintenance/transport"
	"property_portal_backend/platform/apperr"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	errRequestNotFound  = "maintenance request not found"
	errAssigneeMismatch = "assignedToId and assignedToType must be given together"
	errNegativeCost     = "costs must not be negative"
	errTransitionDenied = "status transition not allowed"
)

// HistoryRetrier re-attempts history entries that could not be written
// together with their status change.
type HistoryRetrier interface {
	EnqueueHistoryAppend(ctx context.Context, entry domain.StatusHistoryEntry) error
}

// Service provides business logic for maintenance requests
type Service struct {
	repo     repository.RequestRepository
	policy   domain.TransitionPolicy
	retrier  HistoryRetrier
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new maintenance service. retrier may be nil; audit gaps are
// then only logged and counted.
func New(repo repository.RequestRepository, policy domain.TransitionPolicy, retrier HistoryRetrier, eventBus events.Bus, log *logger.Logger) *Service {
	if policy == nil {
		policy = domain.AllowAll{}
	}
	return &Service{
		repo:     repo,
		policy:   policy,
		retrier:  retrier,
		eventBus: eventBus,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the clock used for transition timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List returns requests matching filter.
func (s *Service) List(ctx context.Context, filter repository.ListFilter) ([]repository.RequestView, error) {
	return s.repo.List(ctx, filter)
}

// Get returns one request with its relations.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.RequestView, error) {
	view, err := s.repo.LoadWithRelations(ctx, id)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, apperr.NotFound(errRequestNotFound)
	}
	return view, nil
}

// Create stores a new open request with its first history entry.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, req transport.CreateRequest) (*repository.RequestView, error) {
	if err := checkAssignee(req.AssignedToID, req.AssignedToType); err != nil {
		return nil, err
	}
	if err := checkCosts(req.EstimatedCost, nil); err != nil {
		return nil, err
	}

	title := sanitize.Text(req.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}

	id, err := s.repo.Create(ctx, repository.RequestFields{
		Title:          &title,
		Description:    sanitize.TextPtr(req.Description),
		Priority:       req.Priority,
		Type:           req.Type,
		PropertyID:     req.PropertyID,
		UnitID:         req.UnitID,
		RequestedByID:  req.RequestedByID,
		AssignedToID:   req.AssignedToID,
		AssignedToType: assigneeKind(req.AssignedToType),
		EstimatedCost:  req.EstimatedCost,
		DueDate:        req.DueDate,
		Materials:      req.Materials,
		Equipment:      req.Equipment,
		Tags:           sanitize.Labels(req.Tags),
	}, domain.UserActor(actorID))
	if gap, ok := repository.AsAuditGap(err); ok {
		s.auditGap(ctx, gap)
		err = nil
	}
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, events.MaintenanceRequestCreated{
		BaseEvent: events.NewBaseEvent(),
		RequestID: id,
		Title:     title,
		ActorID:   actorID,
	})
	return s.Get(ctx, id)
}

// Update writes the supplied fields. It never touches status.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateRequest) (*repository.RequestView, error) {
	if err := checkAssignee(req.AssignedToID, req.AssignedToType); err != nil {
		return nil, err
	}
	if err := checkCosts(req.EstimatedCost, req.ActualCost); err != nil {
		return nil, err
	}

	title := sanitize.TextPtr(req.Title)
	if title != nil && *title == "" {
		return nil, apperr.Validation("title is required")
	}

	err := s.repo.Update(ctx, id, repository.RequestFields{
		Title:          title,
		Description:    sanitize.TextPtr(req.Description),
		Priority:       req.Priority,
		Type:           req.Type,
		PropertyID:     req.PropertyID,
		UnitID:         req.UnitID,
		AssignedToID:   req.AssignedToID,
		AssignedToType: assigneeKind(req.AssignedToType),
		EstimatedCost:  req.EstimatedCost,
		ActualCost:     req.ActualCost,
		DueDate:        req.DueDate,
		Materials:      req.Materials,
		Equipment:      req.Equipment,
		Tags:           sanitize.Labels(req.Tags),
	})
	if repository.IsNotFound(err) {
		return nil, apperr.NotFound(errRequestNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the request and its history.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	status, err := s.repo.CurrentStatus(ctx, id)
	if err != nil {
		return err
	}
	if status == "" {
		return apperr.NotFound(errRequestNotFound)
	}
	return s.repo.Delete(ctx, id)
}

// History returns the request's status history, oldest first.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]domain.StatusHistoryEntry, error) {
	status, err := s.repo.CurrentStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return nil, apperr.NotFound(errRequestNotFound)
	}
	return s.repo.History(ctx, id)
}

// Cost returns the request's budget position.
func (s *Service) Cost(ctx context.Context, id uuid.UUID) (domain.CostSummary, error) {
	view, err := s.Get(ctx, id)
	if err != nil {
		return domain.CostSummary{}, err
	}
	return domain.DeriveCostStatus(view.EstimatedCost, view.ActualCost), nil
}

func checkAssignee(id *uuid.UUID, kind *string) error {
	if (id == nil) != (kind == nil) {
		return apperr.Validation(errAssigneeMismatch)
	}
	return nil
}

func checkCosts(costs ...*decimal.Decimal) error {
	for _, cost := range costs {
		if cost != nil && cost.IsNegative() {
			return apperr.Validation(errNegativeCost)
		}
	}
	return nil
}

func assigneeKind(kind *string) *domain.AssigneeKind {
	if kind == nil {
		return nil
	}
	k := domain.AssigneeKind(*kind)
	return &k
}
