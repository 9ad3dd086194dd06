package service

import (
	"context"

	"property_portal_backend/internal/events"
	"property_portal_backend/internal/maintenance/domain"
	"property_portal_backend/internal/maintenance/repository"
	"property_portal_backend/platform/apperr"
	"property_portal_backend/platform/metrics"
	"property_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Transition moves a request to status to on behalf of actor. Rewriting the
// current status stores it again without a history entry. A history entry
// that cannot be written alongside the status is logged, counted and handed
// to the retrier; the transition still succeeds.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, to domain.Status, actor domain.Actor, note *string) (*repository.RequestView, error) {
	from, err := s.repo.CurrentStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if from == "" {
		return nil, apperr.NotFound(errRequestNotFound)
	}
	if err := s.policy.Allow(from, to); err != nil {
		return nil, apperr.Wrap(apperr.KindConflict, errTransitionDenied, err).
			WithOp("maintenance.service.transition").
			WithDetails(map[string]string{"from": string(from), "to": string(to)})
	}

	changed := from != to
	err = s.repo.ApplyTransition(ctx, repository.Transition{
		RequestID: id,
		From:      from,
		To:        to,
		Actor:     actor,
		Note:      sanitize.TextPtr(note),
		At:        s.now().UTC(),
		Record:    changed,
	})
	gap, auditGap := repository.AsAuditGap(err)
	if auditGap {
		s.auditGap(ctx, gap)
		err = nil
	}
	if repository.IsNotFound(err) {
		return nil, apperr.NotFound(errRequestNotFound)
	}
	if err != nil {
		return nil, err
	}

	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		metrics.Get().Transitions.WithLabelValues(string(to)).Inc()
		s.eventBus.Publish(ctx, events.MaintenanceStatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			RequestID:  id,
			FromStatus: string(from),
			ToStatus:   string(to),
			ActorID:    actor.ID,
			AssigneeID: view.AssignedToID,
			AuditGap:   auditGap,
		})
	}
	return view, nil
}

func (s *Service) auditGap(ctx context.Context, gap *repository.AuditGapError) {
	from := ""
	if gap.Entry.FromStatus != nil {
		from = string(*gap.Entry.FromStatus)
	}
	log := s.log.WithContext(ctx)
	log.AuditGap(gap.Entry.RequestID.String(), from, string(gap.Entry.ToStatus), gap.Err)
	metrics.Get().AuditGaps.Inc()

	if s.retrier == nil {
		return
	}
	if err := s.retrier.EnqueueHistoryAppend(ctx, gap.Entry); err != nil {
		log.Error("failed to enqueue history retry", "requestId", gap.Entry.RequestID, "error", err)
	}
}
