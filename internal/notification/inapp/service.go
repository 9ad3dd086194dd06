package inapp

import (
	"context"

	"property_portal_backend/platform/apperr"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Kinds of in-app notification.
const (
	KindInfo    = "info"
	KindSuccess = "success"
	KindWarning = "warning"
	KindError   = "error"
)

type Service struct {
	repo *Repository
	log  *logger.Logger
}

func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

type SendParams struct {
	UserID   uuid.UUID
	Kind     string
	Message  string
	Entity   string
	EntityID *uuid.UUID
}

// Notify stores a plain notification for userID.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, kind, message string) error {
	return s.Send(ctx, SendParams{UserID: userID, Kind: kind, Message: message})
}

// Send persists the notification and logs the delivery.
func (s *Service) Send(ctx context.Context, p SendParams) error {
	if s == nil || s.repo == nil {
		return apperr.Internal("in-app notification service not configured")
	}

	if p.Kind == "" {
		p.Kind = KindInfo
	}

	notif, err := s.repo.Create(ctx, CreateParams{
		UserID:   p.UserID,
		Kind:     p.Kind,
		Message:  p.Message,
		Entity:   p.Entity,
		EntityID: p.EntityID,
	})
	if err != nil {
		if s.log != nil {
			s.log.Error("failed to persist in-app notification", "error", err, "userId", p.UserID)
		}
		return err
	}

	if s.log != nil {
		s.log.WithContext(ctx).Info("in-app notification sent",
			"notificationId", notif.ID, "userId", p.UserID, "kind", p.Kind)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error) {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, userID, limit)
}

func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}
