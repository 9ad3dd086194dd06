package repository

import (
	"context"
	"errors"
	"fmt"

	"property_portal_backend/internal/maintenance/domain"

	"github.com/google/uuid"
)

// AuditGapError reports a status change that was stored while its history
// entry was not.
type AuditGapError struct {
	Entry domain.StatusHistoryEntry
	Err   error
}

func (e *AuditGapError) Error() string {
	return fmt.Sprintf("history entry for request %s not written: %v", e.Entry.RequestID, e.Err)
}

func (e *AuditGapError) Unwrap() error { return e.Err }

// AsAuditGap extracts an *AuditGapError from err.
func AsAuditGap(err error) (*AuditGapError, bool) {
	var gap *AuditGapError
	if errors.As(err, &gap) {
		return gap, true
	}
	return nil, false
}

// RequestReader assembles composite maintenance request views.
type RequestReader interface {
	// LoadWithRelations returns nil, nil when the request does not exist.
	LoadWithRelations(ctx context.Context, id uuid.UUID) (*RequestView, error)
	List(ctx context.Context, filter ListFilter) ([]RequestView, error)
	// CurrentStatus returns "" and no error when the request does not exist.
	CurrentStatus(ctx context.Context, id uuid.UUID) (domain.Status, error)
	History(ctx context.Context, id uuid.UUID) ([]domain.StatusHistoryEntry, error)
}

// RequestWriter persists maintenance requests and their status history.
type RequestWriter interface {
	Create(ctx context.Context, fields RequestFields, actor domain.Actor) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, fields RequestFields) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ApplyTransition writes the status and, when Record is set, the history
	// entry. A stored status with a missing entry yields an *AuditGapError.
	ApplyTransition(ctx context.Context, t Transition) error
	AppendHistory(ctx context.Context, entry domain.StatusHistoryEntry) error
}

// RequestRepository is the aggregate-root repository for maintenance requests.
type RequestRepository interface {
	RequestReader
	RequestWriter
}

var _ RequestRepository = (*Repository)(nil)
