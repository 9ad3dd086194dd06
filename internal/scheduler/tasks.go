package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"property_portal_backend/internal/maintenance/domain"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskHistoryAppend re-attempts a maintenance status history entry.
const TaskHistoryAppend = "maintenance.history.append"

// HistoryAppendPayload is the wire form of a pending history entry.
type HistoryAppendPayload struct {
	EntryID       string    `json:"entryId"`
	RequestID     string    `json:"requestId"`
	FromStatus    *string   `json:"fromStatus,omitempty"`
	ToStatus      string    `json:"toStatus"`
	ChangedByID   *string   `json:"changedById,omitempty"`
	ChangedByType string    `json:"changedByType"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewHistoryAppendPayload(entry domain.StatusHistoryEntry) HistoryAppendPayload {
	payload := HistoryAppendPayload{
		EntryID:       entry.ID.String(),
		RequestID:     entry.RequestID.String(),
		ToStatus:      string(entry.ToStatus),
		ChangedByType: string(entry.ChangedByKind),
		Notes:         entry.Notes,
		CreatedAt:     entry.CreatedAt,
	}
	if entry.FromStatus != nil {
		from := string(*entry.FromStatus)
		payload.FromStatus = &from
	}
	if entry.ChangedByID != nil {
		by := entry.ChangedByID.String()
		payload.ChangedByID = &by
	}
	return payload
}

// Entry converts the payload back into a history entry.
func (p HistoryAppendPayload) Entry() (domain.StatusHistoryEntry, error) {
	entryID, err := uuid.Parse(p.EntryID)
	if err != nil {
		return domain.StatusHistoryEntry{}, fmt.Errorf("entry id: %w", err)
	}
	requestID, err := uuid.Parse(p.RequestID)
	if err != nil {
		return domain.StatusHistoryEntry{}, fmt.Errorf("request id: %w", err)
	}
	to, err := domain.ParseStatus(p.ToStatus)
	if err != nil {
		return domain.StatusHistoryEntry{}, err
	}

	entry := domain.StatusHistoryEntry{
		ID:            entryID,
		RequestID:     requestID,
		ToStatus:      to,
		ChangedByKind: domain.ActorKind(p.ChangedByType),
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
	if p.FromStatus != nil {
		from, err := domain.ParseStatus(*p.FromStatus)
		if err != nil {
			return domain.StatusHistoryEntry{}, err
		}
		entry.FromStatus = &from
	}
	if p.ChangedByID != nil {
		by, err := uuid.Parse(*p.ChangedByID)
		if err != nil {
			return domain.StatusHistoryEntry{}, fmt.Errorf("changed by id: %w", err)
		}
		entry.ChangedByID = &by
	}
	return entry, nil
}

func NewHistoryAppendTask(payload HistoryAppendPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHistoryAppend, data), nil
}

func ParseHistoryAppendPayload(task *asynq.Task) (HistoryAppendPayload, error) {
	var payload HistoryAppendPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return HistoryAppendPayload{}, err
	}
	return payload, nil
}
