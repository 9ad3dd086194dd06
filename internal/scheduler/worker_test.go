package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/maintenance/domain"
	"property_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type recordingAppender struct {
	entries []domain.StatusHistoryEntry
	err     error
}

func (r *recordingAppender) AppendHistory(_ context.Context, entry domain.StatusHistoryEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func sampleEntry() domain.StatusHistoryEntry {
	from := domain.StatusOpen
	note := "assigned to plumber"
	return domain.NewHistoryEntry(uuid.New(), &from, domain.StatusAssigned, domain.UserActor(uuid.New()), &note,
		time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
}

func TestHistoryAppendPayloadRoundTripsEntry(t *testing.T) {
	entry := sampleEntry()
	task, err := NewHistoryAppendTask(NewHistoryAppendPayload(entry))
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if task.Type() != TaskHistoryAppend {
		t.Fatalf("unexpected task type %s", task.Type())
	}

	payload, err := ParseHistoryAppendPayload(task)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	got, err := payload.Entry()
	if err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if got.ID != entry.ID || got.RequestID != entry.RequestID || got.ToStatus != entry.ToStatus {
		t.Fatalf("entry mismatch: %+v vs %+v", got, entry)
	}
	if *got.FromStatus != *entry.FromStatus || *got.ChangedByID != *entry.ChangedByID || *got.Notes != *entry.Notes {
		t.Fatalf("optional fields lost: %+v", got)
	}
	if !got.CreatedAt.Equal(entry.CreatedAt) {
		t.Fatalf("expected %s, got %s", entry.CreatedAt, got.CreatedAt)
	}
}

func TestHandleHistoryAppendWritesEntry(t *testing.T) {
	appender := &recordingAppender{}
	w := newHandlers(appender, logger.Discard())
	entry := sampleEntry()
	task, _ := NewHistoryAppendTask(NewHistoryAppendPayload(entry))

	if err := w.HandleHistoryAppend(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(appender.entries) != 1 || appender.entries[0].ID != entry.ID {
		t.Fatalf("expected entry appended, got %+v", appender.entries)
	}
}

func TestHandleHistoryAppendTreatsDuplicateAsDone(t *testing.T) {
	appender := &recordingAppender{err: datastore.ErrDuplicateKey}
	w := newHandlers(appender, logger.Discard())
	task, _ := NewHistoryAppendTask(NewHistoryAppendPayload(sampleEntry()))

	if err := w.HandleHistoryAppend(context.Background(), task); err != nil {
		t.Fatalf("duplicate entry should count as done, got %v", err)
	}
}

func TestHandleHistoryAppendRetriesStoreFailures(t *testing.T) {
	storeErr := errors.New("connection refused")
	w := newHandlers(&recordingAppender{err: storeErr}, logger.Discard())
	task, _ := NewHistoryAppendTask(NewHistoryAppendPayload(sampleEntry()))

	err := w.HandleHistoryAppend(context.Background(), task)
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error for retry, got %v", err)
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("store failures must be retried")
	}
}

func TestHandleHistoryAppendSkipsMalformedPayload(t *testing.T) {
	w := newHandlers(&recordingAppender{}, logger.Discard())

	err := w.HandleHistoryAppend(context.Background(), asynq.NewTask(TaskHistoryAppend, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
