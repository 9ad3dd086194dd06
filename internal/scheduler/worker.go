package scheduler

import (
	"context"
	"fmt"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/maintenance/domain"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// HistoryAppender writes a single status history entry.
type HistoryAppender interface {
	AppendHistory(ctx context.Context, entry domain.StatusHistoryEntry) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	appender HistoryAppender
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, appender HistoryAppender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newHandlers(appender, log)
	w.server = server
	w.mux = asynq.NewServeMux()
	w.mux.HandleFunc(TaskHistoryAppend, w.HandleHistoryAppend)

	return w, nil
}

func newHandlers(appender HistoryAppender, log *logger.Logger) *Worker {
	return &Worker{appender: appender, log: log}
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// HandleHistoryAppend writes the carried history entry. An entry that is
// already stored counts as done; malformed payloads are not retried.
func (w *Worker) HandleHistoryAppend(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseHistoryAppendPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	entry, err := payload.Entry()
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	err = w.appender.AppendHistory(ctx, entry)
	if datastore.IsDuplicateKey(err) {
		return nil
	}
	if err != nil {
		w.log.Warn("history append retry failed", "requestId", entry.RequestID, "entryId", entry.ID, "error", err)
		return err
	}
	w.log.Info("history entry recovered", "requestId", entry.RequestID, "entryId", entry.ID, "toStatus", entry.ToStatus)
	return nil
}
