package schema

import (
	"context"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/metrics"
)

// Writer inserts and updates rows using only the columns the registry
// reports. Datastore errors are returned unchanged; nothing is retried.
type Writer struct {
	client   datastore.Client
	registry *Registry
	log      *logger.Logger
}

// NewWriter creates a writer over client.
func NewWriter(client datastore.Client, registry *Registry, log *logger.Logger) *Writer {
	return &Writer{client: client, registry: registry, log: log}
}

// With returns a writer that issues its writes through client, typically a
// transaction-scoped one.
func (w *Writer) With(client datastore.Client) *Writer {
	return &Writer{client: client, registry: w.registry, log: w.log}
}

// Insert writes a new row into relation.
func (w *Writer) Insert(ctx context.Context, relation string, fields []Field) (datastore.Row, error) {
	payload := w.Payload(ctx, relation, fields)
	row, err := w.client.Insert(ctx, relation, payload)
	if err != nil {
		w.failed("insert "+relation, relation, err)
		return nil, err
	}
	return row, nil
}

// Update writes fields onto the row of relation identified by id.
func (w *Writer) Update(ctx context.Context, relation, id string, fields []Field) (datastore.Row, error) {
	payload := w.Payload(ctx, relation, fields)
	row, err := w.client.Update(ctx, relation, id, payload)
	if err != nil {
		w.failed("update "+relation, relation, err)
		return nil, err
	}
	return row, nil
}

// Payload builds the row that would be written and logs skipped fields.
func (w *Writer) Payload(ctx context.Context, relation string, fields []Field) datastore.Row {
	payload, skipped := BuildWritePayload(fields, w.registry.Columns(ctx, relation))
	for _, field := range skipped {
		w.log.SchemaFallback(relation, field, "no matching column")
		metrics.Get().SkippedFields.WithLabelValues(relation, field).Inc()
	}
	return payload
}

// failed logs the write error and drops the relation's capabilities when the
// error shows they are stale.
func (w *Writer) failed(operation, relation string, err error) {
	w.log.DatabaseError(operation, err)
	if datastore.IsUndefinedColumn(err) {
		w.registry.Invalidate(relation)
	}
}
