package schema

import (
	"context"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/platform/logger"
	"property_portal_backend/platform/metrics"
)

// Probe inspects a relation's live column set.
type Probe struct {
	client datastore.Client
	log    *logger.Logger
}

// NewProbe creates a probe reading through client.
func NewProbe(client datastore.Client, log *logger.Logger) *Probe {
	return &Probe{client: client, log: log}
}

// ProbeColumns samples one row of relation and reports its columns. An empty
// relation or failed sample falls back to the catalog when the client exposes
// one, and to Unknown otherwise.
func (p *Probe) ProbeColumns(ctx context.Context, relation string) ColumnSet {
	rows, err := p.client.Sample(ctx, relation, 1)
	if err == nil && len(rows) > 0 {
		return NewColumnSet(rows[0].Columns()...)
	}

	reason := "empty relation"
	if err != nil {
		reason = "sample failed: " + err.Error()
	}

	if lister, ok := p.client.(datastore.ColumnLister); ok {
		cols, listErr := lister.Columns(ctx, relation)
		if listErr == nil && len(cols) > 0 {
			return NewColumnSet(cols...)
		}
	}

	p.log.SchemaFallback(relation, "", reason)
	metrics.Get().ProbeFallbacks.WithLabelValues(relation).Inc()
	return Unknown()
}
