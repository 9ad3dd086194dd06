package schema

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"property_portal_backend/internal/datastore"
	"property_portal_backend/internal/datastore/memory"
	"property_portal_backend/platform/config"
	"property_portal_backend/platform/logger"
)

func newTestWriter(client datastore.Client) (*Writer, *Registry) {
	registry := NewRegistry(NewProbe(client, logger.Discard()), config.ProbeModeStartup, logger.Discard())
	return NewWriter(client, registry, logger.Discard()), registry
}

func TestWriterInsertUsesProbedColumns(t *testing.T) {
	store := memory.New()
	store.DefineColumns("leases", "id", "unit_id", "security_deposit", "created_at")
	writer, _ := newTestWriter(store)

	row, err := writer.Insert(context.Background(), "leases", []Field{
		Plain("unit_id", "u1"),
		Chain("deposit", 900.0, depositChain...),
		Plain("notes", "dropped"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Float("security_deposit") != 900 {
		t.Fatalf("expected deposit under security_deposit, got %v", row)
	}
	if row.Has("notes") {
		t.Fatalf("notes must not be written")
	}
}

func TestWriterReturnsDatastoreErrorVerbatim(t *testing.T) {
	store := memory.New()
	boom := errors.New("insert or update on table violates foreign key constraint")
	store.FailInsert("leases", boom)
	writer, _ := newTestWriter(store)

	_, err := writer.Insert(context.Background(), "leases", []Field{Plain("unit_id", "missing")})
	if err != boom {
		t.Fatalf("expected the datastore error unchanged, got %v", err)
	}
}

func TestWriterInvalidatesOnUndefinedColumn(t *testing.T) {
	store := memory.New()
	store.Seed("leases", datastore.Row{"id": "l1", "deposit_amount": 1.0})
	client := &sampleOnly{Client: store}
	writer, registry := newTestWriter(client)
	registry.Resolve(context.Background(), "leases")

	// The column is dropped after capabilities were resolved.
	store.DefineColumns("leases", "id", "security_deposit")
	_, err := writer.Update(context.Background(), "leases", "l1", []Field{Chain("deposit", 5.0, depositChain...)})
	if !datastore.IsUndefinedColumn(err) {
		t.Fatalf("expected undefined column error, got %v", err)
	}
	if _, ok := registry.Snapshot().Relations["leases"]; ok {
		t.Fatalf("expected leases capabilities to be invalidated")
	}
}

func TestWriterWithRebindsClient(t *testing.T) {
	store := memory.New()
	writer, _ := newTestWriter(store)

	err := store.WithTx(context.Background(), func(tx datastore.Client) error {
		_, err := writer.With(tx).Insert(context.Background(), "notes", []Field{Plain("body", "x")})
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.Rows("notes")) != 1 {
		t.Fatalf("expected insert through the bound client")
	}
}

func TestWriterLogsFailedWrite(t *testing.T) {
	store := memory.New()
	store.FailInsert("leases", errors.New("connection reset"))

	var out bytes.Buffer
	log := logger.NewWithWriter("production", &out)
	registry := NewRegistry(NewProbe(store, log), config.ProbeModeStartup, log)
	writer := NewWriter(store, registry, log)

	if _, err := writer.Insert(context.Background(), "leases", []Field{Plain("unit_id", "u1")}); err == nil {
		t.Fatalf("expected insert failure")
	}
	logged := out.String()
	if !strings.Contains(logged, "database_error") || !strings.Contains(logged, "insert leases") {
		t.Fatalf("expected failed insert to be logged, got %q", logged)
	}
}
