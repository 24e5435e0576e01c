package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSaveAndQueryRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "diag.db")
	store, err := NewSQLite(dbPath, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer store.Close()

	ts := time.Now().UTC().Truncate(time.Second)
	snap := NewCounterSnapshot(ts)
	snap.Counters["active_clients"] = 3
	snap.Counters["requests_failed"] = 1

	if err := store.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	records, err := store.Query(context.Background(), "active_clients", ts.Add(-time.Minute), ts.Add(time.Minute))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 1 || records[0].Value != 3 {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestQueryWithoutNameFilterReturnsAllCounters(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "diag.db")
	store, err := NewSQLite(dbPath, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer store.Close()

	ts := time.Now().UTC().Truncate(time.Second)
	snap := NewCounterSnapshot(ts)
	snap.Counters["a"] = 1
	snap.Counters["b"] = 2
	if err := store.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	records, err := store.Query(context.Background(), "", ts.Add(-time.Minute), ts.Add(time.Minute))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}
