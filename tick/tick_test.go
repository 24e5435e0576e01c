package tick

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/perfwatcher/perfwatcherd/frontend"
	"github.com/perfwatcher/perfwatcherd/metricsource"
	"github.com/perfwatcher/perfwatcherd/snapshot"
	"github.com/perfwatcher/perfwatcherd/storage"
)

func TestFirePersistsCountersAndRefreshesTable(t *testing.T) {
	log := zap.NewNop()
	feed := metricsource.NewStaticFeed()
	feed.Put("a/cpu/idle", time.Now())
	src := metricsource.New(log)
	src.Add(feed)

	table := snapshot.New(src, time.Hour, log)
	counters := frontend.NewCounters(4)

	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "diag.db"), log)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer store.Close()

	ticker := New(time.Minute, table, counters, store, log)
	ticker.fire(context.Background(), time.Now())

	h, err := table.Acquire()
	if err != nil {
		t.Fatalf("expected the table to be populated after a tick, got %v", err)
	}
	table.Release(h)

	records, err := store.Query(context.Background(), "active_clients", time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one persisted active_clients row, got %d", len(records))
	}
}
