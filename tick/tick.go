// Package tick drives the periodic cache refresh and self-metrics
// publication. It owns no state of its own beyond the interval; the
// table, counters and store it reads from are supplied by the caller.
package tick

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/perfwatcher/perfwatcherd/frontend"
	"github.com/perfwatcher/perfwatcherd/snapshot"
	"github.com/perfwatcher/perfwatcherd/storage"
)

// Ticker runs the background refresh thread: one goroutine,
// independent of any HTTP connection, that periodically publishes
// self-metrics and then advances the snapshot cache.
type Ticker struct {
	interval time.Duration
	table    *snapshot.Table
	counters *frontend.Counters
	store    storage.Store
	log      *zap.Logger
}

// New returns a Ticker that fires every interval.
func New(interval time.Duration, table *snapshot.Table, counters *frontend.Counters, store storage.Store, log *zap.Logger) *Ticker {
	return &Ticker{
		interval: interval,
		table:    table,
		counters: counters,
		store:    store,
		log:      log,
	}
}

// Run blocks until ctx is cancelled, firing a tick every interval.
func (t *Ticker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.fire(ctx, now)
		}
	}
}

// fire runs a single tick: publish self-metrics, then refresh the cache.
// Publication happens first so a slow or failing refresh never delays
// visibility of the counters that led up to it.
func (t *Ticker) fire(ctx context.Context, now time.Time) {
	snap := t.buildCounterSnapshot(now)
	if t.store != nil {
		if err := t.store.Save(ctx, snap); err != nil {
			t.log.Warn("failed to persist self-metrics", zap.Error(err))
		}
	}

	if err := t.table.Refresh(ctx); err != nil {
		t.log.Error("snapshot refresh failed", zap.Error(err))
	}
}

func (t *Ticker) buildCounterSnapshot(now time.Time) *storage.CounterSnapshot {
	snap := storage.NewCounterSnapshot(now)

	c := t.counters.Snapshot()
	snap.Counters["active_clients"] = float64(c.Active)
	snap.Counters["requests_failed"] = float64(c.Failed)
	snap.Counters["requests_succeeded"] = float64(c.Succeeded)
	snap.Counters["new_connections"] = float64(c.NewConnections)

	st := t.table.Stats()
	snap.Counters["ready_snapshot_count"] = float64(st.ReadyCount)
	snap.Counters["current_snapshot_count"] = float64(st.CurrentCount)
	for i, ref := range st.RefBySlot {
		snap.Counters[fmt.Sprintf("snapshot_slot_%d_ref", i)] = float64(ref)
	}
	return snap
}
