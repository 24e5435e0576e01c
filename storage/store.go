package storage

import (
	"context"
	"time"
)

// CounterRecord is a single persisted self-metrics row (A3 Diagnostics
// History).
type CounterRecord struct {
	ID        int64     // auto-increment primary key
	Timestamp time.Time // tick at which the counter was published
	Name      string    // counter name, e.g. "active_clients"
	Value     float64   // counter value at that tick
}

// CounterSnapshot is one tick's worth of self-metrics, keyed by counter
// name. All counters in a snapshot share the same CollectedAt timestamp.
type CounterSnapshot struct {
	CollectedAt time.Time
	Counters    map[string]float64
}

// NewCounterSnapshot creates an empty snapshot with the supplied time.
func NewCounterSnapshot(ts time.Time) *CounterSnapshot {
	return &CounterSnapshot{
		CollectedAt: ts,
		Counters:    make(map[string]float64),
	}
}

// Store abstracts a persistence back-end for diagnostics history. It is
// deliberately not on the request path: handlers never read from it, and
// nothing about RPC correctness depends on it being available.
type Store interface {
	// Save stores every counter from snap in a single transaction -
	// either all rows are written or none.
	Save(ctx context.Context, snap *CounterSnapshot) error

	// Query returns counter records for a given name between the time
	// range. If name is empty the call returns records for every
	// counter. The returned slice is sorted by Timestamp ascending.
	Query(ctx context.Context, name string, from, to time.Time) ([]CounterRecord, error)

	// Close releases any resources (e.g. DB connections).
	Close() error
}
