// Package snapshot implements the ref-counted cache of the live metric-name
// index. A fixed table of slots holds point-in-time copies of the index;
// readers borrow a slot via Acquire/Release, and a background Refresh
// reclaims slots no reader still holds.
package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NumSlots is the compile-time size of the snapshot table. N must be
// at least 2; under bounded handler duration six is enough headroom
// that the "no free slot" branch in Refresh is unreachable in practice.
const NumSlots = 6

// Source is the narrow collaborator contract for get_names: a full
// point-in-time copy of the metric-name index.
type Source interface {
	GetNames(ctx context.Context) (names []string, times []time.Time, err error)
}

type slot struct {
	names      []string
	times      []time.Time
	count      int
	updateTime time.Time
	ref        int32
	ready      bool
}

// Table is the snapshot cache. Zero value is not usable; construct with
// New.
type Table struct {
	mu         sync.Mutex
	slots      [NumSlots]slot
	expiration time.Duration
	source     Source
	log        *zap.Logger
}

// New returns a Table that refreshes from source no more often than every
// expiration and logs through log.
func New(source Source, expiration time.Duration, log *zap.Logger) *Table {
	return &Table{
		expiration: expiration,
		source:     source,
		log:        log,
	}
}

// SetExpiration changes the minimum interval between refreshes. It takes
// effect on the next call to Refresh; an in-flight refresh is unaffected.
func (t *Table) SetExpiration(expiration time.Duration) {
	t.mu.Lock()
	t.expiration = expiration
	t.mu.Unlock()
}

// currentLocked returns the index of the ready slot with the greatest
// updateTime, or -1 if none is ready. Ties are broken by lowest index
// (ties broken deterministically by lowest index).
func (t *Table) currentLocked() int {
	best := -1
	for i := range t.slots {
		s := &t.slots[i]
		if !s.ready {
			continue
		}
		if best == -1 || s.updateTime.After(t.slots[best].updateTime) {
			best = i
		}
	}
	return best
}

// Refresh is idempotent and is meant to be called by the periodic tick.
// It reclaims stale unreferenced slots, and if the current snapshot
// is missing or older than expiration, populates the next free slot by
// calling the (slow, unlocked) Source.
func (t *Table) Refresh(ctx context.Context) error {
	t.mu.Lock()
	current := t.currentLocked()
	for i := range t.slots {
		s := &t.slots[i]
		if s.ready && s.ref == 0 && i != current {
			s.names = nil
			s.times = nil
			s.count = 0
			s.ready = false
		}
	}

	needsUpdate := current == -1
	if !needsUpdate {
		needsUpdate = time.Since(t.slots[current].updateTime) >= t.expiration
	}
	if !needsUpdate {
		t.mu.Unlock()
		return nil
	}

	target := -1
	for i := range t.slots {
		if !t.slots[i].ready {
			target = i
			break
		}
	}
	t.mu.Unlock()

	if target == -1 {
		// The table is sized so that, under bounded handler duration,
		// every slot being simultaneously ready and referenced cannot
		// happen. If it does, refuse to overwrite a live slot.
		err := fmt.Errorf("snapshot table exhausted: all %d slots in use", NumSlots)
		t.log.Error("refresh found no free slot", zap.Error(err))
		return err
	}

	names, times, err := t.source.GetNames(ctx)
	if err != nil {
		t.log.Warn("get_names failed", zap.Error(err))
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	s := &t.slots[target]
	s.names = names
	s.times = times
	s.count = len(names)
	s.updateTime = time.Now()
	s.ref = 0
	s.ready = true
	return nil
}

// Handle is a borrowed reference to the current snapshot, returned by
// Acquire. Names/Times/Count are valid and immutable for as long as the
// handle is held; the caller must call Release exactly once.
type Handle struct {
	slotID int
	Names  []string
	Times  []time.Time
	Count  int
}

// ErrUnavailable is returned by Acquire when no slot is ready yet (e.g.
// immediately after startup, before the first Refresh completes).
var ErrUnavailable = fmt.Errorf("snapshot: not available")

// Acquire returns a borrowed handle to the current snapshot, incrementing
// its ref count under the table lock. The caller must Release it.
func (t *Table) Acquire() (*Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.currentLocked()
	if current == -1 {
		return nil, ErrUnavailable
	}
	s := &t.slots[current]
	s.ref++
	return &Handle{
		slotID: current,
		Names:  s.names,
		Times:  s.times,
		Count:  s.count,
	}, nil
}

// Release returns a handle obtained from Acquire. It is a programming
// error to call Release twice for the same handle, or to use Names/Times
// after calling it.
func (t *Table) Release(h *Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &t.slots[h.slotID]
	s.ref--
	if s.ref < 0 {
		panic("snapshot: release without matching acquire")
	}
}

// Stats is a point-in-time view of the table's internal bookkeeping for
// self-metrics publication.
type Stats struct {
	ReadyCount   int
	RefBySlot    [NumSlots]int32
	CurrentCount int
	HasCurrent   bool
}

// Stats reports the current table occupancy without touching ref counts.
func (t *Table) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var st Stats
	for i := range t.slots {
		s := &t.slots[i]
		st.RefBySlot[i] = s.ref
		if s.ready {
			st.ReadyCount++
		}
	}
	if current := t.currentLocked(); current != -1 {
		st.HasCurrent = true
		st.CurrentCount = t.slots[current].count
	}
	return st
}
