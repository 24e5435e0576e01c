package metricsource

import (
	"context"
	"sync"
	"time"
)

// StaticFeed is an in-memory Feed that test code and small demo setups
// populate directly with Put. It is the simplest possible stand-in for
// a collectd plugin writing into the value cache.
type StaticFeed struct {
	mu      sync.Mutex
	samples map[string]time.Time
}

// NewStaticFeed returns an empty StaticFeed.
func NewStaticFeed() *StaticFeed {
	return &StaticFeed{samples: make(map[string]time.Time)}
}

// Put records (or overwrites) the last-seen time for name.
func (f *StaticFeed) Put(name string, t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples[name] = t
}

// Names implements Feed.
func (f *StaticFeed) Names(ctx context.Context) ([]Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Sample, 0, len(f.samples))
	for name, t := range f.samples {
		out = append(out, Sample{Name: name, Time: t})
	}
	return out, nil
}
