// Package metricsource stands in for the host daemon's live value cache.
// It is intentionally narrow: the rest of the system only ever calls
// GetNames, never anything about how names got there.
package metricsource

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Feed is one contributor to the combined name index, e.g. a plugin's
// local sample buffer or a polled remote source. A feed's Names may be
// slow (it may do I/O); callers must not hold a lock while calling it.
type Feed interface {
	Names(ctx context.Context) ([]Sample, error)
}

// Sample is a single (qualified metric name, last-update time) pair as
// produced by a Feed.
type Sample struct {
	Name string
	Time time.Time
}

// Registry merges every registered Feed into the single
// (names[], times[], count) triple the snapshot cache's Source interface
// requires. Feeds are queried concurrently and merged in registration
// order so that, for a name reported by more than one feed, the last
// feed registered wins - mirroring how collectd's own value cache lets
// the most recent plugin write take precedence.
type Registry struct {
	mu    sync.RWMutex
	feeds []Feed
	log   *zap.Logger
}

// New returns an empty Registry.
func New(log *zap.Logger) *Registry {
	return &Registry{log: log}
}

// Add registers an additional feed. Safe to call concurrently with
// GetNames.
func (r *Registry) Add(f Feed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds = append(r.feeds, f)
}

// maxFeedWorkers bounds how many feeds are polled at once. Feeds are
// typically a handful of local buffers plus a couple of remote HTTP
// sources; this is plenty of concurrency without opening an unbounded
// number of sockets when a registry grows large.
const maxFeedWorkers = 4

type feedJob struct {
	idx  int
	feed Feed
}

type feedResult struct {
	idx     int
	samples []Sample
	err     error
}

func (r *Registry) feedWorker(ctx context.Context, jobs <-chan feedJob, results chan<- feedResult) {
	for job := range jobs {
		samples, err := job.feed.Names(ctx)
		select {
		case results <- feedResult{idx: job.idx, samples: samples, err: err}:
		case <-ctx.Done():
			return
		}
	}
}

// GetNames implements snapshot.Source by polling every feed concurrently
// - each feed's Names call may be slow I/O, so a worker pool (rather than
// a sequential loop) keeps one stalled feed from delaying the rest - and
// then merging the results back in registration order so that, for a
// name reported by more than one feed, the last feed added still wins
// deterministically regardless of which one happened to answer first.
func (r *Registry) GetNames(ctx context.Context) ([]string, []time.Time, error) {
	r.mu.RLock()
	feeds := make([]Feed, len(r.feeds))
	copy(feeds, r.feeds)
	r.mu.RUnlock()

	if len(feeds) == 0 {
		return []string{}, []time.Time{}, nil
	}

	jobs := make(chan feedJob, len(feeds))
	results := make(chan feedResult, len(feeds))
	for i, f := range feeds {
		jobs <- feedJob{idx: i, feed: f}
	}
	close(jobs)

	workers := maxFeedWorkers
	if workers > len(feeds) {
		workers = len(feeds)
	}
	for w := 0; w < workers; w++ {
		go r.feedWorker(ctx, jobs, results)
	}

	collected := make([]feedResult, len(feeds))
	for i := 0; i < len(feeds); i++ {
		select {
		case res := <-results:
			collected[res.idx] = res
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	merged := make(map[string]time.Time)
	for _, res := range collected {
		if res.err != nil {
			// A single failing feed should not fail the whole refresh -
			// the remaining feeds still produce a usable index.
			r.log.Warn("metric source feed failed", zap.Error(res.err))
			continue
		}
		for _, s := range res.samples {
			merged[s.Name] = s.Time
		}
	}

	names := make([]string, 0, len(merged))
	times := make([]time.Time, 0, len(merged))
	for name, t := range merged {
		names = append(names, name)
		times = append(times, t)
	}
	return names, times, nil
}
