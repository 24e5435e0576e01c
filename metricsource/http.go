package metricsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// wireSample is the JSON shape an HTTPFeed expects from its upstream:
// a flat array of {name, time} pairs, time being Unix seconds.
type wireSample struct {
	Name string `json:"name"`
	Time int64  `json:"time"`
}

// HTTPFeed polls a remote endpoint that exposes its own slice of the
// metric-name index as JSON. It follows the same request/decode/translate
// shape as a typical polling collector, fit to this package's Sample
// type instead of a float64 value map.
type HTTPFeed struct {
	URL       string
	HTTP      *http.Client
	Log       *zap.Logger
	UserAgent string
}

// NewHTTPFeed returns a ready-to-use feed with a sane request timeout.
func NewHTTPFeed(url string, log *zap.Logger) *HTTPFeed {
	return &HTTPFeed{
		URL:       url,
		HTTP:      &http.Client{Timeout: 10 * time.Second},
		Log:       log,
		UserAgent: "perfwatcherd/1.0",
	}
}

// Names implements Feed.
func (f *HTTPFeed) Names(ctx context.Context) ([]Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metric source request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("metric source returned %d: %s", resp.StatusCode, string(b))
	}

	var wire []wireSample
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode metric source JSON: %w", err)
	}

	samples := make([]Sample, 0, len(wire))
	for _, w := range wire {
		samples = append(samples, Sample{Name: w.Name, Time: time.Unix(w.Time, 0)})
	}

	f.Log.Debug("polled metric source",
		zap.String("url", f.URL),
		zap.Int("samples", len(samples)),
		zap.String("body_approx", humanize.Bytes(uint64(len(wire)*32))),
	)
	return samples, nil
}
