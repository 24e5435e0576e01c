package metricsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestHTTPFeedDecodesWireSamples(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"a/cpu/idle","time":1000}]`))
	}))
	defer ts.Close()

	feed := NewHTTPFeed(ts.URL, zap.NewNop())
	samples, err := feed.Names(context.Background())
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if len(samples) != 1 || samples[0].Name != "a/cpu/idle" || !samples[0].Time.Equal(time.Unix(1000, 0)) {
		t.Fatalf("unexpected samples: %+v", samples)
	}
}

func TestHTTPFeedReturnsErrorOnNonOK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	feed := NewHTTPFeed(ts.URL, zap.NewNop())
	if _, err := feed.Names(context.Background()); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}
