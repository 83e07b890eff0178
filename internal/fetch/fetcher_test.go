package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const testSteamID = "76561198000000000"

func newTestFetcher(strategies []Strategy) *Fetcher {
	return NewFetcher(Options{
		Strategies:  strategies,
		Timeout:     2 * time.Second,
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
	})
}

func countingServer(t *testing.T, hits *int64, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRejectsInvalidIDBeforeNetwork(t *testing.T) {
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validBody))
	})

	f := newTestFetcher([]Strategy{{Label: "direct", URLTemplate: srv.URL + "/{id}"}})

	for _, id := range []string{"", "abc", "1234", "765611980000000001"} {
		if _, _, err := f.Fetch(context.Background(), id); !errors.Is(err, ErrInvalidSteamID) {
			t.Fatalf("id %q: expected ErrInvalidSteamID, got %v", id, err)
		}
	}
	if n := atomic.LoadInt64(&hits); n != 0 {
		t.Fatalf("expected no outbound requests, got %d", n)
	}
}

func TestFetchFirstStrategyWins(t *testing.T) {
	var firstHits, secondHits int64
	first := countingServer(t, &firstHits, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validBody))
	})
	second := countingServer(t, &secondHits, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validBody))
	})

	f := newTestFetcher([]Strategy{
		{Label: "direct", URLTemplate: first.URL + "/{id}"},
		{Label: "relay", URLTemplate: second.URL + "/{id}"},
	})

	doc, source, err := f.Fetch(context.Background(), testSteamID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != "direct" {
		t.Fatalf("expected source %q, got %q", "direct", source)
	}
	if len(doc.AssetList()) != 1 {
		t.Fatalf("expected 1 asset, got %d", len(doc.AssetList()))
	}
	if atomic.LoadInt64(&secondHits) != 0 {
		t.Fatal("second strategy should not have been tried")
	}
}

func TestFetchAdvancesPastSoftFailure(t *testing.T) {
	var firstHits, secondHits int64
	blocked := countingServer(t, &firstHits, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Access Denied</body></html>"))
	})
	healthy := countingServer(t, &secondHits, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validBody))
	})

	f := newTestFetcher([]Strategy{
		{Label: "direct", URLTemplate: blocked.URL + "/{id}"},
		{Label: "relay", URLTemplate: healthy.URL + "/{id}"},
	})

	_, source, err := f.Fetch(context.Background(), testSteamID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != "relay" {
		t.Fatalf("expected fallback to %q, got %q", "relay", source)
	}
	// A soft failure advances immediately, without retrying the strategy.
	if n := atomic.LoadInt64(&firstHits); n != 1 {
		t.Fatalf("expected 1 request to blocked strategy, got %d", n)
	}
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt64(&hits) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(validBody))
	})

	f := newTestFetcher([]Strategy{{Label: "direct", URLTemplate: srv.URL + "/{id}"}})

	_, source, err := f.Fetch(context.Background(), testSteamID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source != "direct" {
		t.Fatalf("expected source %q, got %q", "direct", source)
	}
	if n := atomic.LoadInt64(&hits); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestFetchExhaustedCollectsFailures(t *testing.T) {
	var hits int64
	blocked := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	})
	notFound := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	f := newTestFetcher([]Strategy{
		{Label: "direct", URLTemplate: blocked.URL + "/{id}"},
		{Label: "relay", URLTemplate: notFound.URL + "/{id}"},
	})

	_, _, err := f.Fetch(context.Background(), testSteamID)
	var exhausted *StrategiesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected StrategiesExhaustedError, got %v", err)
	}
	if len(exhausted.Failures) != 2 {
		t.Fatalf("expected 2 recorded failures, got %d", len(exhausted.Failures))
	}
	if exhausted.Failures[0].Label != "direct" || exhausted.Failures[1].Label != "relay" {
		t.Fatalf("failures out of order: %+v", exhausted.Failures)
	}
	if !strings.Contains(exhausted.Failures[1].Reason, "bad status 404") {
		t.Fatalf("expected constituent reason in error, got %q", exhausted.Failures[1].Reason)
	}
}

func TestFetchHardFailureTerminatesOnLastStrategy(t *testing.T) {
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	f := newTestFetcher([]Strategy{{Label: "direct", URLTemplate: srv.URL + "/{id}"}})

	_, _, err := f.Fetch(context.Background(), testSteamID)
	var exhausted *StrategiesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected StrategiesExhaustedError, got %v", err)
	}
	// Hard failures are terminal for the strategy: no retries.
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Fatalf("expected 1 request, got %d", n)
	}
}

func TestFetchContextCancellation(t *testing.T) {
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	f := NewFetcher(Options{
		Strategies:  []Strategy{{Label: "direct", URLTemplate: srv.URL + "/{id}"}},
		Timeout:     2 * time.Second,
		MaxAttempts: 5,
		BackoffBase: time.Hour, // cancellation must interrupt the backoff wait
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := f.Fetch(ctx, testSteamID)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not return after cancellation")
	}
}
