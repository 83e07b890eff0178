package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"time"

	"steamvault-rest-api/internal/model"
)

// steamIDPattern matches a SteamID64: exactly 17 digits.
var steamIDPattern = regexp.MustCompile(`^[0-9]{17}$`)

// ValidSteamID reports whether id matches the SteamID64 format.
func ValidSteamID(id string) bool {
	return steamIDPattern.MatchString(id)
}

// retryableStatus reports whether an HTTP status counts as a transient
// failure worth retrying on the same strategy.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Options parameterise the fetcher.
type Options struct {
	Strategies  []Strategy
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
	UserAgent   string
}

// Fetcher retrieves inventory documents from the upstream through an
// ordered strategy list, one strategy at a time, with bounded retries
// and exponential backoff inside each strategy. It never mutates
// persistent state.
type Fetcher struct {
	opts   Options
	client *http.Client
}

// NewFetcher constructs a fetcher. Zero option fields get defaults.
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 500 * time.Millisecond
	}

	return &Fetcher{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}
}

// Fetch retrieves the inventory document for steamID. It returns the
// first structurally valid document together with the label of the
// strategy that produced it, or a definitive error. Malformed ids are
// rejected before any network call.
func (f *Fetcher) Fetch(ctx context.Context, steamID string) (*model.InventoryDocument, string, error) {
	if !ValidSteamID(steamID) {
		return nil, "", ErrInvalidSteamID
	}

	var failures []StrategyFailure

	for i, strategy := range f.opts.Strategies {
		verdict, err := f.tryStrategy(ctx, strategy, steamID)
		if err != nil {
			// Context cancellation aborts the whole fetch.
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			failures = append(failures, StrategyFailure{Label: strategy.Label, Reason: err.Error()})
			continue
		}

		switch verdict.Kind {
		case VerdictSuccess:
			log.Printf("[Fetcher] inventory for %s via strategy %q (%d assets)",
				steamID, strategy.Label, len(verdict.Document.AssetList()))
			return verdict.Document, strategy.Label, nil
		case VerdictSoftFailure:
			log.Printf("[Fetcher] strategy %q soft failure for %s: %s", strategy.Label, steamID, verdict.Reason)
			failures = append(failures, StrategyFailure{Label: strategy.Label, Reason: verdict.Reason})
		case VerdictHardFailure:
			log.Printf("[Fetcher] strategy %q hard failure for %s: %s", strategy.Label, steamID, verdict.Reason)
			failures = append(failures, StrategyFailure{Label: strategy.Label, Reason: verdict.Reason})
			if i == len(f.opts.Strategies)-1 {
				return nil, "", &StrategiesExhaustedError{Failures: failures}
			}
		}
	}

	return nil, "", &StrategiesExhaustedError{Failures: failures}
}

// tryStrategy issues the request for one strategy, retrying transient
// failures with exponential backoff before giving up on it.
func (f *Fetcher) tryStrategy(ctx context.Context, strategy Strategy, steamID string) (Verdict, error) {
	url := strategy.URL(steamID)
	backoff := f.opts.BackoffBase

	var lastErr error
	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		status, body, err := f.doRequest(ctx, url)
		if err != nil {
			// Transport error or timeout: transient, retry after backoff.
			if ctx.Err() != nil {
				return Verdict{}, ctx.Err()
			}
			lastErr = err
			log.Printf("[Fetcher] strategy %q attempt %d/%d: %v", strategy.Label, attempt, f.opts.MaxAttempts, err)
		} else if retryableStatus(status) {
			lastErr = fmt.Errorf("retryable status %d", status)
			log.Printf("[Fetcher] strategy %q attempt %d/%d: status %d", strategy.Label, attempt, f.opts.MaxAttempts, status)
		} else {
			return Classify(status, body), nil
		}

		if attempt == f.opts.MaxAttempts {
			break
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return Verdict{}, ctx.Err()
		}
	}

	return Verdict{}, fmt.Errorf("retries exhausted: %w", lastErr)
}

// doRequest performs one HTTP attempt with browser-like headers. The
// upstream applies bot filtering keyed partly on header presence.
func (f *Fetcher) doRequest(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}
