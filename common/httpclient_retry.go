package common

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryTransport retries idempotent requests on transport errors, 429 and 5xx.
func RetryTransport(attempts uint, delay time.Duration) RoundTripWrapper {
	return func(req *http.Request, next http.RoundTripper) (*http.Response, error) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			return next.RoundTrip(req)
		}

		return retry.DoWithData(func() (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return nil, fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Redacted(), resp.StatusCode)
			}
			return resp, nil
		},
			retry.Context(req.Context()),
			retry.Attempts(attempts),
			retry.Delay(delay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				slog.Debug("retrying request", "url", req.URL.Redacted(), "attempt", n+1, "err", err)
			}),
		)
	}
}

// NewHTTPClient returns a client that serves repeated GETs from an in-memory cache and retries transient failures.
// A cacheTTL of 0 disables the cache.
func NewHTTPClient(timeout, cacheTTL time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	WrapHTTPClient(client, RetryTransport(3, 500*time.Millisecond))
	if cacheTTL > 0 {
		WrapHTTPClient(client, NewCacheTransport(1000, cacheTTL).Handler())
	}
	return client
}
