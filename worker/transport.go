package worker

import (
	"net/http"
	"time"

	"github.com/filswan/go-swan-lib/logs"
)

// Status codes worth retrying: rate limiting and transient server-side
// failures.
var retryStatusCodes = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// retryTransport is the outer resilience layer on the worker's HTTP
// client: a bounded retry with backoff over transient failures. The
// bridge core never retries; this wrapper is where that policy lives.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	var resp *http.Response
	var err error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			wait := t.backoff * time.Duration(1<<(attempt-1))
			logs.GetLogger().Warnf("retrying %s %s after %s, attempt %d/%d",
				req.Method, req.URL.Path, wait, attempt, t.maxRetries)
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(wait):
			}

			if req.GetBody != nil {
				body, bodyErr := req.GetBody()
				if bodyErr != nil {
					return nil, bodyErr
				}
				req.Body = body
			}
		}

		resp, err = base.RoundTrip(req)
		if err != nil {
			continue
		}
		if !retryStatusCodes[resp.StatusCode] {
			return resp, nil
		}
		if attempt < t.maxRetries {
			resp.Body.Close()
		}
	}

	return resp, err
}

// NewHTTPClient builds the worker HTTP client with the retry strategy
// applied to every GET and POST.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &retryTransport{
			maxRetries: 3,
			backoff:    time.Second,
		},
	}
}
