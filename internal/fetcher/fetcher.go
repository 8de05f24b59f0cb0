// Package fetcher performs single-page HTTP fetches with bounded timeout,
// retry with backoff, and optional proxying.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/jonesrussell/webwatch/internal/config"
	"github.com/jonesrussell/webwatch/internal/logger"
)

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

const (
	statusOK          = 200
	statusBadRequest  = 400
	statusTooManyReqs = 429
	statusServerErr   = 500
)

// Result is a successfully fetched page.
type Result struct {
	Body       []byte
	StatusCode int
}

// Options customize a single fetcher instance. A fetcher holds one proxy
// and one User-Agent for its whole lifetime, so a crawl job never mixes
// old and new configuration mid-run.
type Options struct {
	// Proxy routes all requests of this fetcher; nil means direct.
	Proxy *url.URL
	// UserAgent overrides the configured default when non-empty.
	UserAgent string
}

// Fetcher fetches pages over HTTP.
type Fetcher struct {
	client     *http.Client
	log        logger.Interface
	userAgent  string
	maxRetries int
	backoff    time.Duration
}

// New creates a fetcher from configuration and per-instance options.
func New(cfg config.FetcherConfig, opts Options, log logger.Interface) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != nil {
		proxy := opts.Proxy
		transport.Proxy = func(*http.Request) (*url.URL, error) { return proxy, nil }
	}

	userAgent := cfg.UserAgent
	if opts.UserAgent != "" {
		userAgent = opts.UserAgent
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		log:        log,
		userAgent:  userAgent,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
	}
}

// Fetch retrieves one page. Transient failures (timeout, 429, 5xx,
// connection reset) are retried up to the configured budget with
// exponential backoff; permanent failures (other 4xx, DNS errors) fail
// immediately. All failures come back as *Error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	var lastErr *Error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := f.backoff * time.Duration(1<<(attempt-1))
			f.log.Debug("retrying fetch",
				"url", rawURL,
				"attempt", attempt,
				"delay", delay.String(),
			)
			select {
			case <-ctx.Done():
				return nil, &Error{Kind: KindTimeout, URL: rawURL, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		result, fetchErr := f.fetchOnce(ctx, rawURL)
		if fetchErr == nil {
			return result, nil
		}

		lastErr = fetchErr
		if !retryable(fetchErr) {
			return nil, fetchErr
		}
	}

	return nil, lastErr
}

// fetchOnce performs a single request without retries.
func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*Result, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindConnectionFailed, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < statusOK || resp.StatusCode >= statusBadRequest {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodyBytes))
		return nil, &Error{Kind: KindHTTPStatus, URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindConnectionFailed, URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	return &Result{Body: body, StatusCode: resp.StatusCode}, nil
}

// classifyTransportError maps a transport error onto the failure taxonomy.
func classifyTransportError(rawURL string, err error) *Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, URL: rawURL, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, URL: rawURL, Err: err}
	}
	return &Error{Kind: KindConnectionFailed, URL: rawURL, Err: err}
}

// retryable reports whether a failed attempt is worth repeating.
// Timeouts and 429/5xx responses are transient; DNS failures and other
// 4xx responses are permanent.
func retryable(fetchErr *Error) bool {
	switch fetchErr.Kind {
	case KindTimeout:
		return true
	case KindHTTPStatus:
		return fetchErr.StatusCode == statusTooManyReqs || fetchErr.StatusCode >= statusServerErr
	case KindConnectionFailed:
		var dnsErr *net.DNSError
		return !errors.As(fetchErr.Err, &dnsErr)
	default:
		return false
	}
}
