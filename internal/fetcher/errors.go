package fetcher

import "fmt"

// Kind classifies a fetch failure.
type Kind int

const (
	// KindTimeout is a request that exceeded the fetch deadline.
	KindTimeout Kind = iota
	// KindConnectionFailed is a network-level failure (DNS, refused, reset).
	KindConnectionFailed
	// KindHTTPStatus is a well-formed non-2xx response.
	KindHTTPStatus
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnectionFailed:
		return "connection_failed"
	case KindHTTPStatus:
		return "http_status"
	default:
		return "unknown"
	}
}

// Error is a typed fetch failure. A non-2xx response is surfaced as an
// Error with KindHTTPStatus and the status code set, never as a panic.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
