package common

import "fmt"

var (
	ErrNoCurrentSnapshot = fmt.Errorf("no current snapshot")
	ErrArchiveNotFound   = fmt.Errorf("archive not found")
	ErrCacheMiss         = fmt.Errorf("cache miss")
	ErrSchemaMismatch    = fmt.Errorf("response does not match expected schema")
)

// TransportError wraps a network-level fetch failure (DNS, connect,
// timeout). A failing CORS relay is indistinguishable from a failing
// origin; both surface as this type.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError reports a non-2xx upstream response.
type HTTPStatusError struct {
	URL  string
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.Code, e.URL)
}
