// Package fetcher performs single outbound GETs against upstream content
// sites, optionally through a CORS relay.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cosmicclassroom/contentd/internal/common"
)

const (
	// DefaultTimeout bounds every outbound call so a hung upstream cannot
	// stall the whole run.
	DefaultTimeout = 30 * time.Second

	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	// maxBodySize caps how much of an upstream response is read.
	maxBodySize = 5 * 1024 * 1024
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads pages for the ingestion pipeline. When ProxyURL is set,
// target URLs are routed through the relay; the relay failing and the origin
// failing are deliberately indistinguishable.
type Fetcher struct {
	client    HTTPClient
	proxyURL  string
	userAgent string
}

func New(proxyURL, userAgent string) *Fetcher {
	return NewWithClient(&http.Client{Timeout: DefaultTimeout}, proxyURL, userAgent)
}

func NewWithClient(client HTTPClient, proxyURL, userAgent string) *Fetcher {
	return &Fetcher{
		client:    client,
		proxyURL:  proxyURL,
		userAgent: userAgent,
	}
}

// Fetch GETs the given URL and returns the response body. Failures are
// *common.TransportError for network problems and *common.HTTPStatusError
// for non-2xx responses.
func (f *Fetcher) Fetch(ctx context.Context, target string) (string, error) {
	reqURL := target
	if f.proxyURL != "" {
		reqURL = f.proxyURL + url.QueryEscape(target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("cannot create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &common.TransportError{URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &common.HTTPStatusError{URL: target, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &common.TransportError{URL: target, Err: err}
	}

	return string(body), nil
}
