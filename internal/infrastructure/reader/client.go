package reader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"Newsroom/internal/ports"
)

const maxReaderBytes = 4 << 20

// FetchError reports a reader failure for one URL.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: reader returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPReader talks to an external reader service that renders pages as clean text/markdown.
type HTTPReader struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.ContentFetcher = (*HTTPReader)(nil)

// NewHTTPReader creates a reusable HTTP client; the target URL is appended to endpoint.
func NewHTTPReader(endpoint, apiKey string, timeout time.Duration) *HTTPReader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPReader{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Fetch returns the reader rendering of target. Failures are not retried here.
func (c *HTTPReader) Fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+target, nil)
	if err != nil {
		return "", &FetchError{URL: target, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Accept", "text/plain")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &FetchError{URL: target, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return "", &FetchError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReaderBytes))
	if err != nil {
		return "", &FetchError{URL: target, Err: fmt.Errorf("read body: %w", err)}
	}

	return strings.TrimSpace(string(body)), nil
}
