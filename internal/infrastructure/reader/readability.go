package reader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"Newsroom/internal/ports"
)

const maxPageBytes = 4 << 20

// ReadabilityReader renders pages locally when no reader service is available.
type ReadabilityReader struct {
	timeout time.Duration
	client  *http.Client
}

var _ ports.ContentFetcher = (*ReadabilityReader)(nil)

// NewReadabilityReader configures the per-page timeout.
func NewReadabilityReader(timeout time.Duration) *ReadabilityReader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ReadabilityReader{timeout: timeout, client: &http.Client{}}
}

// Fetch downloads target under ctx and extracts its readable text with a title heading.
func (r *ReadabilityReader) Fetch(ctx context.Context, target string) (string, error) {
	pageURL, err := url.Parse(target)
	if err != nil || pageURL.Host == "" {
		return "", &FetchError{URL: target, Err: fmt.Errorf("invalid url: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &FetchError{URL: target, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Newsroom/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: target, StatusCode: resp.StatusCode}
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), pageURL)
	if err != nil {
		return "", &FetchError{URL: target, Err: err}
	}

	var b strings.Builder
	if title := strings.TrimSpace(article.Title); title != "" {
		b.WriteString("# ")
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	if article.Image != "" {
		b.WriteString("![cover](")
		b.WriteString(article.Image)
		b.WriteString(")\n\n")
	}
	b.WriteString(strings.TrimSpace(article.TextContent))
	return b.String(), nil
}
