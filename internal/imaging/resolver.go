// Package imaging finds, filters, downloads and re-hosts article cover images.
package imaging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Newsroom/internal/ports"
)

const (
	defaultHTMLTimeout  = 15 * time.Second
	defaultMaxHTMLBytes = 1 << 20
)

// Options tune the resolver.
type Options struct {
	PlaceholderURL     string
	HTMLTimeout        time.Duration
	MaxHTMLBytes       int64
	RejectLogoFallback bool
}

// Resolver implements ports.ImageResolver.
type Resolver struct {
	client     *http.Client
	downloader *Downloader
	uploader   *Uploader
	opts       Options
	logger     *slog.Logger
}

var _ ports.ImageResolver = (*Resolver)(nil)

// NewResolver builds the strategy chain on top of a downloader and uploader.
func NewResolver(client *http.Client, downloader *Downloader, uploader *Uploader, opts Options, logger *slog.Logger) *Resolver {
	if client == nil {
		client = &http.Client{}
	}
	if opts.HTMLTimeout <= 0 {
		opts.HTMLTimeout = defaultHTMLTimeout
	}
	if opts.MaxHTMLBytes <= 0 {
		opts.MaxHTMLBytes = defaultMaxHTMLBytes
	}
	return &Resolver{client: client, downloader: downloader, uploader: uploader, opts: opts, logger: logger}
}

// ResolveCoverImage never fails: it returns a re-hosted image URL or the placeholder.
func (r *Resolver) ResolveCoverImage(ctx context.Context, pageURL, markdown, hint string) string {
	candidate := r.FindCandidate(ctx, pageURL, markdown, hint)
	if candidate == "" {
		r.log(slog.LevelInfo, "no cover image candidate, using placeholder", "page", pageURL)
		return r.opts.PlaceholderURL
	}

	if r.downloader == nil || r.uploader == nil {
		r.log(slog.LevelWarn, "image pipeline not configured, using placeholder", "page", pageURL)
		return r.opts.PlaceholderURL
	}

	img, err := r.downloader.Download(ctx, candidate)
	if err != nil {
		r.log(slog.LevelWarn, "cover image download failed", "url", candidate, "error", err)
		return r.opts.PlaceholderURL
	}

	publicURL, err := r.uploader.Upload(ctx, img)
	if err != nil {
		r.log(slog.LevelWarn, "cover image upload failed", "url", candidate, "error", err)
		return r.opts.PlaceholderURL
	}

	r.log(slog.LevelDebug, "cover image resolved", "source", candidate, "public", publicURL)
	return publicURL
}

// FindCandidate runs the strategy chain: og:image, first markdown image, then the caller hint.
func (r *Resolver) FindCandidate(ctx context.Context, pageURL, markdown, hint string) string {
	base, _ := url.Parse(strings.TrimSpace(pageURL))
	if base != nil && base.Host == "" {
		base = nil
	}

	if base != nil {
		html, err := r.fetchHTML(ctx, base.String())
		if err != nil {
			r.log(slog.LevelDebug, "page html fetch failed", "page", pageURL, "error", err)
		} else if chosen, ok := SelectCandidate(OGImageCandidates(html, base), r.opts.RejectLogoFallback, r.logger); ok {
			return chosen
		}
	}

	if markdown != "" {
		if img := MarkdownImage(markdown, base); img != "" {
			if chosen, ok := SelectCandidate([]string{img}, r.opts.RejectLogoFallback, r.logger); ok {
				return chosen
			}
		}
	}

	if hint != "" {
		if resolved := resolveAll([]string{hint}, base); len(resolved) > 0 {
			return resolved[0]
		}
	}

	return ""
}

func (r *Resolver) fetchHTML(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.HTMLTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.opts.MaxHTMLBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	return string(body), nil
}

func (r *Resolver) log(level slog.Level, msg string, args ...any) {
	if r.logger != nil {
		r.logger.Log(context.Background(), level, msg, args...)
	}
}
