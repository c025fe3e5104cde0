package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"Newsroom/internal/domain"
	"Newsroom/internal/scanner"
)

// FeedScanner reads sources that publish RSS/Atom/JSON feeds directly, without the LLM.
type FeedScanner struct {
	parser *gofeed.Parser
}

// NewFeedScanner wires an HTTP client; nil selects a 20s default client.
func NewFeedScanner(client *http.Client) *FeedScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	p := gofeed.NewParser()
	p.Client = client
	p.UserAgent = "Newsroom/1.0"
	return &FeedScanner{parser: p}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "feed"
}

// Scan parses the feed at the source URL and maps its entries to extracted items.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ExtractedItem, error) {
	feed, err := f.parser.ParseURLWithContext(req.Source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", req.Source.URL, err)
	}

	base, _ := url.Parse(req.Source.URL)

	items := make([]domain.ExtractedItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		title := strings.TrimSpace(entry.Title)
		link := strings.TrimSpace(entry.Link)
		if title == "" || link == "" {
			continue
		}

		parsed, err := url.Parse(link)
		if err != nil {
			continue
		}
		if base != nil {
			parsed = base.ResolveReference(parsed)
		}
		if parsed.Host == "" {
			continue
		}

		item := domain.ExtractedItem{
			Title:   title,
			URL:     parsed.String(),
			Summary: strings.TrimSpace(entry.Description),
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.PublishedAt = entry.UpdatedParsed
		}
		if entry.Image != nil {
			item.ImageURL = entry.Image.URL
		}

		items = append(items, item)
		if req.Limit > 0 && len(items) == req.Limit {
			break
		}
	}
	return items, nil
}
