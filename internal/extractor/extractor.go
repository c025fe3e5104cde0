// Package extractor turns reader output into validated structured news items via an LLM.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"

	"Newsroom/internal/domain"
	"Newsroom/internal/ports"
	"Newsroom/pkg/llmjson"
)

const (
	defaultMaxChars = 30000
	extractTokens   = 4096
)

const systemPrompt = `Você é um extrator de notícias. Receberá o texto de uma página de listagem de notícias.
Responda SOMENTE com um objeto JSON no formato:
{"items":[{"title":"...","url":"...","summary":"...","imageUrl":"...","publishedAt":"..."}]}
Regras: "title" e "url" são obrigatórios; "summary", "imageUrl" e "publishedAt" (ISO 8601) são opcionais.
Use as URLs exatamente como aparecem no texto. Não invente itens.`

// Extractor asks a text generator for a bounded list of news items.
type Extractor struct {
	generator ports.TextGenerator
	maxChars  int
	logger    *slog.Logger
}

// New wires a text generator; maxChars <= 0 selects the 30k default.
func New(generator ports.TextGenerator, maxChars int, logger *slog.Logger) *Extractor {
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &Extractor{generator: generator, maxChars: maxChars, logger: logger}
}

type rawItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Summary     string `json:"summary"`
	ImageURL    string `json:"imageUrl"`
	PublishedAt string `json:"publishedAt"`
}

type rawResponse struct {
	Items []rawItem `json:"items"`
}

// Extract returns at most limit items in source order. An empty result is not an error.
func (e *Extractor) Extract(ctx context.Context, sourceURL, sourceTitle, text string, limit int) ([]domain.ExtractedItem, error) {
	if e.generator == nil {
		return nil, errors.New("extractor: text generator is not configured")
	}

	base, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("extractor: invalid source url %q", sourceURL)
	}

	user := fmt.Sprintf("Fonte: %s (%s)\nLimite de itens: %d\n\nTEXTO:\n%s",
		sourceTitle, sourceURL, limit, Truncate(text, e.maxChars))

	answer, err := e.generator.Generate(ctx, ports.Prompt{
		System:      systemPrompt,
		User:        user,
		Temperature: 0.1,
		MaxTokens:   extractTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate items: %w", err)
	}

	var resp rawResponse
	if err := llmjson.Decode(answer, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}

	items := normalize(resp.Items, base, limit)
	e.debug("extracted items", "source", sourceURL, "raw", len(resp.Items), "valid", len(items))
	return items, nil
}

func normalize(raw []rawItem, base *url.URL, limit int) []domain.ExtractedItem {
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}

	items := make([]domain.ExtractedItem, 0, len(raw))
	for _, r := range raw {
		title := strings.TrimSpace(r.Title)
		link := strings.TrimSpace(r.URL)
		if title == "" || link == "" {
			continue
		}

		resolved, ok := ResolveURL(origin, link)
		if !ok {
			continue
		}

		item := domain.ExtractedItem{
			Title:       title,
			URL:         resolved,
			Summary:     strings.TrimSpace(r.Summary),
			PublishedAt: parseTime(strings.TrimSpace(r.PublishedAt)),
		}
		if img := strings.TrimSpace(r.ImageURL); img != "" {
			if abs, ok := ResolveURL(origin, img); ok {
				item.ImageURL = abs
			}
		}

		items = append(items, item)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items
}

// ResolveURL resolves ref against base and reports whether the result is an absolute http(s) URL.
func ResolveURL(base *url.URL, ref string) (string, bool) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	if base != nil {
		parsed = base.ResolveReference(parsed)
	}
	if parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", false
	}
	return parsed.String(), true
}

func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}
	if t, err := dateparse.ParseAny(value); err == nil {
		return &t
	}
	return nil
}

// Truncate cuts text to at most maxChars runes.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxChars])
}

func (e *Extractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
