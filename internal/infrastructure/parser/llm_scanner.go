package parser

import (
	"context"
	"fmt"
	"log/slog"

	"Newsroom/internal/domain"
	"Newsroom/internal/ports"
	"Newsroom/internal/scanner"
)

// ItemExtractor turns fetched page text into structured items.
type ItemExtractor interface {
	Extract(ctx context.Context, sourceURL, sourceTitle, text string, limit int) ([]domain.ExtractedItem, error)
}

// LLMScanner fetches a clean rendering of the source page and lets the extractor pick items.
type LLMScanner struct {
	fetcher   ports.ContentFetcher
	extractor ItemExtractor
	logger    *slog.Logger
}

// NewLLMScanner wires the reader and the structured extractor.
func NewLLMScanner(fetcher ports.ContentFetcher, extractor ItemExtractor, logger *slog.Logger) *LLMScanner {
	return &LLMScanner{fetcher: fetcher, extractor: extractor, logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *LLMScanner) Name() string {
	return "llm"
}

// Scan reads the source page and extracts at most req.Limit items.
func (s *LLMScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ExtractedItem, error) {
	if s.fetcher == nil || s.extractor == nil {
		return nil, fmt.Errorf("llm scanner misconfigured")
	}

	text, err := s.fetcher.Fetch(ctx, req.Source.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch source %s: %w", req.Source.URL, err)
	}

	items, err := s.extractor.Extract(ctx, req.Source.URL, req.Source.Title, text, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("extract source %s: %w", req.Source.URL, err)
	}

	if s.logger != nil {
		s.logger.Debug("llm scan done", "source", req.Source.URL, "chars", len(text), "items", len(items))
	}
	return items, nil
}
