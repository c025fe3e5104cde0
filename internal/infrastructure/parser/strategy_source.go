package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"Newsroom/internal/domain"
	"Newsroom/internal/ports"
	"Newsroom/internal/scanner"
)

// StrategySource implements ports.ItemSource by trying registered scanner strategies in order.
type StrategySource struct {
	registry   *scanner.Registry
	strategies []string
	logger     *slog.Logger
}

var _ ports.ItemSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with the configured strategy order.
func NewStrategySource(reg *scanner.Registry, strategies []string, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry:   reg,
		strategies: strategies,
		logger:     log,
	}
}

// Collect returns the items of the first strategy that succeeds for the source.
func (s *StrategySource) Collect(ctx context.Context, source domain.Source, limit int) ([]domain.ExtractedItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}
	if len(s.strategies) == 0 {
		return nil, fmt.Errorf("no scanner strategies configured")
	}

	req := scanner.Request{Source: source, Limit: limit}

	var errs []error
	for _, name := range s.strategies {
		strategy, err := s.registry.Resolve(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		s.debug("scan source", "source", source.URL, "scanner", name)
		items, err := strategy.Scan(ctx, req)
		if err != nil {
			s.debug("scanner failed", "source", source.URL, "scanner", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		s.debug("source produced items", "source", source.URL, "scanner", name, "count", len(items))
		return items, nil
	}

	return nil, fmt.Errorf("source %s: %w", source.URL, errors.Join(errs...))
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
