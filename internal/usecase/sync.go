package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"Newsroom/internal/domain"
	"Newsroom/internal/metrics"
	"Newsroom/internal/ports"
)

const defaultBatchSize = 3

// SyncStats summarizes one synchronization run.
type SyncStats struct {
	SourcesProcessed int
	SourcesErrored   int
	ItemsFound       int
	ItemsNew         int
	ItemsDuplicate   int
	ItemsFailed      int
}

// SyncDeps wires the adapters used by the Synchronizer.
type SyncDeps struct {
	Sources   ports.SourceRepository
	Items     ports.FeedItemRepository
	Collector ports.ItemSource
	Notifier  ports.Notifier
	Logger    *slog.Logger
}

// SyncOptions tune batching and URL handling.
type SyncOptions struct {
	BatchSize    int
	Limit        int
	Canonicalize bool
}

// Synchronizer pulls every source in fixed-width batches and stores new feed items.
type Synchronizer struct {
	sources   ports.SourceRepository
	items     ports.FeedItemRepository
	collector ports.ItemSource
	notifier  ports.Notifier
	logger    *slog.Logger
	opts      SyncOptions
}

// NewSynchronizer constructs the sync use case.
func NewSynchronizer(deps SyncDeps, opts SyncOptions) *Synchronizer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Synchronizer{
		sources:   deps.Sources,
		items:     deps.Items,
		collector: deps.Collector,
		notifier:  deps.Notifier,
		logger:    deps.Logger,
		opts:      opts,
	}
}

type collected struct {
	items []domain.ExtractedItem
	err   error
}

// SyncOwner loads the owner's sources (all sources when ownerID is empty) and syncs them.
func (s *Synchronizer) SyncOwner(ctx context.Context, ownerID string) (SyncStats, error) {
	if s.sources == nil {
		return SyncStats{}, errors.New("sync: source repository is not configured")
	}

	sources, err := s.sources.ListSources(ctx, ownerID)
	if err != nil {
		return SyncStats{}, fmt.Errorf("list sources: %w", err)
	}
	return s.SyncAll(ctx, sources), nil
}

// SyncAll processes sources in order, batch by batch. A failing source never cancels its siblings,
// and items of a batch are persisted only after the whole batch has been collected.
func (s *Synchronizer) SyncAll(ctx context.Context, sources []domain.Source) SyncStats {
	started := time.Now()
	var stats SyncStats

	for start := 0; start < len(sources); start += s.opts.BatchSize {
		if ctx.Err() != nil {
			s.log(slog.LevelWarn, "sync interrupted", "remaining", len(sources)-start, "error", ctx.Err())
			break
		}

		end := min(start+s.opts.BatchSize, len(sources))
		batch := sources[start:end]
		results := s.collectBatch(ctx, batch)

		for i, source := range batch {
			res := results[i]
			if res.err != nil {
				stats.SourcesErrored++
				metrics.RecordSource("error")
				s.log(slog.LevelWarn, "source sync failed", "source", source.URL, "error", res.err)
				continue
			}

			stats.SourcesProcessed++
			stats.ItemsFound += len(res.items)
			metrics.RecordSource("ok")
			for _, item := range res.items {
				s.persist(ctx, source, item, &stats)
			}
		}
	}

	metrics.RecordItems("new", stats.ItemsNew)
	metrics.RecordItems("duplicate", stats.ItemsDuplicate)
	metrics.RecordItems("failed", stats.ItemsFailed)
	metrics.ObserveSync(time.Since(started))

	s.log(slog.LevelInfo, "sync finished",
		"processed", stats.SourcesProcessed,
		"errored", stats.SourcesErrored,
		"found", stats.ItemsFound,
		"new", stats.ItemsNew,
		"duplicate", stats.ItemsDuplicate,
		"failed", stats.ItemsFailed,
	)
	s.notify(ctx, stats)

	return stats
}

func (s *Synchronizer) collectBatch(ctx context.Context, batch []domain.Source) []collected {
	results := make([]collected, len(batch))

	var wg sync.WaitGroup
	for i, source := range batch {
		wg.Add(1)
		go func(i int, source domain.Source) {
			defer wg.Done()
			if s.collector == nil {
				results[i].err = errors.New("item collector is not configured")
				return
			}
			items, err := s.collector.Collect(ctx, source, s.opts.Limit)
			results[i] = collected{items: items, err: err}
		}(i, source)
	}
	wg.Wait()

	return results
}

func (s *Synchronizer) persist(ctx context.Context, source domain.Source, extracted domain.ExtractedItem, stats *SyncStats) {
	item := extracted.ToFeedItem(source.ID)
	if s.opts.Canonicalize {
		if canonical, err := CanonicalizeURL(item.URL); err == nil {
			item.URL = canonical
		}
	}

	exists, err := s.items.FeedItemExists(ctx, item.URL)
	if err != nil {
		stats.ItemsFailed++
		s.log(slog.LevelWarn, "feed item lookup failed", "url", item.URL, "error", err)
		return
	}
	if exists {
		stats.ItemsDuplicate++
		return
	}

	err = s.items.CreateFeedItem(ctx, &item)
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		stats.ItemsDuplicate++
	case err != nil:
		stats.ItemsFailed++
		s.log(slog.LevelWarn, "feed item insert failed", "url", item.URL, "error", err)
	default:
		stats.ItemsNew++
	}
}

func (s *Synchronizer) notify(ctx context.Context, stats SyncStats) {
	if s.notifier == nil || stats.ItemsNew == 0 {
		return
	}
	msg := fmt.Sprintf("Sincronização concluída: %d novos itens de %d fontes (%d com erro).",
		stats.ItemsNew, stats.SourcesProcessed, stats.SourcesErrored)
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.log(slog.LevelWarn, "sync notification failed", "error", err)
	}
}

func (s *Synchronizer) log(level slog.Level, msg string, args ...any) {
	if s.logger != nil {
		s.logger.Log(context.Background(), level, msg, args...)
	}
}
