package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"Newsroom/internal/domain"
)

// BatchResult describes a partially successful batch conversion.
type BatchResult struct {
	Processed int
	Errored   int
	Drafts    []*domain.Article
	Errors    map[string]error
}

// ConvertFeedItem drafts an article from a stored feed item and marks the item read.
func (o *Orchestrator) ConvertFeedItem(ctx context.Context, ownerID, itemID string) (*domain.Article, error) {
	if o.feedItems == nil {
		return nil, errors.New("convert feed item: feed item repository is not configured")
	}

	item, err := o.feedItems.GetFeedItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load feed item: %w", err)
	}

	article, err := o.GenerateDraft(ctx, FeedItemBrief{OwnerID: ownerID, Item: item})
	if err != nil {
		return nil, err
	}

	if err := o.feedItems.MarkFeedItemRead(ctx, item.ID, true); err != nil {
		o.log(slog.LevelWarn, "mark feed item read failed", "id", item.ID, "error", err)
	}
	return article, nil
}

// ConvertPauta drafts an article from a pauta and marks the pauta read.
func (o *Orchestrator) ConvertPauta(ctx context.Context, pautaID string) (*domain.Article, error) {
	if o.pautas == nil {
		return nil, errors.New("convert pauta: pauta repository is not configured")
	}

	pauta, err := o.pautas.GetPauta(ctx, pautaID)
	if err != nil {
		return nil, fmt.Errorf("load pauta: %w", err)
	}

	article, err := o.GenerateDraft(ctx, PautaBrief{Pauta: pauta})
	if err != nil {
		return nil, err
	}

	if err := o.pautas.MarkPautaRead(ctx, pauta.ID); err != nil {
		o.log(slog.LevelWarn, "mark pauta read failed", "id", pauta.ID, "error", err)
	}
	return article, nil
}

// ConvertPrompt drafts an article from free text.
func (o *Orchestrator) ConvertPrompt(ctx context.Context, ownerID, prompt string) (*domain.Article, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("convert prompt: %w", domain.ErrNoContent)
	}
	return o.GenerateDraft(ctx, PromptBrief{OwnerID: ownerID, Prompt: prompt})
}

// ConvertPautas converts pautas one after another. Individual failures are collected, never returned.
func (o *Orchestrator) ConvertPautas(ctx context.Context, ids []string) BatchResult {
	result := BatchResult{Errors: make(map[string]error)}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			result.Errored++
			result.Errors[id] = err
			continue
		}

		article, err := o.ConvertPauta(ctx, id)
		if err != nil {
			result.Errored++
			result.Errors[id] = err
			o.log(slog.LevelWarn, "pauta conversion failed", "id", id, "error", err)
			continue
		}
		result.Processed++
		result.Drafts = append(result.Drafts, article)
	}
	return result
}
