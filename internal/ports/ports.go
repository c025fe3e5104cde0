package ports

import (
	"context"
	"time"

	"Newsroom/internal/domain"
)

// ContentFetcher renders an arbitrary URL into clean text through a reader service.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Prompt is a single text-generation request.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// TextGenerator calls an LLM and returns its raw text answer.
type TextGenerator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// ObjectStore persists blobs and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ImageResolver picks and re-hosts a cover image. It never fails.
type ImageResolver interface {
	ResolveCoverImage(ctx context.Context, pageURL, markdown, hint string) string
}

// ItemSource turns one registered source into extracted items.
type ItemSource interface {
	Collect(ctx context.Context, source domain.Source, limit int) ([]domain.ExtractedItem, error)
}

// SourceRepository reads registered sources.
type SourceRepository interface {
	ListSources(ctx context.Context, ownerID string) ([]domain.Source, error)
	CreateSource(ctx context.Context, source *domain.Source) error
}

// FeedItemRepository persists feed items keyed by unique URL.
type FeedItemRepository interface {
	FeedItemExists(ctx context.Context, url string) (bool, error)
	// CreateFeedItem returns domain.ErrDuplicate when the URL is already stored.
	CreateFeedItem(ctx context.Context, item *domain.FeedItem) error
	GetFeedItem(ctx context.Context, id string) (domain.FeedItem, error)
	MarkFeedItemRead(ctx context.Context, id string, read bool) error
	// DeleteFeedItems removes items by id and reports how many existed.
	DeleteFeedItems(ctx context.Context, ids []string) (int, error)
}

// PautaRepository reads and flags curated briefs.
type PautaRepository interface {
	GetPauta(ctx context.Context, id string) (domain.Pauta, error)
	CreatePauta(ctx context.Context, pauta *domain.Pauta) error
	MarkPautaRead(ctx context.Context, id string) error
}

// ArticleRepository persists draft articles keyed by unique slug.
type ArticleRepository interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	// CreateArticle returns domain.ErrDuplicate when the slug is already taken.
	CreateArticle(ctx context.Context, article *domain.Article) error
}

// CategoryRepository lists and registers owner categories.
type CategoryRepository interface {
	ListCategories(ctx context.Context, ownerID string) ([]domain.Category, error)
	CreateCategory(ctx context.Context, ownerID, name string) (domain.Category, error)
}

// TagRepository finds and lazily creates tags by exact name.
type TagRepository interface {
	// FindTagByName returns domain.ErrNotFound when absent.
	FindTagByName(ctx context.Context, ownerID, name string) (domain.Tag, error)
	// CreateTag returns domain.ErrDuplicate when a concurrent writer created it first.
	CreateTag(ctx context.Context, ownerID, name string) (domain.Tag, error)
}

// Notifier streams short messages to Telegram or other channels.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
