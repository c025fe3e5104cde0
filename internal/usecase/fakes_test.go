package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"Newsroom/internal/domain"
	"Newsroom/internal/infrastructure/storage"
	"Newsroom/internal/ports"
)

type collectResult struct {
	items []domain.ExtractedItem
	err   error
}

type fakeCollector struct {
	results  map[string]collectResult
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeCollector) Collect(_ context.Context, source domain.Source, _ int) ([]domain.ExtractedItem, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	res, ok := f.results[source.URL]
	if !ok {
		return nil, nil
	}
	return res.items, res.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	text, ok := f.pages[url]
	if !ok {
		return "", errors.New("reader returned status 404")
	}
	return text, nil
}

type reply struct {
	text string
	err  error
}

// routedGenerator answers by recognizing which step issued the prompt.
type routedGenerator struct {
	mu       sync.Mutex
	article  reply
	category reply
	tags     reply
	prompts  []ports.Prompt
}

func (g *routedGenerator) Generate(_ context.Context, p ports.Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, p)

	switch {
	case strings.Contains(p.System, "jornalista"):
		return g.article.text, g.article.err
	case strings.Contains(p.System, "Classifique"):
		return g.category.text, g.category.err
	case strings.Contains(p.System, "tags"):
		return g.tags.text, g.tags.err
	}
	return "", errors.New("unexpected prompt")
}

func (g *routedGenerator) articlePrompt() ports.Prompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.prompts {
		if strings.Contains(p.System, "jornalista") {
			return p
		}
	}
	return ports.Prompt{}
}

type fakeResolver struct {
	url                  string
	page, markdown, hint string
	calls                int
}

func (r *fakeResolver) ResolveCoverImage(_ context.Context, pageURL, markdown, hint string) string {
	r.calls++
	r.page, r.markdown, r.hint = pageURL, markdown, hint
	return r.url
}

// racyArticles lets a competing writer take the slug right before the first insert.
type racyArticles struct {
	*storage.MemoryStore
	raced bool
}

func (r *racyArticles) CreateArticle(ctx context.Context, a *domain.Article) error {
	if !r.raced {
		r.raced = true
		if err := r.MemoryStore.CreateArticle(ctx, &domain.Article{Slug: a.Slug, Title: "concorrente"}); err != nil {
			return err
		}
	}
	return r.MemoryStore.CreateArticle(ctx, a)
}

// racyTags hides a tag from the first lookup, as if it were created concurrently.
type racyTags struct {
	*storage.MemoryStore
	hidden map[string]bool
}

func (r *racyTags) FindTagByName(ctx context.Context, ownerID, name string) (domain.Tag, error) {
	if r.hidden[name] {
		delete(r.hidden, name)
		return domain.Tag{}, domain.ErrNotFound
	}
	return r.MemoryStore.FindTagByName(ctx, ownerID, name)
}

// blindItems never sees existing urls so the insert reports the duplicate.
type blindItems struct {
	*storage.MemoryStore
}

func (b blindItems) FeedItemExists(context.Context, string) (bool, error) { return false, nil }
