package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"Newsroom/internal/domain"
	"Newsroom/internal/ports"
)

// MemoryStore is an in-process implementation of every repository port.
// It enforces the same uniqueness rules as the Postgres schema.
type MemoryStore struct {
	mu sync.Mutex

	sources    map[string]domain.Source
	feedItems  map[string]domain.FeedItem
	feedByURL  map[string]string
	pautas     map[string]domain.Pauta
	articles   map[string]domain.Article
	bySlug     map[string]string
	categories []domain.Category
	tags       map[string]domain.Tag
	nextID     int64
	now        func() time.Time
}

var (
	_ ports.SourceRepository   = (*MemoryStore)(nil)
	_ ports.FeedItemRepository = (*MemoryStore)(nil)
	_ ports.PautaRepository    = (*MemoryStore)(nil)
	_ ports.ArticleRepository  = (*MemoryStore)(nil)
	_ ports.CategoryRepository = (*MemoryStore)(nil)
	_ ports.TagRepository      = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sources:   make(map[string]domain.Source),
		feedItems: make(map[string]domain.FeedItem),
		feedByURL: make(map[string]string),
		pautas:    make(map[string]domain.Pauta),
		articles:  make(map[string]domain.Article),
		bySlug:    make(map[string]string),
		tags:      make(map[string]domain.Tag),
		now:       time.Now,
	}
}

func (m *MemoryStore) stamp(id *string, created *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if created.IsZero() {
		*created = m.now().UTC()
	}
}

// ListSources returns sources in creation order.
func (m *MemoryStore) ListSources(_ context.Context, ownerID string) ([]domain.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]domain.Source, 0, len(m.sources))
	for _, s := range m.sources {
		if ownerID == "" || s.OwnerID == ownerID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// CreateSource stores a source.
func (m *MemoryStore) CreateSource(_ context.Context, source *domain.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stamp(&source.ID, &source.CreatedAt)
	if _, ok := m.sources[source.ID]; ok {
		return fmt.Errorf("insert source: %w", domain.ErrDuplicate)
	}
	m.sources[source.ID] = *source
	return nil
}

// FeedItemExists reports whether url is stored.
func (m *MemoryStore) FeedItemExists(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.feedByURL[url]
	return ok, nil
}

// CreateFeedItem stores item unless its url is taken.
func (m *MemoryStore) CreateFeedItem(_ context.Context, item *domain.FeedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.feedByURL[item.URL]; ok {
		return fmt.Errorf("insert feed item: %w", domain.ErrDuplicate)
	}
	m.stamp(&item.ID, &item.CreatedAt)
	m.feedItems[item.ID] = *item
	m.feedByURL[item.URL] = item.ID
	return nil
}

// GetFeedItem loads one item.
func (m *MemoryStore) GetFeedItem(_ context.Context, id string) (domain.FeedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.feedItems[id]
	if !ok {
		return domain.FeedItem{}, fmt.Errorf("feed item %s: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

// MarkFeedItemRead sets the read flag.
func (m *MemoryStore) MarkFeedItemRead(_ context.Context, id string, read bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.feedItems[id]
	if !ok {
		return fmt.Errorf("mark feed item %s: %w", id, domain.ErrNotFound)
	}
	item.Read = read
	m.feedItems[id] = item
	return nil
}

// DeleteFeedItems removes items and returns how many existed.
func (m *MemoryStore) DeleteFeedItems(_ context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, id := range ids {
		item, ok := m.feedItems[id]
		if !ok {
			continue
		}
		delete(m.feedItems, id)
		delete(m.feedByURL, item.URL)
		n++
	}
	return n, nil
}

// FeedItems returns a snapshot of all stored items ordered by creation.
func (m *MemoryStore) FeedItems() []domain.FeedItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]domain.FeedItem, 0, len(m.feedItems))
	for _, item := range m.feedItems {
		result = append(result, item)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

// GetPauta loads one pauta.
func (m *MemoryStore) GetPauta(_ context.Context, id string) (domain.Pauta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pautas[id]
	if !ok {
		return domain.Pauta{}, fmt.Errorf("pauta %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// CreatePauta stores a pauta.
func (m *MemoryStore) CreatePauta(_ context.Context, pauta *domain.Pauta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stamp(&pauta.ID, &pauta.CreatedAt)
	m.pautas[pauta.ID] = *pauta
	return nil
}

// MarkPautaRead flags a pauta as consumed.
func (m *MemoryStore) MarkPautaRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pautas[id]
	if !ok {
		return fmt.Errorf("mark pauta %s: %w", id, domain.ErrNotFound)
	}
	p.Read = true
	m.pautas[id] = p
	return nil
}

// SlugExists reports whether slug is taken.
func (m *MemoryStore) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bySlug[slug]
	return ok, nil
}

// CreateArticle stores article unless its slug is taken.
func (m *MemoryStore) CreateArticle(_ context.Context, article *domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bySlug[article.Slug]; ok {
		return fmt.Errorf("insert article: %w", domain.ErrDuplicate)
	}
	m.stamp(&article.ID, &article.CreatedAt)
	m.articles[article.ID] = *article
	m.bySlug[article.Slug] = article.ID
	return nil
}

// Articles returns a snapshot of stored articles ordered by creation.
func (m *MemoryStore) Articles() []domain.Article {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]domain.Article, 0, len(m.articles))
	for _, a := range m.articles {
		result = append(result, a)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

// ListCategories returns the owner's categories in id order.
func (m *MemoryStore) ListCategories(_ context.Context, ownerID string) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []domain.Category
	for _, c := range m.categories {
		if c.OwnerID == ownerID {
			result = append(result, c)
		}
	}
	return result, nil
}

// CreateCategory adds a category.
func (m *MemoryStore) CreateCategory(_ context.Context, ownerID, name string) (domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	c := domain.Category{ID: m.nextID, OwnerID: ownerID, Name: name}
	m.categories = append(m.categories, c)
	return c, nil
}

// FindTagByName matches the exact name within the owner scope.
func (m *MemoryStore) FindTagByName(_ context.Context, ownerID, name string) (domain.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tags[tagKey(ownerID, name)]
	if !ok {
		return domain.Tag{}, fmt.Errorf("tag %q: %w", name, domain.ErrNotFound)
	}
	return t, nil
}

// CreateTag inserts a tag unless the owner already has one with that name.
func (m *MemoryStore) CreateTag(_ context.Context, ownerID, name string) (domain.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := tagKey(ownerID, name)
	if _, ok := m.tags[key]; ok {
		return domain.Tag{}, fmt.Errorf("insert tag: %w", domain.ErrDuplicate)
	}
	m.nextID++
	t := domain.Tag{ID: m.nextID, OwnerID: ownerID, Name: name}
	m.tags[key] = t
	return t, nil
}

// Tags returns every tag of the owner ordered by id.
func (m *MemoryStore) Tags(ownerID string) []domain.Tag {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []domain.Tag
	for _, t := range m.tags {
		if t.OwnerID == ownerID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func tagKey(ownerID, name string) string {
	return ownerID + "\x00" + name
}
