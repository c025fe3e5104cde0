package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Newsroom/internal/domain"
)

func TestMemoryFeedItemsUniqueURL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	first := &domain.FeedItem{SourceID: "s", Title: "a", URL: "https://n.com/a"}
	require.NoError(t, store.CreateFeedItem(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	err := store.CreateFeedItem(ctx, &domain.FeedItem{SourceID: "s", Title: "again", URL: "https://n.com/a"})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	exists, err := store.FeedItemExists(ctx, "https://n.com/a")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.MarkFeedItemRead(ctx, first.ID, true))
	got, err := store.GetFeedItem(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)

	n, err := store.DeleteFeedItems(ctx, []string{first.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	exists, err = store.FeedItemExists(ctx, "https://n.com/a")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.GetFeedItem(ctx, first.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryArticlesUniqueSlug(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.CreateArticle(ctx, &domain.Article{Slug: "x", Title: "X"}))
	require.ErrorIs(t, store.CreateArticle(ctx, &domain.Article{Slug: "x", Title: "Y"}), domain.ErrDuplicate)

	taken, err := store.SlugExists(ctx, "x")
	require.NoError(t, err)
	assert.True(t, taken)
	assert.Len(t, store.Articles(), 1)
}

func TestMemoryTagsScopedByOwner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	a, err := store.CreateTag(ctx, "o1", "Economia")
	require.NoError(t, err)
	_, err = store.CreateTag(ctx, "o1", "Economia")
	require.ErrorIs(t, err, domain.ErrDuplicate)
	b, err := store.CreateTag(ctx, "o2", "Economia")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	found, err := store.FindTagByName(ctx, "o1", "Economia")
	require.NoError(t, err)
	assert.Equal(t, a, found)

	_, err = store.FindTagByName(ctx, "o1", "economia")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemorySourcesAndPautas(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.CreateSource(ctx, &domain.Source{OwnerID: "o1", Title: "A", URL: "https://a.com"}))
	require.NoError(t, store.CreateSource(ctx, &domain.Source{OwnerID: "o2", Title: "B", URL: "https://b.com"}))

	all, err := store.ListSources(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	mine, err := store.ListSources(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "A", mine[0].Title)

	p := &domain.Pauta{OwnerID: "o1", Subject: "s"}
	require.NoError(t, store.CreatePauta(ctx, p))
	require.NoError(t, store.MarkPautaRead(ctx, p.ID))
	got, err := store.GetPauta(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	require.ErrorIs(t, store.MarkPautaRead(ctx, "nope"), domain.ErrNotFound)
}

func TestTranslateUniqueViolation(t *testing.T) {
	t.Parallel()

	dup := fmt.Errorf("exec: %w", &pq.Error{Code: "23505"})
	require.ErrorIs(t, translate("insert article", dup), domain.ErrDuplicate)

	other := errors.New("connection reset")
	err := translate("insert article", other)
	require.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, domain.ErrDuplicate)
}

func TestListSourcesQuery(t *testing.T) {
	t.Parallel()

	query, args, err := listSourcesQuery("o1").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, owner_id, title, url, created_at FROM sources WHERE owner_id = $1 ORDER BY created_at, id", query)
	assert.Equal(t, []any{"o1"}, args)

	query, args, err = listSourcesQuery("").ToSql()
	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
	assert.Empty(t, args)
}

func TestZipReferences(t *testing.T) {
	t.Parallel()

	refs := zipReferences([]string{"G1"}, []string{"https://g1.com", "https://x.com"})
	assert.Equal(t, []domain.Reference{{Name: "G1", URL: "https://g1.com"}, {URL: "https://x.com"}}, refs)
}
