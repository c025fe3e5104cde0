package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Newsroom/internal/domain"
	"Newsroom/internal/ports"
)

type stubGenerator struct {
	answer string
	err    error
	last   ports.Prompt
}

func (s *stubGenerator) Generate(_ context.Context, p ports.Prompt) (string, error) {
	s.last = p
	return s.answer, s.err
}

func TestExtractResolvesAndValidates(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answer: "```json\n" + `{"items":[
		{"title":"  Relative news ","url":"/news/x","summary":" short ","publishedAt":"2026-01-02T10:00:00Z"},
		{"url":"https://n.com/no-title"},
		{"title":"No url"},
		{"title":"Bad url","url":"http://[::1"},
		{"title":"Absolute","url":"https://other.com/a","imageUrl":"//cdn.n.com/i.jpg","publishedAt":"yesterday-ish"}
	]}` + "\n```"}

	items, err := New(gen, 0, nil).Extract(context.Background(), "https://n.com/list", "N", "page text", 10)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Relative news", items[0].Title)
	assert.Equal(t, "https://n.com/news/x", items[0].URL)
	assert.Equal(t, "short", items[0].Summary)
	require.NotNil(t, items[0].PublishedAt)
	assert.Equal(t, 2026, items[0].PublishedAt.Year())

	assert.Equal(t, "https://other.com/a", items[1].URL)
	assert.Equal(t, "https://cdn.n.com/i.jpg", items[1].ImageURL)
	assert.Nil(t, items[1].PublishedAt)
}

func TestExtractHonorsLimitAndOrder(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answer: `{"items":[
		{"title":"a","url":"/a"},{"title":"b","url":"/b"},{"title":"c","url":"/c"}
	]}`}

	items, err := New(gen, 0, nil).Extract(context.Background(), "https://n.com/list", "N", "text", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "https://n.com/a", items[0].URL)
	assert.Equal(t, "https://n.com/b", items[1].URL)
}

func TestExtractEmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answer: `{"items":[]}`}
	items, err := New(gen, 0, nil).Extract(context.Background(), "https://n.com", "N", "text", 5)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestExtractMalformedResponseIsFatal(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answer: "I could not find any news."}
	_, err := New(gen, 0, nil).Extract(context.Background(), "https://n.com", "N", "text", 5)
	require.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestExtractPropagatesGeneratorError(t *testing.T) {
	t.Parallel()

	boom := errors.New("llm down")
	_, err := New(&stubGenerator{err: boom}, 0, nil).Extract(context.Background(), "https://n.com", "N", "text", 5)
	require.ErrorIs(t, err, boom)
}

func TestExtractTruncatesPrompt(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{answer: `{"items":[]}`}
	long := strings.Repeat("á", 50)
	_, err := New(gen, 10, nil).Extract(context.Background(), "https://n.com", "N", long, 5)
	require.NoError(t, err)
	assert.Contains(t, gen.last.User, strings.Repeat("á", 10))
	assert.NotContains(t, gen.last.User, strings.Repeat("á", 11))
}
