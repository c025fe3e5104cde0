package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Newsroom/internal/domain"
)

type namedScanner string

func (n namedScanner) Name() string { return string(n) }

func (n namedScanner) Scan(context.Context, Request) ([]domain.ExtractedItem, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(namedScanner("llm"))

	got, err := reg.Resolve(" LLM ")
	require.NoError(t, err)
	assert.Equal(t, "llm", got.Name())

	_, err = reg.Resolve("feed")
	require.ErrorIs(t, err, ErrUnknownScanner)
	assert.Contains(t, err.Error(), "known: llm")

	var zero Registry
	zero.Register(namedScanner("feed"))
	zero.Register(nil)
	_, err = zero.Resolve("feed")
	require.NoError(t, err)
}

func TestRegistryValidate(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(namedScanner("llm"), namedScanner("feed"))
	assert.Equal(t, []string{"feed", "llm"}, reg.Names())

	require.NoError(t, reg.Validate([]string{"feed", "llm"}))
	require.Error(t, reg.Validate(nil))

	err := reg.Validate([]string{"llm", "arxiv", "sitemap"})
	require.ErrorIs(t, err, ErrUnknownScanner)
	assert.Contains(t, err.Error(), "arxiv")
	assert.Contains(t, err.Error(), "sitemap")
}
