package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	for _, path := range [][]string{
		{"sync"}, {"serve"}, {"draft", "feed"}, {"draft", "pauta"}, {"draft", "prompt"}, {"source", "add"}, {"pauta", "add"},
		{"category", "add"}, {"feed", "prune"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestDraftFeedRequiresID(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"draft", "feed"})
	require.Error(t, root.Execute())
}

func TestCategoryAddWarnsWithoutDatabase(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("NEWSROOM_CONFIG", "")

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"--owner", "o1", "category", "add", "Economia"})
	require.NoError(t, root.Execute())

	assert.True(t, strings.HasSuffix(strings.TrimSpace(out.String()), "\tEconomia"), out.String())
	assert.Contains(t, errOut.String(), "in memory only")
}

func TestFeedPruneRequiresIDs(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"feed", "prune"})
	require.Error(t, root.Execute())
}
