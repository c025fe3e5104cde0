package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(batchEnv, "")

	cfg := Load()
	assert.Equal(t, 3, cfg.Pipeline.BatchConcurrency)
	assert.Equal(t, []string{"llm"}, cfg.Pipeline.Strategies)
	assert.Equal(t, 15*time.Second, cfg.Pipeline.HTMLFetchTimeout)
	assert.Equal(t, int64(5<<20), cfg.Pipeline.MaxImageBytes)
	assert.False(t, cfg.Pipeline.RejectLogoFallback)
	assert.False(t, cfg.Pipeline.CanonicalizeURLs)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "newsroom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scheduler:
  interval: 30m
  timezone: America/Sao_Paulo
llm:
  provider: gemini
pipeline:
  batchConcurrency: 5
  rejectLogoFallback: true
  strategies: [feed, llm]
  tagLimit: 0
`), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(batchEnv, "7")
	t.Setenv(llmAPIKeyEnv, "secret")
	t.Setenv(s3BucketEnv, "media")

	cfg := Load()
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, "America/Sao_Paulo", cfg.Scheduler.Location().String())
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, "media", cfg.ObjectStore.Bucket)
	assert.Equal(t, 7, cfg.Pipeline.BatchConcurrency)
	assert.True(t, cfg.Pipeline.RejectLogoFallback)
	assert.Equal(t, []string{"feed", "llm"}, cfg.Pipeline.Strategies)
	assert.Equal(t, 5, cfg.Pipeline.TagLimit)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoadBrokenFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: [not a map"), 0o600))
	t.Setenv(configPathEnv, path)
	t.Setenv(batchEnv, "")

	cfg := Load()
	assert.Equal(t, 3, cfg.Pipeline.BatchConcurrency)
}

func TestUnknownTimezoneFallsBackToUTC(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Scheduler.Timezone = "Mars/Olympus"
	cfg.bindTimezone()
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}
