package reader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPReaderFetch(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("  # Title\n\nbody  "))
	}))
	defer srv.Close()

	text, err := NewHTTPReader(srv.URL+"/", "secret", time.Second).Fetch(context.Background(), "https://n.com/list")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nbody", text)
	assert.Equal(t, "/https://n.com/list", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestHTTPReaderNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewHTTPReader(srv.URL+"/", "", time.Second).Fetch(context.Background(), "https://n.com")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
	assert.Equal(t, "https://n.com", fetchErr.URL)
}

func TestHTTPReaderNetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/"
	srv.Close()

	_, err := NewHTTPReader(endpoint, "", time.Second).Fetch(context.Background(), "https://n.com")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, fetchErr.StatusCode)
}

type mapCache struct {
	data   map[string]string
	getErr error
}

func (m *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.data[key] = value
	return nil
}

type countingFetcher struct {
	calls int
	err   error
}

func (c *countingFetcher) Fetch(context.Context, string) (string, error) {
	c.calls++
	return "rendered", c.err
}

func TestCachedFetcher(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{}
	cache := &mapCache{data: map[string]string{}}
	f := NewCachedFetcher(next, cache, time.Minute, nil)

	for i := 0; i < 3; i++ {
		text, err := f.Fetch(context.Background(), "https://n.com")
		require.NoError(t, err)
		assert.Equal(t, "rendered", text)
	}
	assert.Equal(t, 1, next.calls)
}

func TestCachedFetcherBypassesBrokenCache(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{}
	f := NewCachedFetcher(next, &mapCache{data: map[string]string{}, getErr: errors.New("redis down")}, time.Minute, nil)

	text, err := f.Fetch(context.Background(), "https://n.com")
	require.NoError(t, err)
	assert.Equal(t, "rendered", text)

	failing := NewCachedFetcher(&countingFetcher{err: errors.New("boom")}, &mapCache{data: map[string]string{}}, time.Minute, nil)
	_, err = failing.Fetch(context.Background(), "https://n.com")
	require.Error(t, err)
}

func TestRedisCache(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cache := NewRedisCache(mr.Addr(), "", 0)
	defer cache.Close()

	ctx := context.Background()
	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "k", "page", time.Minute))
	val, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "page", val)

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadabilityReaderFetch(t *testing.T) {
	t.Parallel()

	paragraph := "O Congresso aprovou nesta terça-feira a reforma que altera as regras de tributação sobre o consumo, " +
		"com impacto previsto para estados e municípios ao longo da próxima década, segundo o relator do texto."
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Reforma aprovada</title></head><body>
<nav><a href="/">Início</a></nav>
<article><h1>Reforma aprovada</h1>
<p>` + paragraph + `</p><p>` + paragraph + `</p><p>` + paragraph + `</p>
</article></body></html>`))
	}))
	defer srv.Close()

	text, err := NewReadabilityReader(time.Second).Fetch(context.Background(), srv.URL+"/noticia")
	require.NoError(t, err)
	assert.Contains(t, text, "# Reforma aprovada")
	assert.Contains(t, text, "reforma que altera as regras")
}

func TestReadabilityReaderErrors(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReadabilityReader(0).Fetch(ctx, "https://n.com")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.ErrorIs(t, err, context.Canceled)

	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL + "/gone"
	srv.Close()
	_, err = NewReadabilityReader(time.Second).Fetch(context.Background(), target)
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, target, fetchErr.URL)
}

func TestReadabilityReaderHonorsCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	started := time.Now()
	_, err := NewReadabilityReader(10*time.Second).Fetch(ctx, srv.URL+"/lenta")
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestReadabilityReaderNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewReadabilityReader(time.Second).Fetch(context.Background(), srv.URL+"/nada")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}
