package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/unit-browser/internal/store"
)

type memoryCache struct {
	entries   map[string]*store.Source
	getErr    error
	upsertErr error
	ttls      []time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*store.Source{}}
}

func (c *memoryCache) GetFreshSource(_ context.Context, url string) (*store.Source, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	src, ok := c.entries[url]
	if !ok || time.Now().After(src.ExpiresAt) {
		return nil, nil
	}
	return src, nil
}

func (c *memoryCache) UpsertSource(_ context.Context, src *store.Source, ttl time.Duration) error {
	if c.upsertErr != nil {
		return c.upsertErr
	}
	c.ttls = append(c.ttls, ttl)
	src.FetchedAt = time.Now()
	src.ExpiresAt = src.FetchedAt.Add(ttl)
	c.entries[src.URL] = src
	return nil
}

func (c *memoryCache) ExpireSource(_ context.Context, url string) error {
	if src, ok := c.entries[url]; ok {
		src.ExpiresAt = time.Now().Add(-time.Second)
	}
	return nil
}

func countingServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(turtle))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCachedSource_FetchesOnceWithinTTL(t *testing.T) {
	var hits atomic.Int32
	server := countingServer(t, &hits)
	cache := newMemoryCache()
	src := NewCachedSource(server.URL, cache, &CachedSourceConfig{CacheTTL: time.Hour})

	first, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Text, second.Text)

	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, []time.Duration{time.Hour}, cache.ttls)
}

func TestCachedSource_Invalidate(t *testing.T) {
	var hits atomic.Int32
	server := countingServer(t, &hits)
	src := NewCachedSource(server.URL, newMemoryCache(), nil)

	_, err := src.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, src.Invalidate(context.Background()))
	_, err = src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
}

func TestCachedSource_SkipCache(t *testing.T) {
	var hits atomic.Int32
	server := countingServer(t, &hits)
	src := NewCachedSource(server.URL, newMemoryCache(), &CachedSourceConfig{SkipCache: true})

	for i := 0; i < 2; i++ {
		res, err := src.Fetch(context.Background())
		require.NoError(t, err)
		assert.False(t, res.FromCache)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestCachedSource_NilCache(t *testing.T) {
	var hits atomic.Int32
	server := countingServer(t, &hits)
	src := NewCachedSource(server.URL, nil, nil)

	_, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.NoError(t, src.Invalidate(context.Background()))
	assert.Equal(t, server.URL, src.Describe())
}

func TestCachedSource_CacheReadErrorFails(t *testing.T) {
	var hits atomic.Int32
	server := countingServer(t, &hits)
	cache := newMemoryCache()
	cache.getErr = errors.New("db down")
	src := NewCachedSource(server.URL, cache, nil)

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check cache")
	assert.Equal(t, int32(0), hits.Load())
}

func TestCachedSource_CacheWriteErrorIsNotFatal(t *testing.T) {
	var hits atomic.Int32
	server := countingServer(t, &hits)
	cache := newMemoryCache()
	cache.upsertErr = errors.New("read-only")
	src := NewCachedSource(server.URL, cache, nil)

	result, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, turtle, result.Text)
}

func TestNewCachedSource_Defaults(t *testing.T) {
	src := NewCachedSource("https://example.org", nil, &CachedSourceConfig{})
	assert.Equal(t, store.DefaultSourceTTL, src.cacheTTL)
	assert.NotNil(t, src.options)
	assert.NotNil(t, src.logger)
}
