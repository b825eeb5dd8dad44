package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/unit-browser/internal/store"
)

// Cache stores downloaded vocabularies keyed by URL.
type Cache interface {
	GetFreshSource(ctx context.Context, url string) (*store.Source, error)
	UpsertSource(ctx context.Context, src *store.Source, ttl time.Duration) error
	ExpireSource(ctx context.Context, url string) error
}

// CachedSource wraps a URL fetch with a database-backed cache.
type CachedSource struct {
	url       string
	cache     Cache
	options   *Options
	cacheTTL  time.Duration
	skipCache bool
	logger    *slog.Logger
}

// CachedSourceConfig holds configuration for the cached source.
type CachedSourceConfig struct {
	CacheTTL  time.Duration
	SkipCache bool
	Options   *Options
	Logger    *slog.Logger
}

// DefaultCachedSourceConfig returns sensible defaults.
func DefaultCachedSourceConfig() *CachedSourceConfig {
	return &CachedSourceConfig{
		CacheTTL: store.DefaultSourceTTL,
		Options:  DefaultOptions(),
	}
}

// NewCachedSource creates a cached source for url. A nil cache fetches every time.
func NewCachedSource(url string, cache Cache, config *CachedSourceConfig) *CachedSource {
	if config == nil {
		config = DefaultCachedSourceConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = store.DefaultSourceTTL
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{
		url:       url,
		cache:     cache,
		options:   config.Options,
		cacheTTL:  config.CacheTTL,
		skipCache: config.SkipCache,
		logger:    logger,
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// Describe returns the URL.
func (s *CachedSource) Describe() string {
	return s.url
}

// Load returns the cached text if still fresh, otherwise fetches and caches it.
func (s *CachedSource) Load(ctx context.Context) (*Result, error) {
	res, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

// Fetch is Load with cache metadata.
func (s *CachedSource) Fetch(ctx context.Context) (*CachedResult, error) {
	if !s.skipCache && s.cache != nil {
		cached, err := s.cache.GetFreshSource(ctx, s.url)
		if err != nil {
			return nil, fmt.Errorf("failed to check cache: %w", err)
		}
		if cached != nil {
			s.logger.Debug("vocabulary cache hit", "url", s.url, "fetched_at", cached.FetchedAt)
			text, err := VocabularyText(cached.Body, cached.ContentType)
			if err != nil {
				return nil, &Error{URL: s.url, Message: "failed to unwrap cached HTML", Cause: err}
			}
			return &CachedResult{
				Result: &Result{
					URL:         cached.URL,
					Body:        cached.Body,
					Text:        text,
					ContentType: cached.ContentType,
					StatusCode:  cached.StatusCode,
				},
				FromCache: true,
			}, nil
		}
	}

	result, err := URL(ctx, s.url, s.options)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		src := &store.Source{
			URL:         s.url,
			Body:        result.Body,
			ContentType: result.ContentType,
			StatusCode:  result.StatusCode,
		}
		if err := s.cache.UpsertSource(ctx, src, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache vocabulary", "url", s.url, "error", err)
		}
	}

	return &CachedResult{Result: result}, nil
}

// Invalidate marks the cached entry as stale so the next Load refetches.
func (s *CachedSource) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.ExpireSource(ctx, s.url)
}
