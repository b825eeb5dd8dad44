package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/unit-browser/internal/config"
	"github.com/jonathan/unit-browser/internal/observability"
	"github.com/jonathan/unit-browser/internal/pipeline"
	"github.com/jonathan/unit-browser/internal/rendering"
	"github.com/jonathan/unit-browser/internal/server/ratelimit"
	"github.com/jonathan/unit-browser/internal/store"
	"github.com/jonathan/unit-browser/internal/types"
)

// Loader builds a fresh catalog from the configured source.
type Loader func(ctx context.Context) (*pipeline.Catalog, error)

// SnapshotStore reads saved snapshots.
type SnapshotStore interface {
	ListSnapshots(ctx context.Context, limit uint64) ([]store.Snapshot, error)
	GetSnapshot(ctx context.Context, snapshotID uuid.UUID) (*store.Snapshot, error)
	ListUnits(ctx context.Context, snapshotID uuid.UUID, letter string) ([]*types.Unit, error)
}

// Options holds everything New needs. Only Load is required.
type Options struct {
	Config     config.ServerConfig
	Load       Loader
	Renderer   *rendering.Renderer
	Limiter    *ratelimit.Limiter
	Metrics    *observability.Metrics
	Logger     *slog.Logger
	Snapshots  SnapshotStore // enables /snapshots routes
	WatchPaths []string      // local input files reloaded on change
}

// Server represents the HTTP server
type Server struct {
	httpServer      *http.Server
	handler         http.Handler
	shutdownTimeout time.Duration
	title           string

	load     Loader
	reloadMu sync.Mutex
	catalog  atomic.Pointer[pipeline.Catalog]

	renderer    *rendering.Renderer
	rateLimiter *ratelimit.Limiter
	metrics     *observability.Metrics
	logger      *slog.Logger
	snapshots   SnapshotStore
	watcher     *Watcher
}

// New creates a server and performs the initial load. A failed initial load
// is returned as an error; later reload failures keep the current catalog.
func New(ctx context.Context, opts Options) (*Server, error) {
	if opts.Load == nil {
		return nil, errors.New("server requires a catalog loader")
	}

	s := &Server{
		shutdownTimeout: opts.Config.ShutdownTimeout,
		title:           opts.Config.Title,
		load:            opts.Load,
		renderer:        opts.Renderer,
		rateLimiter:     opts.Limiter,
		metrics:         opts.Metrics,
		logger:          opts.Logger,
		snapshots:       opts.Snapshots,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics()
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(nil)
	}
	if s.renderer == nil {
		renderer, err := rendering.NewRenderer(opts.Config.Template)
		if err != nil {
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
		s.renderer = renderer
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 10 * time.Second
	}

	if _, err := s.Reload(ctx); err != nil {
		s.rateLimiter.Stop()
		return nil, fmt.Errorf("initial load failed: %w", err)
	}

	if opts.Config.Watch && len(opts.WatchPaths) > 0 {
		watcher, err := NewWatcher(WatcherConfig{
			Paths:         opts.WatchPaths,
			DebounceDelay: opts.Config.WatchDebounce,
			Logger:        s.logger,
			OnChange: func(ctx context.Context) {
				s.Reload(ctx) //nolint:errcheck // logged by Reload
			},
		})
		if err != nil {
			s.rateLimiter.Stop()
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
		s.watcher = watcher
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /units", s.handleUnits)
	mux.HandleFunc("GET /bins", s.handleBins)
	mux.HandleFunc("POST /reload", s.handleReload)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	if s.snapshots != nil {
		mux.HandleFunc("GET /snapshots", s.handleListSnapshots)
		mux.HandleFunc("GET /snapshots/{id}/units", s.handleSnapshotUnits)
	}

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         opts.Config.Addr(),
		Handler:      s.handler,
		ReadTimeout:  opts.Config.ReadTimeout,
		WriteTimeout: opts.Config.WriteTimeout,
		IdleTimeout:  opts.Config.IdleTimeout,
	}

	return s, nil
}

// Handler returns the full middleware chain and routes.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Catalog returns the catalog currently being served.
func (s *Server) Catalog() *pipeline.Catalog {
	return s.catalog.Load()
}

// Reload builds a new catalog and swaps it in. On failure the previous
// catalog stays in place.
func (s *Server) Reload(ctx context.Context) (*pipeline.Catalog, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	catalog, err := s.load(ctx)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.ObserveLoad(err, elapsed, 0, nil, time.Time{})
		s.logger.Error("catalog load failed", "error", err, "duration", elapsed)
		return nil, err
	}

	s.catalog.Store(catalog)
	s.metrics.ObserveLoad(nil, elapsed, len(catalog.Units), catalog.Bins, catalog.LoadedAt)
	s.logger.Info("catalog loaded",
		"source", catalog.Source,
		"units", len(catalog.Units),
		"letters", len(catalog.Bins),
		"duration", elapsed)
	return catalog, nil
}

// Start listens until ctx is cancelled, then shuts down gracefully. The file
// watcher, when configured, runs alongside the listener.
func (s *Server) Start(ctx context.Context) error {
	defer s.rateLimiter.Stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if s.watcher != nil {
		g.Go(func() error {
			return s.watcher.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
