package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/unit-browser/internal/fetch"
	"github.com/jonathan/unit-browser/internal/observability"
	"github.com/jonathan/unit-browser/internal/pipeline"
	"github.com/jonathan/unit-browser/internal/rendering"
	"github.com/jonathan/unit-browser/internal/server"
	"github.com/jonathan/unit-browser/internal/server/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the unit table over HTTP",
	Long: "Loads the vocabulary once and serves the sorted unit table with an alphabet filter bar, " +
		"JSON and file exports, per-letter counts, reloads and Prometheus metrics.",
	RunE: runServe,
}

var (
	serveSource sourceFlags
	serveHost   string
	servePort   int
	serveWatch  bool
	serveSave   bool
)

func init() {
	serveSource.register(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload when local input files change")
	serveCmd.Flags().BoolVar(&serveSave, "save", false, "Save a snapshot to the database on every load")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveWatch {
		cfg.Server.Watch = true
	}
	logger := setupLogger(cfg, cmd.ErrOrStderr())

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	if serveSave && db == nil {
		return fmt.Errorf("--save requires a database: set DATABASE_URL or database.url")
	}

	var cache fetch.Cache
	if db != nil {
		cache = db
	}
	resolved, err := buildSource(cfg, &serveSource, cache, logger)
	if err != nil {
		return err
	}
	if cfg.Server.Watch && len(resolved.watchPaths) == 0 {
		logger.Warn("watch ignored: source is not a set of local files", "source", resolved.source.Describe())
	}

	extractOpts, err := cfg.Extract.Options()
	if err != nil {
		return err
	}
	renderer, err := rendering.NewRenderer(cfg.Server.Template)
	if err != nil {
		return err
	}
	limitConfig, err := ratelimit.LoadConfig()
	if err != nil {
		return err
	}

	loads := 0
	load := func(ctx context.Context) (*pipeline.Catalog, error) {
		// Reloads must refetch rather than hit the response cache.
		if cached, ok := resolved.source.(*fetch.CachedSource); ok && loads > 0 {
			if err := cached.Invalidate(ctx); err != nil {
				logger.Warn("failed to invalidate cached source", "error", err)
			}
		}
		loads++

		opts := pipeline.Options{
			Source:  resolved.source,
			Extract: extractOpts,
			OnProgress: func(event pipeline.ProgressEvent) {
				logger.Debug(event.Message, "step", event.Step)
			},
		}
		if serveSave {
			opts.Snapshots = db
		}
		return pipeline.Run(ctx, opts)
	}

	opts := server.Options{
		Config:     cfg.Server,
		Load:       load,
		Renderer:   renderer,
		Limiter:    ratelimit.NewLimiter(limitConfig),
		Metrics:    observability.NewMetrics(),
		Logger:     logger,
		WatchPaths: resolved.watchPaths,
	}
	if db != nil {
		opts.Snapshots = db
	}

	srv, err := server.New(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}
