package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/unit-browser/internal/config"
	"github.com/jonathan/unit-browser/internal/fetch"
	"github.com/jonathan/unit-browser/internal/observability"
	"github.com/jonathan/unit-browser/internal/store"
)

// sourceFlags select the vocabulary source and are shared by several commands.
type sourceFlags struct {
	url     string
	inputs  []string
	mirror  bool
	noCache bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "url", "", "Vocabulary URL (overrides config)")
	cmd.Flags().StringSliceVarP(&f.inputs, "in", "i", nil, "Local vocabulary files or globs, or - for stdin")
	cmd.Flags().BoolVar(&f.mirror, "mirror", false, "Fetch from the configured mirror URL")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Bypass the database response cache")
}

// loadConfig reads the config file or environment and applies --log-level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// setupLogger builds the logger from cfg and installs it as the default.
func setupLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	logger := observability.NewLogger(cfg.Log, out)
	slog.SetDefault(logger)
	return logger
}

// openStore connects to the database, or returns nil when none is configured.
func openStore(ctx context.Context, cfg *config.Config) (*store.DB, error) {
	if cfg.Database.URL == "" {
		return nil, nil
	}
	db, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// requireStore is openStore for commands that cannot run without a database.
func requireStore(ctx context.Context, cfg *config.Config) (*store.DB, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database URL required: set DATABASE_URL or database.url")
	}
	return openStore(ctx, cfg)
}

// resolvedSource is the source chosen from flags and config.
type resolvedSource struct {
	source     fetch.Source
	watchPaths []string // local files, empty for URLs and stdin
}

// buildSource picks the source: --in, then --url, then configured files,
// then the configured URL (or its mirror). URL sources go through the
// response cache when cache is non-nil.
func buildSource(cfg *config.Config, flags *sourceFlags, cache fetch.Cache, logger *slog.Logger) (*resolvedSource, error) {
	patterns := flags.inputs
	if len(patterns) == 0 && flags.url == "" && !flags.mirror {
		patterns = cfg.Source.Files
	}

	if len(patterns) > 0 {
		src := &fetch.FileSource{Patterns: patterns, Stdin: os.Stdin}
		if len(patterns) == 1 && patterns[0] == fetch.StdinPath {
			return &resolvedSource{source: src}, nil
		}
		files, err := fetch.ExpandPatterns(patterns)
		if err != nil {
			return nil, err
		}
		return &resolvedSource{source: src, watchPaths: files}, nil
	}

	url := cfg.Source.ActiveURL()
	switch {
	case flags.url != "":
		url = flags.url
	case flags.mirror:
		if cfg.Source.MirrorURL == "" {
			return nil, fmt.Errorf("--mirror requires source.mirror_url or UNIT_SOURCE_MIRROR_URL")
		}
		url = cfg.Source.MirrorURL
	}
	if url == "" {
		return nil, fmt.Errorf("no vocabulary source: use --url, --in or configure source.url")
	}

	opts := cfg.Source.FetchOptions()
	if cache == nil || flags.noCache {
		return &resolvedSource{source: &fetch.URLSource{URL: url, Options: opts}}, nil
	}
	return &resolvedSource{source: fetch.NewCachedSource(url, cache, &fetch.CachedSourceConfig{
		CacheTTL: cfg.Source.CacheTTL,
		Options:  opts,
		Logger:   logger,
	})}, nil
}

// writeOutput writes data to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
