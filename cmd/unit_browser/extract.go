package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/unit-browser/internal/fetch"
	"github.com/jonathan/unit-browser/internal/filter"
	"github.com/jonathan/unit-browser/internal/observability"
	"github.com/jonathan/unit-browser/internal/pipeline"
	"github.com/jonathan/unit-browser/internal/rendering"
	"github.com/jonathan/unit-browser/internal/schemas"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract unit records and export them",
	Long: "Loads the vocabulary from a URL or local files, extracts one record per unit block, " +
		"optionally keeps only units under one letter and writes them as JSON, YAML, CSV, Markdown or HTML.",
	RunE: runExtract,
}

var (
	extractSource   sourceFlags
	extractLetter   string
	extractFormat   string
	extractOutput   string
	extractTemplate string
	extractTitle    string
	extractValidate bool
	extractSave     bool
	extractVerbose  bool
)

func init() {
	extractSource.register(extractCmd)
	extractCmd.Flags().StringVarP(&extractLetter, "letter", "l", "", "Only units whose display label starts with this letter (A-Z)")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "json", "Output format: json, yaml, csv, markdown, html")
	extractCmd.Flags().StringVarP(&extractOutput, "out", "o", "", "Output file (stdout when empty)")
	extractCmd.Flags().StringVarP(&extractTemplate, "template", "t", "", "HTML template file (html format only)")
	extractCmd.Flags().StringVar(&extractTitle, "title", "", "Page title (html format only)")
	extractCmd.Flags().BoolVar(&extractValidate, "validate", false, "Validate the unit list against the JSON schema")
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "Save a snapshot of all extracted units to the database")
	extractCmd.Flags().BoolVarP(&extractVerbose, "verbose", "v", false, "Print extraction summary and letter histogram to stderr")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	f, err := filter.New(extractLetter)
	if err != nil {
		return err
	}
	format, err := rendering.ParseFormat(extractFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg, cmd.ErrOrStderr())

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	if extractSave && db == nil {
		return fmt.Errorf("--save requires a database: set DATABASE_URL or database.url")
	}

	var cache fetch.Cache
	if db != nil {
		cache = db
	}
	resolved, err := buildSource(cfg, &extractSource, cache, logger)
	if err != nil {
		return err
	}
	extractOpts, err := cfg.Extract.Options()
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Source:  resolved.source,
		Extract: extractOpts,
		OnProgress: func(event pipeline.ProgressEvent) {
			logger.Debug(event.Message, "step", event.Step)
		},
	}
	if extractSave {
		opts.Snapshots = db
	}

	catalog, err := pipeline.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to load units: %w", err)
	}

	list := catalog.UnitList(f)
	printer := observability.NewPrinter(cmd.ErrOrStderr())
	if extractVerbose {
		printer.PrintExtraction(catalog.Source, catalog.Stats, catalog.Units)
		printer.PrintBins(catalog.Tokens(f.Selected()))
		printer.PrintSnapshot(catalog.Snapshot)
	}

	if extractValidate {
		err := schemas.ValidateUnitList(list)
		if extractVerbose {
			printer.PrintValidation(err)
		}
		if err != nil {
			return fmt.Errorf("unit list failed schema validation: %w", err)
		}
	}

	var buf bytes.Buffer
	if format == rendering.FormatHTML && (extractTemplate != "" || extractTitle != "") {
		renderer, err := rendering.NewRenderer(extractTemplate)
		if err != nil {
			return err
		}
		page := rendering.NewPage(extractTitle, catalog.Source, catalog.LoadedAt,
			catalog.Tokens(f.Selected()), list.Units, len(catalog.Units))
		if err := renderer.HTML(&buf, page); err != nil {
			return err
		}
	} else {
		doc := &rendering.Document{
			List:     list,
			Tokens:   catalog.Tokens(f.Selected()),
			Total:    len(catalog.Units),
			LoadedAt: catalog.LoadedAt,
		}
		if err := rendering.Export(&buf, format, doc); err != nil {
			return fmt.Errorf("failed to export units: %w", err)
		}
	}

	if err := writeOutput(cmd.OutOrStdout(), extractOutput, buf.Bytes()); err != nil {
		return err
	}
	logger.Info("units exported",
		"source", catalog.Source,
		"units", len(catalog.Units),
		"visible", list.Count,
		"format", format)
	return nil
}
