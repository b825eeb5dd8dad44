package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/unit-browser/internal/binning"
	"github.com/jonathan/unit-browser/internal/filter"
	"github.com/jonathan/unit-browser/internal/observability"
	"github.com/jonathan/unit-browser/internal/pipeline"
)

var binsCmd = &cobra.Command{
	Use:   "bins",
	Short: "Count units per first letter",
	Long:  "Extracts the vocabulary and prints the number of units under each letter together with the 27 filter tokens (All plus A-Z).",
	RunE:  runBins,
}

var (
	binsSource sourceFlags
	binsLetter string
	binsJSON   bool
)

// binsOutput is the --json form of the bins command.
type binsOutput struct {
	Source string         `json:"source"`
	Total  int            `json:"total"`
	Bins   binning.Bins   `json:"bins"`
	Tokens []filter.Token `json:"tokens"`
}

func init() {
	binsSource.register(binsCmd)
	binsCmd.Flags().StringVarP(&binsLetter, "letter", "l", "", "Mark this letter as selected")
	binsCmd.Flags().BoolVar(&binsJSON, "json", false, "Print JSON instead of a histogram")

	rootCmd.AddCommand(binsCmd)
}

func runBins(cmd *cobra.Command, _ []string) error {
	selected, err := filter.Normalize(binsLetter)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg, cmd.ErrOrStderr())

	// bins never touches the database
	resolved, err := buildSource(cfg, &binsSource, nil, logger)
	if err != nil {
		return err
	}
	extractOpts, err := cfg.Extract.Options()
	if err != nil {
		return err
	}

	catalog, err := pipeline.Run(cmd.Context(), pipeline.Options{Source: resolved.source, Extract: extractOpts})
	if err != nil {
		return fmt.Errorf("failed to load units: %w", err)
	}
	tokens := catalog.Tokens(selected)

	if binsJSON {
		data, err := json.MarshalIndent(binsOutput{
			Source: catalog.Source,
			Total:  len(catalog.Units),
			Bins:   catalog.Bins,
			Tokens: tokens,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal bins: %w", err)
		}
		return writeOutput(cmd.OutOrStdout(), "", append(data, '\n'))
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintBins(tokens)
	return nil
}
