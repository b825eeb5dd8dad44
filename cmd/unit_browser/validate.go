package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/unit-browser/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate exported unit list JSON files against the schema",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		if err := schemas.ValidateUnitListFile(path); err != nil {
			failed++
			_, _ = fmt.Fprintf(out, "✗ %s: %v\n", path, err)
			continue
		}
		_, _ = fmt.Fprintf(out, "✓ %s\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(args))
	}
	return nil
}
