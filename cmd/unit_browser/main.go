// Package main provides the unit_browser CLI: extract the QUDT unit vocabulary,
// bin it by letter and serve it as a filterable table.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "unit_browser",
	Short: "Browse the QUDT units of measure vocabulary",
	Long: "unit_browser extracts unit records from the line-oriented QUDT unit vocabulary, " +
		"bins them by the first letter of their display label and exports or serves them as a table.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML or JSON config file (environment only when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
