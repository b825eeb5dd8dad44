package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/unit-browser/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Creates or upgrades the tables used for the response cache and unit snapshots.",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg, cmd.ErrOrStderr())

	if cfg.Database.URL == "" {
		return fmt.Errorf("database URL required: set DATABASE_URL or database.url")
	}

	results, err := store.Migrate(cmd.Context(), cfg.Database.URL)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		_, _ = fmt.Fprintln(out, "Database is up to date")
		return nil
	}
	for _, r := range results {
		logger.Debug("migration applied", "version", r.Version, "source", r.Source)
		_, _ = fmt.Fprintf(out, "Applied migration %d (%s)\n", r.Version, r.Source)
	}
	return nil
}
