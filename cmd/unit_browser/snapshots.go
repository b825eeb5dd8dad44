package main

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/unit-browser/internal/filter"
	"github.com/jonathan/unit-browser/internal/rendering"
	"github.com/jonathan/unit-browser/internal/store"
	"github.com/jonathan/unit-browser/internal/types"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List, show and delete saved unit snapshots",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotsList,
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <id|latest>",
	Short: "Export the units of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotsShow,
}

var snapshotsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a snapshot and its units",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotsDelete,
}

var (
	snapshotsLimit  uint64
	snapshotsLetter string
	snapshotsFormat string
	snapshotsOutput string
)

func init() {
	snapshotsListCmd.Flags().Uint64Var(&snapshotsLimit, "limit", 20, "Maximum snapshots to list")
	snapshotsShowCmd.Flags().StringVarP(&snapshotsLetter, "letter", "l", "", "Only units under this letter")
	snapshotsShowCmd.Flags().StringVarP(&snapshotsFormat, "format", "f", "json", "Output format: json, yaml, csv, markdown, html")
	snapshotsShowCmd.Flags().StringVarP(&snapshotsOutput, "out", "o", "", "Output file (stdout when empty)")

	snapshotsCmd.AddCommand(snapshotsListCmd, snapshotsShowCmd, snapshotsDeleteCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

func connectSnapshots(cmd *cobra.Command) (*store.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	setupLogger(cfg, cmd.ErrOrStderr())
	return requireStore(cmd.Context(), cfg)
}

func runSnapshotsList(cmd *cobra.Command, _ []string) error {
	db, err := connectSnapshots(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	snaps, err := db.ListSnapshots(cmd.Context(), snapshotsLimit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No snapshots")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCREATED\tUNITS\tSOURCE")
	for _, s := range snaps {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04:05"), s.UnitCount, s.Source)
	}
	return tw.Flush()
}

func runSnapshotsShow(cmd *cobra.Command, args []string) error {
	letter, err := filter.Normalize(snapshotsLetter)
	if err != nil {
		return err
	}
	format, err := rendering.ParseFormat(snapshotsFormat)
	if err != nil {
		return err
	}

	db, err := connectSnapshots(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	var snap *store.Snapshot
	if args[0] == "latest" {
		snap, err = db.LatestSnapshot(ctx)
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("no snapshots saved yet")
		}
	} else {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid snapshot id: %w", err)
		}
		snap, err = db.GetSnapshot(ctx, id)
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("snapshot %s not found", id)
		}
	}

	units, err := db.ListUnits(ctx, snap.ID, letter)
	if err != nil {
		return err
	}

	list := &types.UnitList{Source: snap.Source, Letter: letter, Count: len(units), Units: units}
	var buf bytes.Buffer
	if err := rendering.Export(&buf, format, &rendering.Document{List: list, LoadedAt: snap.CreatedAt}); err != nil {
		return fmt.Errorf("failed to export units: %w", err)
	}
	return writeOutput(cmd.OutOrStdout(), snapshotsOutput, buf.Bytes())
}

func runSnapshotsDelete(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid snapshot id: %w", err)
	}

	db, err := connectSnapshots(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteSnapshot(cmd.Context(), id); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted snapshot %s\n", id)
	return nil
}
