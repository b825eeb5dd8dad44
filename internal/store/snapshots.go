package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/unit-browser/internal/binning"
	"github.com/jonathan/unit-browser/internal/types"
)

const (
	snapshotsTable     = "unit_snapshots"
	snapshotUnitsTable = "snapshot_units"
)

var unitColumns = []string{
	"unit_id", "display_label", "label", "label_language", "unit_code", "description", "classification",
}

// Snapshot is one saved extraction run.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	Source    string    `json:"source"`
	UnitCount int       `json:"unit_count"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveSnapshot stores units in input order under a new snapshot. Every unit
// needs a bin key, so a label without anchor text fails before anything is written.
func (db *DB) SaveSnapshot(ctx context.Context, source string, units []*types.Unit) (*Snapshot, error) {
	keys := make([]string, len(units))
	for i, u := range units {
		key, err := binning.Key(u.DisplayLabel)
		if err != nil {
			return nil, fmt.Errorf("unit %q: %w", u.ID, err)
		}
		keys[i] = key
	}

	snap := &Snapshot{ID: uuid.New(), Source: source, UnitCount: len(units)}

	insertSnap, snapArgs, err := psql.Insert(snapshotsTable).
		Columns("id", "source", "unit_count").
		Values(snap.ID, snap.Source, snap.UnitCount).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot insert: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, insertSnap, snapArgs...).Scan(&snap.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if len(units) > 0 {
		insertUnits := psql.Insert(snapshotUnitsTable).
			Columns(append([]string{"snapshot_id", "position", "bin_key"}, unitColumns...)...)
		for i, u := range units {
			insertUnits = insertUnits.Values(snap.ID, i, keys[i],
				u.ID, u.DisplayLabel, u.Label, u.LabelLanguage, u.UnitCode, u.Description, u.Classification)
		}

		query, args, err := insertUnits.ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build unit insert: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to insert units: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return snap, nil
}

// GetSnapshot returns one snapshot by id, or nil when it does not exist.
func (db *DB) GetSnapshot(ctx context.Context, snapshotID uuid.UUID) (*Snapshot, error) {
	query, args, err := psql.Select("id", "source", "unit_count", "created_at").
		From(snapshotsTable).
		Where(squirrel.Eq{"id": snapshotID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot query: %w", err)
	}

	var s Snapshot
	err = db.pool.QueryRow(ctx, query, args...).Scan(&s.ID, &s.Source, &s.UnitCount, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &s, nil
}

// LatestSnapshot returns the most recent snapshot, or nil when none exist.
func (db *DB) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	snaps, err := db.ListSnapshots(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

// ListSnapshots returns up to limit snapshots, newest first.
func (db *DB) ListSnapshots(ctx context.Context, limit uint64) ([]Snapshot, error) {
	query, args, err := psql.Select("id", "source", "unit_count", "created_at").
		From(snapshotsTable).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot query: %w", err)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Source, &s.UnitCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snaps, nil
}

// ListUnits returns the units of a snapshot in their original order. A
// non-empty letter restricts the result to that bin.
func (db *DB) ListUnits(ctx context.Context, snapshotID uuid.UUID, letter string) ([]*types.Unit, error) {
	q := psql.Select(unitColumns...).
		From(snapshotUnitsTable).
		Where(squirrel.Eq{"snapshot_id": snapshotID}).
		OrderBy("position ASC")
	if letter != "" {
		q = q.Where(squirrel.Eq{"bin_key": letter})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build unit query: %w", err)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer rows.Close()

	units := []*types.Unit{}
	for rows.Next() {
		u := &types.Unit{}
		if err := rows.Scan(&u.ID, &u.DisplayLabel, &u.Label, &u.LabelLanguage, &u.UnitCode, &u.Description, &u.Classification); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

// DeleteSnapshot removes a snapshot and its units. Missing snapshots are not an error.
func (db *DB) DeleteSnapshot(ctx context.Context, snapshotID uuid.UUID) error {
	query, args, err := psql.Delete(snapshotsTable).Where(squirrel.Eq{"id": snapshotID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build snapshot delete: %w", err)
	}
	if _, err := db.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
