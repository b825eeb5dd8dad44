package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DefaultSourceTTL is how long a fetched vocabulary stays fresh.
const DefaultSourceTTL = 24 * time.Hour

const sourcesTable = "vocabulary_sources"

var sourceColumns = []string{"id", "url", "body", "content_type", "status_code", "fetched_at", "expires_at"}

// Source is a cached vocabulary download.
type Source struct {
	ID          uuid.UUID
	URL         string
	Body        string
	ContentType string
	StatusCode  int
	FetchedAt   time.Time
	ExpiresAt   time.Time
}

// GetFreshSource returns the cached source for url if it has not expired.
// Returns nil, nil when there is no fresh entry.
func (db *DB) GetFreshSource(ctx context.Context, url string) (*Source, error) {
	query, args, err := psql.Select(sourceColumns...).
		From(sourcesTable).
		Where(squirrel.Eq{"url": url}).
		Where("expires_at > NOW()").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build source query: %w", err)
	}

	var src Source
	err = db.pool.QueryRow(ctx, query, args...).Scan(
		&src.ID, &src.URL, &src.Body, &src.ContentType, &src.StatusCode, &src.FetchedAt, &src.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return &src, nil
}

// UpsertSource stores src, replacing any previous entry for the same URL.
// ID, FetchedAt and ExpiresAt are filled in from the stored row.
func (db *DB) UpsertSource(ctx context.Context, src *Source, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultSourceTTL
	}
	if src.ID == uuid.Nil {
		src.ID = uuid.New()
	}
	expiresAt := time.Now().Add(ttl)

	query, args, err := psql.Insert(sourcesTable).
		Columns("id", "url", "body", "content_type", "status_code", "expires_at").
		Values(src.ID, src.URL, src.Body, src.ContentType, src.StatusCode, expiresAt).
		Suffix(`ON CONFLICT (url) DO UPDATE SET
			body = EXCLUDED.body,
			content_type = EXCLUDED.content_type,
			status_code = EXCLUDED.status_code,
			fetched_at = NOW(),
			expires_at = EXCLUDED.expires_at
		RETURNING id, fetched_at, expires_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build source upsert: %w", err)
	}

	if err := db.pool.QueryRow(ctx, query, args...).Scan(&src.ID, &src.FetchedAt, &src.ExpiresAt); err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}
	return nil
}

// ExpireSource marks the cached entry for url as stale.
func (db *DB) ExpireSource(ctx context.Context, url string) error {
	query, args, err := psql.Update(sourcesTable).
		Set("expires_at", squirrel.Expr("NOW() - INTERVAL '1 second'")).
		Where(squirrel.Eq{"url": url}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build source expiry: %w", err)
	}

	if _, err := db.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to expire source: %w", err)
	}
	return nil
}
