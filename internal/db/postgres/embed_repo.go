package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"Embedfield/internal/core/embeds"
)

type postgresEmbedRepo struct {
	db *sql.DB
}

// NewEmbedRepository creates a new PostgreSQL embed record repository
func NewEmbedRepository(db *sql.DB) embeds.Repository {
	return &postgresEmbedRepo{db: db}
}

const embedColumns = `
	id, source_url, title, type, version,
	width, height,
	thumbnail_url, thumbnail_width, thumbnail_height,
	provider_url, provider_name, author_url, author_name,
	embed_html, iframe_src, resolved_url, origin, web_page,
	resolved, created_at, updated_at`

// Create inserts a new record and assigns its identity from the sequence.
func (r *postgresEmbedRepo) Create(ctx context.Context, record *embeds.EmbedRecord) error {
	query := `
		INSERT INTO embed_records (
			source_url, title, type, version,
			width, height,
			thumbnail_url, thumbnail_width, thumbnail_height,
			provider_url, provider_name, author_url, author_name,
			embed_html, iframe_src, resolved_url, origin, web_page,
			resolved, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6,
			$7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17, $18,
			$19, NOW(), NOW()
		)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		record.SourceURL, record.Title, record.Type, record.Version,
		nullInt(record.Width), nullInt(record.Height),
		record.ThumbnailURL, nullInt(record.ThumbnailWidth), nullInt(record.ThumbnailHeight),
		record.ProviderURL, record.ProviderName, record.AuthorURL, record.AuthorName,
		record.EmbedHTML, record.IframeSrc, record.ResolvedURL, record.Origin, record.WebPage,
		record.Exists,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert embed record: %w", err)
	}

	return nil
}

// GetByID retrieves a record by identity.
// Returns embeds.ErrRecordNotFound when the identity does not exist.
func (r *postgresEmbedRepo) GetByID(ctx context.Context, id int64) (*embeds.EmbedRecord, error) {
	query := `SELECT ` + embedColumns + ` FROM embed_records WHERE id = $1`

	record, err := scanEmbedRecord(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, embeds.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embed record %d: %w", id, err)
	}

	return record, nil
}

// GetBySourceURL retrieves a record whose source_url matches exactly.
// Returns nil, nil when no record matches (not an error condition).
// Multiple matches can exist after concurrent saves of the same new URL;
// the oldest wins so repeated lookups stay stable.
func (r *postgresEmbedRepo) GetBySourceURL(ctx context.Context, sourceURL string) (*embeds.EmbedRecord, error) {
	query := `SELECT ` + embedColumns + ` FROM embed_records WHERE source_url = $1 ORDER BY id ASC LIMIT 1`

	record, err := scanEmbedRecord(r.db.QueryRowContext(ctx, query, sourceURL))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embed record for %s: %w", sourceURL, err)
	}

	return record, nil
}

// Delete removes a record by identity. Deleting a missing record is a no-op.
func (r *postgresEmbedRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM embed_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete embed record %d: %w", id, err)
	}
	return nil
}

// rowScanner covers both sql.Row and sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEmbedRecord(row rowScanner) (*embeds.EmbedRecord, error) {
	var record embeds.EmbedRecord
	var width, height, thumbWidth, thumbHeight sql.NullInt64

	err := row.Scan(
		&record.ID, &record.SourceURL, &record.Title, &record.Type, &record.Version,
		&width, &height,
		&record.ThumbnailURL, &thumbWidth, &thumbHeight,
		&record.ProviderURL, &record.ProviderName, &record.AuthorURL, &record.AuthorName,
		&record.EmbedHTML, &record.IframeSrc, &record.ResolvedURL, &record.Origin, &record.WebPage,
		&record.Exists, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Width = intPtrFromNull(width)
	record.Height = intPtrFromNull(height)
	record.ThumbnailWidth = intPtrFromNull(thumbWidth)
	record.ThumbnailHeight = intPtrFromNull(thumbHeight)

	return &record, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtrFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
