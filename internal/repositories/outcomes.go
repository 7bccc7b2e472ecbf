// Package repositories persists the download archive in sqlite.
//
// Every run writes one row per track outcome so the history command can
// answer what was downloaded, skipped, or failed, and when.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"spotgrab/internal/models"
	"spotgrab/internal/shared"
)

// DownloadRepository records and queries download outcomes.
type DownloadRepository interface {
	// RecordRun archives every outcome of a run under one run ID.
	RecordRun(ctx context.Context, runID, playlistID string, outcomes []models.DownloadOutcome) error

	// ListByRun returns a run's rows in insertion order.
	ListByRun(ctx context.Context, runID string) ([]models.DownloadRecord, error)

	// ListRecent returns the newest rows first, capped at limit.
	ListRecent(ctx context.Context, limit int) ([]models.DownloadRecord, error)
}

// SQLDownloadRepository implements DownloadRepository on database/sql.
type SQLDownloadRepository struct {
	db *sql.DB
}

var _ DownloadRepository = (*SQLDownloadRepository)(nil)

// NewDownloadRepository creates a repository with the given database connection.
func NewDownloadRepository(db *sql.DB) *SQLDownloadRepository {
	return &SQLDownloadRepository{db: db}
}

// RecordRun inserts one row per outcome inside a transaction.
func (r *SQLDownloadRepository) RecordRun(ctx context.Context, runID, playlistID string, outcomes []models.DownloadOutcome) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO downloads (id, run_id, playlist_id, catalog_id, title, artists, album, search_query, result, reason, output_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, outcome := range outcomes {
		createdAt := outcome.CompletedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		_, err := tx.ExecContext(ctx, query,
			shared.GenerateID(),
			runID,
			playlistID,
			outcome.Track.CatalogID,
			outcome.Track.Title,
			strings.Join(outcome.Track.Artists, ", "),
			outcome.Track.Album,
			outcome.Track.SearchQuery(),
			string(outcome.Result),
			string(outcome.Reason),
			outcome.OutputPath,
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert download row: %w", err)
		}
	}

	return tx.Commit()
}

// ListByRun returns a run's rows in insertion order.
func (r *SQLDownloadRepository) ListByRun(ctx context.Context, runID string) ([]models.DownloadRecord, error) {
	query := `
		SELECT id, run_id, playlist_id, catalog_id, title, artists, album, search_query, result, reason, output_path, created_at
		FROM downloads
		WHERE run_id = ?
		ORDER BY rowid
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListRecent returns the newest rows first, capped at limit.
func (r *SQLDownloadRepository) ListRecent(ctx context.Context, limit int) ([]models.DownloadRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, run_id, playlist_id, catalog_id, title, artists, album, search_query, result, reason, output_path, created_at
		FROM downloads
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]models.DownloadRecord, error) {
	var records []models.DownloadRecord
	for rows.Next() {
		var record models.DownloadRecord
		err := rows.Scan(
			&record.ID,
			&record.RunID,
			&record.PlaylistID,
			&record.CatalogID,
			&record.Title,
			&record.Artists,
			&record.Album,
			&record.SearchQuery,
			&record.Result,
			&record.Reason,
			&record.OutputPath,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download row: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
