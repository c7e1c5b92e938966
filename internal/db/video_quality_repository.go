package db

import (
	"context"
	"fmt"

	"github.com/reelhouse/transcoder/internal/domain"
)

// VideoQualityRepository persists rendition metadata rows
type VideoQualityRepository struct {
	db *DB
}

// NewVideoQualityRepository creates a new video quality repository
func NewVideoQualityRepository(db *DB) *VideoQualityRepository {
	return &VideoQualityRepository{db: db}
}

// Upsert writes a rendition row keyed by (movie_id, quality). Re-running
// a conversion for the same movie replaces the prior row rather than
// inserting a duplicate.
func (r *VideoQualityRepository) Upsert(ctx context.Context, record *domain.VideoQuality) error {
	query := `
		INSERT INTO video_qualities (
			movie_id, quality, file_path, file_size, duration, bitrate, codec
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (movie_id, quality) DO UPDATE SET
			file_path = EXCLUDED.file_path,
			file_size = EXCLUDED.file_size,
			duration = EXCLUDED.duration,
			bitrate = EXCLUDED.bitrate,
			codec = EXCLUDED.codec
	`

	_, err := r.db.Pool.Exec(ctx, query,
		record.MovieID,
		record.Quality,
		record.FilePath,
		record.FileSize,
		record.DurationSec,
		record.Bitrate,
		record.Codec,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert video quality: %w", err)
	}

	return nil
}

// ListByMovieID retrieves every rendition row for a movie in encode order.
func (r *VideoQualityRepository) ListByMovieID(ctx context.Context, movieID int64) ([]*domain.VideoQuality, error) {
	query := `
		SELECT movie_id, quality, file_path, file_size, duration, bitrate, codec
		FROM video_qualities
		WHERE movie_id = $1
		ORDER BY file_size DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to list video qualities: %w", err)
	}
	defer rows.Close()

	var records []*domain.VideoQuality
	for rows.Next() {
		var record domain.VideoQuality
		if err := rows.Scan(
			&record.MovieID,
			&record.Quality,
			&record.FilePath,
			&record.FileSize,
			&record.DurationSec,
			&record.Bitrate,
			&record.Codec,
		); err != nil {
			return nil, fmt.Errorf("failed to scan video quality: %w", err)
		}
		records = append(records, &record)
	}

	return records, nil
}

// DeleteByMovieID removes every rendition row for a movie.
func (r *VideoQualityRepository) DeleteByMovieID(ctx context.Context, movieID int64) error {
	query := `DELETE FROM video_qualities WHERE movie_id = $1`

	_, err := r.db.Pool.Exec(ctx, query, movieID)
	if err != nil {
		return fmt.Errorf("failed to delete video qualities: %w", err)
	}

	return nil
}
