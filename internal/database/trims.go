package database

import (
	"context"
	"fmt"

	"videoforge/pkg/models"
)

// Trims

// CreateTrim inserts a trim record and reads back the storage-assigned
// fields.
func (r *Repository) CreateTrim(ctx context.Context, trim *models.Trim) error {
	query := `
		INSERT INTO trimmed_videos (video_id, filename, duration, size, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_time
	`

	err := r.db.Pool.QueryRow(ctx, query,
		trim.VideoID, trim.Filename, trim.Duration, trim.Size, trim.StartTime, trim.EndTime,
	).Scan(&trim.ID, &trim.CreatedTime)

	if err != nil {
		return fmt.Errorf("failed to create trim: %w", err)
	}

	return nil
}

// ListTrims returns all trims for a video.
func (r *Repository) ListTrims(ctx context.Context, videoID int64) ([]*models.Trim, error) {
	query := `
		SELECT id, video_id, filename, duration, size, start_time, end_time, created_time
		FROM trimmed_videos
		WHERE video_id = $1
		ORDER BY created_time DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trims: %w", err)
	}
	defer rows.Close()

	var trims []*models.Trim
	for rows.Next() {
		var t models.Trim
		if err := rows.Scan(&t.ID, &t.VideoID, &t.Filename, &t.Duration, &t.Size, &t.StartTime, &t.EndTime, &t.CreatedTime); err != nil {
			return nil, fmt.Errorf("failed to scan trim: %w", err)
		}
		trims = append(trims, &t)
	}

	return trims, rows.Err()
}

// TrimCount returns the number of trims for a video.
func (r *Repository) TrimCount(ctx context.Context, videoID int64) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM trimmed_videos WHERE video_id = $1`, videoID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trims: %w", err)
	}
	return count, nil
}
