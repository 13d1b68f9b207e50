package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"videoforge/pkg/models"
)

// Renditions

// CreateRendition inserts a single rendition. A conflict on (video_id,
// quality) is treated as success: the row already exists, which is the
// intended steady state.
func (r *Repository) CreateRendition(ctx context.Context, rendition *models.Rendition) error {
	query := `
		INSERT INTO video_qualities (video_id, quality, filename, bitrate, resolution, filesize)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (video_id, quality) DO NOTHING
		RETURNING id, created_time
	`

	err := r.db.Pool.QueryRow(ctx, query,
		rendition.VideoID, rendition.Quality, rendition.Filename,
		rendition.Bitrate, rendition.Resolution, rendition.Filesize,
	).Scan(&rendition.ID, &rendition.CreatedTime)

	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the insert to a concurrent writer; the pair exists.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create rendition: %w", err)
	}

	return nil
}

// CreateRenditions inserts a batch of renditions in one transaction with the
// same conflict-as-success semantics.
func (r *Repository) CreateRenditions(ctx context.Context, renditions []*models.Rendition) error {
	if len(renditions) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO video_qualities (video_id, quality, filename, bitrate, resolution, filesize)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (video_id, quality) DO NOTHING
		RETURNING id, created_time
	`

	for _, rendition := range renditions {
		err := tx.QueryRow(ctx, query,
			rendition.VideoID, rendition.Quality, rendition.Filename,
			rendition.Bitrate, rendition.Resolution, rendition.Filesize,
		).Scan(&rendition.ID, &rendition.CreatedTime)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create rendition %s: %w", rendition.Quality, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit renditions: %w", err)
	}

	return nil
}

// ListRenditions returns all renditions for a video ordered by filesize
// descending, largest (best quality) first. Ties keep insertion order.
func (r *Repository) ListRenditions(ctx context.Context, videoID int64) ([]*models.Rendition, error) {
	query := `
		SELECT id, video_id, quality, filename, bitrate, resolution, filesize, created_time
		FROM video_qualities
		WHERE video_id = $1
		ORDER BY filesize DESC, id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list renditions: %w", err)
	}
	defer rows.Close()

	// Non-nil even when empty so callers serialize it as [].
	renditions := make([]*models.Rendition, 0)
	for rows.Next() {
		var q models.Rendition
		if err := rows.Scan(&q.ID, &q.VideoID, &q.Quality, &q.Filename, &q.Bitrate, &q.Resolution, &q.Filesize, &q.CreatedTime); err != nil {
			return nil, fmt.Errorf("failed to scan rendition: %w", err)
		}
		renditions = append(renditions, &q)
	}

	return renditions, rows.Err()
}

// BestRendition returns the rendition with the largest filesize for a video.
func (r *Repository) BestRendition(ctx context.Context, videoID int64) (*models.Rendition, error) {
	query := `
		SELECT id, video_id, quality, filename, bitrate, resolution, filesize, created_time
		FROM video_qualities
		WHERE video_id = $1
		ORDER BY filesize DESC, id ASC
		LIMIT 1
	`

	var q models.Rendition
	err := r.db.Pool.QueryRow(ctx, query, videoID).Scan(
		&q.ID, &q.VideoID, &q.Quality, &q.Filename, &q.Bitrate, &q.Resolution, &q.Filesize, &q.CreatedTime,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("renditions for video %d: %w", videoID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get best rendition: %w", err)
	}

	return &q, nil
}

// AvailableQualities returns the distinct quality labels present for a video.
func (r *Repository) AvailableQualities(ctx context.Context, videoID int64) ([]string, error) {
	query := `SELECT DISTINCT quality FROM video_qualities WHERE video_id = $1`

	rows, err := r.db.Pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get available qualities: %w", err)
	}
	defer rows.Close()

	labels := make([]string, 0)
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan quality: %w", err)
		}
		labels = append(labels, label)
	}

	return labels, rows.Err()
}

// QualityExists reports whether a rendition exists for the (video, label)
// pair.
func (r *Repository) QualityExists(ctx context.Context, videoID int64, quality string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM video_qualities WHERE video_id = $1 AND quality = $2)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, videoID, quality).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check quality: %w", err)
	}

	return exists, nil
}

// RenditionByQuality retrieves a rendition by (video, label).
func (r *Repository) RenditionByQuality(ctx context.Context, videoID int64, quality string) (*models.Rendition, error) {
	query := `
		SELECT id, video_id, quality, filename, bitrate, resolution, filesize, created_time
		FROM video_qualities
		WHERE video_id = $1 AND quality = $2
	`

	var q models.Rendition
	err := r.db.Pool.QueryRow(ctx, query, videoID, quality).Scan(
		&q.ID, &q.VideoID, &q.Quality, &q.Filename, &q.Bitrate, &q.Resolution, &q.Filesize, &q.CreatedTime,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("quality %s for video %d: %w", quality, videoID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rendition: %w", err)
	}

	return &q, nil
}

// RenditionByID retrieves a rendition by its identifier.
func (r *Repository) RenditionByID(ctx context.Context, id int64) (*models.Rendition, error) {
	query := `
		SELECT id, video_id, quality, filename, bitrate, resolution, filesize, created_time
		FROM video_qualities
		WHERE id = $1
	`

	var q models.Rendition
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.VideoID, &q.Quality, &q.Filename, &q.Bitrate, &q.Resolution, &q.Filesize, &q.CreatedTime,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("rendition %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rendition: %w", err)
	}

	return &q, nil
}

// UpdateRendition updates a rendition row and re-reads the written row.
func (r *Repository) UpdateRendition(ctx context.Context, rendition *models.Rendition) error {
	query := `
		UPDATE video_qualities
		SET quality = $2, filename = $3, bitrate = $4, resolution = $5, filesize = $6
		WHERE id = $1
		RETURNING created_time
	`

	err := r.db.Pool.QueryRow(ctx, query,
		rendition.ID, rendition.Quality, rendition.Filename,
		rendition.Bitrate, rendition.Resolution, rendition.Filesize,
	).Scan(&rendition.CreatedTime)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("rendition %d: %w", rendition.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update rendition: %w", err)
	}

	return nil
}

// DeleteRendition removes a single rendition row.
func (r *Repository) DeleteRendition(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM video_qualities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rendition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rendition %d: %w", id, ErrNotFound)
	}
	return nil
}
