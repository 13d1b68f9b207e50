package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"videoforge/pkg/models"
)

// Repository provides database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Health checks the underlying connection.
func (r *Repository) Health(ctx context.Context) error {
	return r.db.Health(ctx)
}

// Videos

// CreateVideo inserts a video record. Storage-assigned fields (id, defaulted
// upload time) are read back via RETURNING before the call returns.
func (r *Repository) CreateVideo(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO videos (filename, duration, size)
		VALUES ($1, $2, $3)
		RETURNING id, upload_time
	`

	err := r.db.Pool.QueryRow(ctx, query,
		video.Filename, video.Duration, video.Size,
	).Scan(&video.ID, &video.UploadTime)

	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

// GetVideo retrieves a video by ID
func (r *Repository) GetVideo(ctx context.Context, id int64) (*models.Video, error) {
	var video models.Video

	query := `
		SELECT id, filename, duration, size, upload_time
		FROM videos
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&video.ID, &video.Filename, &video.Duration, &video.Size, &video.UploadTime,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("video %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	return &video, nil
}

// ListVideos retrieves all videos ordered by upload time.
func (r *Repository) ListVideos(ctx context.Context) ([]*models.Video, error) {
	query := `
		SELECT id, filename, duration, size, upload_time
		FROM videos
		ORDER BY upload_time DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(&video.ID, &video.Filename, &video.Duration, &video.Size, &video.UploadTime); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, &video)
	}

	return videos, rows.Err()
}

// UpdateVideo updates a video record and re-reads the written row.
func (r *Repository) UpdateVideo(ctx context.Context, video *models.Video) error {
	query := `
		UPDATE videos
		SET filename = $2, duration = $3, size = $4
		WHERE id = $1
		RETURNING upload_time
	`

	err := r.db.Pool.QueryRow(ctx, query,
		video.ID, video.Filename, video.Duration, video.Size,
	).Scan(&video.UploadTime)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("video %d: %w", video.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}

	return nil
}

// DeleteVideo removes a video. Dependent renditions, trims and overlay
// operations (with their detail rows) go with it through the declared
// cascades, so the delete cannot leave orphans behind.
func (r *Repository) DeleteVideo(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("video %d: %w", id, ErrNotFound)
	}
	return nil
}

// VideoStats aggregates a video's renditions, trims and overlay operations.
func (r *Repository) VideoStats(ctx context.Context, videoID int64) (*models.VideoStats, error) {
	video, err := r.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	renditions, err := r.ListRenditions(ctx, videoID)
	if err != nil {
		return nil, err
	}

	trims, err := r.TrimCount(ctx, videoID)
	if err != nil {
		return nil, err
	}

	overlays, err := r.OverlayCount(ctx, videoID)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(renditions))
	for _, q := range renditions {
		labels = append(labels, q.Quality)
	}

	return &models.VideoStats{
		VideoID:            video.ID,
		Filename:           video.Filename,
		OriginalDuration:   video.Duration,
		OriginalSize:       video.Size,
		UploadTime:         video.UploadTime,
		AvailableQualities: labels,
		TotalQualities:     len(renditions),
		TrimmedVersions:    trims,
		OverlayOperations:  overlays,
		QualityDetails:     renditions,
	}, nil
}
