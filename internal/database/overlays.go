package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"videoforge/pkg/models"
)

// Overlay operations

// CreateOverlay inserts an overlay operation together with its single detail
// row in one transaction. The detail variant must match op.Kind; the detail
// row can never exist without its operation.
func (r *Repository) CreateOverlay(ctx context.Context, op *models.OverlayOperation, detail models.OverlayDetail) error {
	if detail.OverlayKind() != op.Kind {
		return fmt.Errorf("detail kind %s does not match operation kind %s", detail.OverlayKind(), op.Kind)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO overlay_operations (base_video_id, filename, operation_type, duration, size)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_time
	`

	err = tx.QueryRow(ctx, query,
		op.BaseVideoID, op.Filename, op.Kind, op.Duration, op.Size,
	).Scan(&op.ID, &op.CreatedTime)
	if err != nil {
		return fmt.Errorf("failed to create overlay operation: %w", err)
	}

	switch d := detail.(type) {
	case *models.TextOverlay:
		d.OperationID = op.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO text_overlays (operation_id, text_content, font_path, font_size, font_color, language, x_position, y_position, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`, d.OperationID, d.TextContent, d.FontPath, d.FontSize, d.FontColor, d.Language, d.XPosition, d.YPosition, d.StartTime, d.EndTime).Scan(&d.ID)
	case *models.ImageOverlay:
		d.OperationID = op.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO image_overlays (operation_id, image_path, x_position, y_position, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, d.OperationID, d.ImagePath, d.XPosition, d.YPosition, d.StartTime, d.EndTime).Scan(&d.ID)
	case *models.VideoOverlay:
		d.OperationID = op.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO video_overlays (operation_id, overlay_video_path, x_position, y_position, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, d.OperationID, d.OverlayVideoPath, d.XPosition, d.YPosition, d.StartTime, d.EndTime).Scan(&d.ID)
	case *models.Watermark:
		d.OperationID = op.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO watermarks (operation_id, watermark_path, x_position, y_position, opacity)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, d.OperationID, d.WatermarkPath, d.XPosition, d.YPosition, d.Opacity).Scan(&d.ID)
	default:
		return fmt.Errorf("unknown overlay detail type %T", detail)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s overlay detail: %w", op.Kind, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit overlay: %w", err)
	}

	return nil
}

// GetOverlay retrieves an overlay operation and its detail row.
func (r *Repository) GetOverlay(ctx context.Context, id int64) (*models.OverlayOperation, models.OverlayDetail, error) {
	var op models.OverlayOperation

	query := `
		SELECT id, base_video_id, filename, operation_type, duration, size, created_time
		FROM overlay_operations
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&op.ID, &op.BaseVideoID, &op.Filename, &op.Kind, &op.Duration, &op.Size, &op.CreatedTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("overlay operation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get overlay operation: %w", err)
	}

	detail, err := r.overlayDetail(ctx, &op)
	if err != nil {
		return nil, nil, err
	}

	return &op, detail, nil
}

func (r *Repository) overlayDetail(ctx context.Context, op *models.OverlayOperation) (models.OverlayDetail, error) {
	var (
		detail models.OverlayDetail
		err    error
	)

	switch op.Kind {
	case models.OverlayKindText:
		var d models.TextOverlay
		err = r.db.Pool.QueryRow(ctx, `
			SELECT id, operation_id, text_content, font_path, font_size, font_color, language, x_position, y_position, start_time, end_time
			FROM text_overlays WHERE operation_id = $1
		`, op.ID).Scan(&d.ID, &d.OperationID, &d.TextContent, &d.FontPath, &d.FontSize, &d.FontColor, &d.Language, &d.XPosition, &d.YPosition, &d.StartTime, &d.EndTime)
		detail = &d
	case models.OverlayKindImage:
		var d models.ImageOverlay
		err = r.db.Pool.QueryRow(ctx, `
			SELECT id, operation_id, image_path, x_position, y_position, start_time, end_time
			FROM image_overlays WHERE operation_id = $1
		`, op.ID).Scan(&d.ID, &d.OperationID, &d.ImagePath, &d.XPosition, &d.YPosition, &d.StartTime, &d.EndTime)
		detail = &d
	case models.OverlayKindVideo:
		var d models.VideoOverlay
		err = r.db.Pool.QueryRow(ctx, `
			SELECT id, operation_id, overlay_video_path, x_position, y_position, start_time, end_time
			FROM video_overlays WHERE operation_id = $1
		`, op.ID).Scan(&d.ID, &d.OperationID, &d.OverlayVideoPath, &d.XPosition, &d.YPosition, &d.StartTime, &d.EndTime)
		detail = &d
	case models.OverlayKindWatermark:
		var d models.Watermark
		err = r.db.Pool.QueryRow(ctx, `
			SELECT id, operation_id, watermark_path, x_position, y_position, opacity
			FROM watermarks WHERE operation_id = $1
		`, op.ID).Scan(&d.ID, &d.OperationID, &d.WatermarkPath, &d.XPosition, &d.YPosition, &d.Opacity)
		detail = &d
	default:
		return nil, fmt.Errorf("unknown overlay kind %s", op.Kind)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("detail for overlay operation %d: %w", op.ID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get overlay detail: %w", err)
	}

	return detail, nil
}

// ListOverlays returns all overlay operations for a video.
func (r *Repository) ListOverlays(ctx context.Context, videoID int64) ([]*models.OverlayOperation, error) {
	query := `
		SELECT id, base_video_id, filename, operation_type, duration, size, created_time
		FROM overlay_operations
		WHERE base_video_id = $1
		ORDER BY created_time DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list overlay operations: %w", err)
	}
	defer rows.Close()

	var ops []*models.OverlayOperation
	for rows.Next() {
		var op models.OverlayOperation
		if err := rows.Scan(&op.ID, &op.BaseVideoID, &op.Filename, &op.Kind, &op.Duration, &op.Size, &op.CreatedTime); err != nil {
			return nil, fmt.Errorf("failed to scan overlay operation: %w", err)
		}
		ops = append(ops, &op)
	}

	return ops, rows.Err()
}

// OverlayCount returns the number of overlay operations for a video.
func (r *Repository) OverlayCount(ctx context.Context, videoID int64) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM overlay_operations WHERE base_video_id = $1`, videoID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count overlay operations: %w", err)
	}
	return count, nil
}
