package database

import (
	"context"
	"fmt"
)

// schema is applied at startup. The unique constraint on (video_id, quality)
// guarantees at most one rendition per pair; inserts treat a conflict as
// success. Child tables cascade on delete so removing a video cannot orphan
// rows.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS videos (
		id BIGSERIAL PRIMARY KEY,
		filename TEXT NOT NULL,
		duration DOUBLE PRECISION NOT NULL DEFAULT 0,
		size BIGINT NOT NULL DEFAULT 0,
		upload_time TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS video_qualities (
		id BIGSERIAL PRIMARY KEY,
		video_id BIGINT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		quality TEXT NOT NULL,
		filename TEXT NOT NULL,
		bitrate TEXT NOT NULL DEFAULT '',
		resolution TEXT NOT NULL DEFAULT '',
		filesize BIGINT NOT NULL DEFAULT 0,
		created_time TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (video_id, quality)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_video_qualities_video_id ON video_qualities(video_id)`,
	`CREATE TABLE IF NOT EXISTS trimmed_videos (
		id BIGSERIAL PRIMARY KEY,
		video_id BIGINT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		filename TEXT NOT NULL,
		duration DOUBLE PRECISION NOT NULL DEFAULT 0,
		size BIGINT NOT NULL DEFAULT 0,
		start_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		end_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_time TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS overlay_operations (
		id BIGSERIAL PRIMARY KEY,
		base_video_id BIGINT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		filename TEXT NOT NULL,
		operation_type TEXT NOT NULL CHECK (operation_type IN ('text', 'image', 'video', 'watermark')),
		duration DOUBLE PRECISION NOT NULL DEFAULT 0,
		size BIGINT NOT NULL DEFAULT 0,
		created_time TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS text_overlays (
		id BIGSERIAL PRIMARY KEY,
		operation_id BIGINT NOT NULL REFERENCES overlay_operations(id) ON DELETE CASCADE,
		text_content TEXT NOT NULL,
		font_path TEXT NOT NULL,
		font_size INT NOT NULL DEFAULT 30,
		font_color TEXT NOT NULL DEFAULT 'white',
		language TEXT NOT NULL DEFAULT 'en',
		x_position INT NOT NULL DEFAULT 100,
		y_position INT NOT NULL DEFAULT 50,
		start_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		end_time DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS image_overlays (
		id BIGSERIAL PRIMARY KEY,
		operation_id BIGINT NOT NULL REFERENCES overlay_operations(id) ON DELETE CASCADE,
		image_path TEXT NOT NULL,
		x_position INT NOT NULL DEFAULT 0,
		y_position INT NOT NULL DEFAULT 0,
		start_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		end_time DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS video_overlays (
		id BIGSERIAL PRIMARY KEY,
		operation_id BIGINT NOT NULL REFERENCES overlay_operations(id) ON DELETE CASCADE,
		overlay_video_path TEXT NOT NULL,
		x_position INT NOT NULL DEFAULT 0,
		y_position INT NOT NULL DEFAULT 0,
		start_time DOUBLE PRECISION NOT NULL DEFAULT 0,
		end_time DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS watermarks (
		id BIGSERIAL PRIMARY KEY,
		operation_id BIGINT NOT NULL REFERENCES overlay_operations(id) ON DELETE CASCADE,
		watermark_path TEXT NOT NULL,
		x_position INT NOT NULL DEFAULT 0,
		y_position INT NOT NULL DEFAULT 0,
		opacity DOUBLE PRECISION NOT NULL DEFAULT 0.5
	)`,
}

// Migrate applies the schema statements in order.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
