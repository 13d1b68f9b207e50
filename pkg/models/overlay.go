package models

import "time"

// Overlay operation kinds.
const (
	OverlayKindText      = "text"
	OverlayKindImage     = "image"
	OverlayKindVideo     = "video"
	OverlayKindWatermark = "watermark"
)

// OverlayOperation tracks one compositing operation applied to a base video.
// Each operation owns exactly one detail row whose shape depends on Kind.
type OverlayOperation struct {
	ID          int64     `json:"id" db:"id"`
	BaseVideoID int64     `json:"base_video_id" db:"base_video_id"`
	Filename    string    `json:"filename" db:"filename"`
	Kind        string    `json:"operation_type" db:"operation_type"`
	Duration    float64   `json:"duration" db:"duration"`
	Size        int64     `json:"size" db:"size"`
	CreatedTime time.Time `json:"created_time" db:"created_time"`
}

// OverlayDetail is the tagged variant carried by an OverlayOperation.
// Exactly one concrete detail type exists per operation kind.
type OverlayDetail interface {
	OverlayKind() string
}

// TextOverlay holds the configuration of a drawtext operation.
type TextOverlay struct {
	ID          int64   `json:"id" db:"id"`
	OperationID int64   `json:"operation_id" db:"operation_id"`
	TextContent string  `json:"text_content" db:"text_content"`
	FontPath    string  `json:"font_path" db:"font_path"`
	FontSize    int     `json:"font_size" db:"font_size"`
	FontColor   string  `json:"font_color" db:"font_color"`
	Language    string  `json:"language" db:"language"`
	XPosition   int     `json:"x_position" db:"x_position"`
	YPosition   int     `json:"y_position" db:"y_position"`
	StartTime   float64 `json:"start_time" db:"start_time"`
	EndTime     float64 `json:"end_time" db:"end_time"`
}

func (*TextOverlay) OverlayKind() string { return OverlayKindText }

// ImageOverlay holds the configuration of a static image overlay.
type ImageOverlay struct {
	ID          int64   `json:"id" db:"id"`
	OperationID int64   `json:"operation_id" db:"operation_id"`
	ImagePath   string  `json:"image_path" db:"image_path"`
	XPosition   int     `json:"x_position" db:"x_position"`
	YPosition   int     `json:"y_position" db:"y_position"`
	StartTime   float64 `json:"start_time" db:"start_time"`
	EndTime     float64 `json:"end_time" db:"end_time"`
}

func (*ImageOverlay) OverlayKind() string { return OverlayKindImage }

// VideoOverlay holds the configuration of a video-on-video overlay.
type VideoOverlay struct {
	ID               int64   `json:"id" db:"id"`
	OperationID      int64   `json:"operation_id" db:"operation_id"`
	OverlayVideoPath string  `json:"overlay_video_path" db:"overlay_video_path"`
	XPosition        int     `json:"x_position" db:"x_position"`
	YPosition        int     `json:"y_position" db:"y_position"`
	StartTime        float64 `json:"start_time" db:"start_time"`
	EndTime          float64 `json:"end_time" db:"end_time"`
}

func (*VideoOverlay) OverlayKind() string { return OverlayKindVideo }

// Watermark holds the configuration of an alpha-blended watermark.
type Watermark struct {
	ID            int64   `json:"id" db:"id"`
	OperationID   int64   `json:"operation_id" db:"operation_id"`
	WatermarkPath string  `json:"watermark_path" db:"watermark_path"`
	XPosition     int     `json:"x_position" db:"x_position"`
	YPosition     int     `json:"y_position" db:"y_position"`
	Opacity       float64 `json:"opacity" db:"opacity"`
}

func (*Watermark) OverlayKind() string { return OverlayKindWatermark }
