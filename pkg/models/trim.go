package models

import "time"

// Trim records a [start,end) clip extracted from a source video with
// stream copy. Trims are created once and never updated.
type Trim struct {
	ID          int64     `json:"id" db:"id"`
	VideoID     int64     `json:"video_id" db:"video_id"`
	Filename    string    `json:"filename" db:"filename"`
	Duration    float64   `json:"duration" db:"duration"`
	Size        int64     `json:"size" db:"size"`
	StartTime   float64   `json:"start_time" db:"start_time"`
	EndTime     float64   `json:"end_time" db:"end_time"`
	CreatedTime time.Time `json:"created_time" db:"created_time"`
}
