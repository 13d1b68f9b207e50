package models

import "time"

// Rendition is a transcoded copy of a source video at a fixed quality
// profile. At most one rendition exists per (video, quality) pair; the
// database enforces this with a unique constraint.
type Rendition struct {
	ID          int64     `json:"id" db:"id"`
	VideoID     int64     `json:"video_id" db:"video_id"`
	Quality     string    `json:"quality" db:"quality"`
	Filename    string    `json:"filename" db:"filename"`
	Bitrate     string    `json:"bitrate" db:"bitrate"`
	Resolution  string    `json:"resolution" db:"resolution"`
	Filesize    int64     `json:"filesize" db:"filesize"`
	CreatedTime time.Time `json:"created_time" db:"created_time"`
}
