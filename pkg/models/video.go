package models

import "time"

// Video represents an uploaded source video. The stored filename carries a
// random prefix so uploads never collide; the client-facing name is derived
// by stripping everything up to the first underscore.
type Video struct {
	ID         int64     `json:"id" db:"id"`
	Filename   string    `json:"filename" db:"filename"`
	Duration   float64   `json:"duration" db:"duration"`
	Size       int64     `json:"size" db:"size"`
	UploadTime time.Time `json:"upload_time" db:"upload_time"`
}

// OriginalFilename returns the client-supplied name without the stored
// uniqueness prefix.
func (v *Video) OriginalFilename() string {
	for i := 0; i < len(v.Filename); i++ {
		if v.Filename[i] == '_' {
			return v.Filename[i+1:]
		}
	}
	return v.Filename
}

// VideoStats aggregates everything derived from one source video.
type VideoStats struct {
	VideoID            int64        `json:"video_id"`
	Filename           string       `json:"filename"`
	OriginalDuration   float64      `json:"original_duration"`
	OriginalSize       int64        `json:"original_size"`
	UploadTime         time.Time    `json:"upload_time"`
	AvailableQualities []string     `json:"available_qualities"`
	TotalQualities     int          `json:"total_qualities"`
	TrimmedVersions    int          `json:"trimmed_versions"`
	OverlayOperations  int          `json:"overlay_operations"`
	QualityDetails     []*Rendition `json:"quality_details"`
}
