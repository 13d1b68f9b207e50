package media

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityPresets(t *testing.T) {
	tests := []struct {
		label      string
		resolution string
		bitrate    string
		crf        string
	}{
		{"1080p", "1920x1080", "5000k", "23"},
		{"720p", "1280x720", "2500k", "25"},
		{"480p", "854x480", "1000k", "28"},
	}

	for _, tt := range tests {
		preset, ok := PresetFor(tt.label)
		assert.True(t, ok, tt.label)
		assert.Equal(t, tt.resolution, preset.Resolution)
		assert.Equal(t, tt.bitrate, preset.Bitrate)
		assert.Equal(t, tt.crf, preset.CRF)
	}
}

func TestIsSupportedQuality(t *testing.T) {
	assert.True(t, IsSupportedQuality("720p"))
	assert.False(t, IsSupportedQuality("4k"))
	assert.False(t, IsSupportedQuality(""))
}

func TestBuildQualityArgs(t *testing.T) {
	preset, _ := PresetFor("720p")
	args := buildQualityArgs("in.mp4", "out.mp4", preset)

	assert.Equal(t, []string{
		"-i", "in.mp4",
		"-vf", "scale=1280x720",
		"-b:v", "2500k",
		"-crf", "25",
		"-preset", "fast",
		"-c:a", "aac",
		"-b:a", "128k",
		"-y",
		"out.mp4",
	}, args)
}

func TestTranscodeQuality_UnsupportedLabel(t *testing.T) {
	f := NewFFmpeg("ffmpeg", "ffprobe")

	_, err := f.TranscodeQuality(context.Background(), "in.mp4", "out.mp4", "4k")
	assert.True(t, errors.Is(err, ErrUnsupportedQuality))
}

func TestBuildTrimArgs(t *testing.T) {
	args := buildTrimArgs("in.mp4", "out.mp4", 1.5, 10)

	assert.Equal(t, []string{
		"-i", "in.mp4",
		"-ss", "1.5",
		"-to", "10",
		"-c", "copy",
		"-y",
		"out.mp4",
	}, args)
}
