package media

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTextOverlayFilter(t *testing.T) {
	filter := buildTextOverlayFilter(TextOverlayOptions{
		Text:      "Hello",
		FontPath:  "/fonts/NotoSans-Regular.ttf",
		FontSize:  24,
		FontColor: "white",
		X:         10,
		Y:         20,
		Start:     1,
		End:       5.5,
	})

	assert.Equal(t,
		"drawtext=text='Hello':fontfile='/fonts/NotoSans-Regular.ttf':x=10:y=20:fontsize=24:fontcolor=white:enable='between(t,1,5.5)'",
		filter,
	)
}

func TestBuildImageOverlayFilter(t *testing.T) {
	filter := buildImageOverlayFilter(ImageOverlayOptions{
		ImagePath: "logo.png",
		X:         5,
		Y:         5,
		Start:     0,
		End:       10,
	})

	assert.Equal(t, "overlay=5:5:enable='between(t,0,10)'", filter)
}

func TestBuildVideoOverlayFilter(t *testing.T) {
	filter := buildVideoOverlayFilter(VideoOverlayOptions{
		OverlayPath: "clip.mp4",
		X:           100,
		Y:           50,
		Start:       2,
		End:         8,
	})

	assert.Equal(t,
		"[1:v]setpts=PTS-STARTPTS+2/TB[ov];[0:v][ov]overlay=100:50:enable='between(t,2,8)'",
		filter,
	)
}

func TestBuildWatermarkFilter(t *testing.T) {
	filter := buildWatermarkFilter(WatermarkOptions{
		WatermarkPath: "mark.png",
		X:             10,
		Y:             10,
		Opacity:       0.5,
	})

	assert.Equal(t, "[1]format=rgba,colorchannelmixer=aa=0.50[wm];[0][wm]overlay=10:10", filter)
}

func TestFontPath(t *testing.T) {
	tests := []struct {
		language string
		font     string
	}{
		{"en", "NotoSans-Regular.ttf"},
		{"hi", "NotoSansDevanagari-Regular.ttf"},
		{"ta", "NotoSansTamil-Regular.ttf"},
		{"te", "NotoSansTelugu-Regular.ttf"},
		{"fr", "NotoSans-Regular.ttf"},
		{"", "NotoSans-Regular.ttf"},
	}

	for _, tt := range tests {
		assert.Equal(t, filepath.Join("/fonts", tt.font), FontPath("/fonts", tt.language), tt.language)
	}
}
