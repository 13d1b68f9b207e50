package media

import (
	"context"
	"fmt"
	"path/filepath"
)

// TextOverlayOptions configures a drawtext overlay.
type TextOverlayOptions struct {
	Text      string
	FontPath  string
	FontSize  int
	FontColor string
	X         int
	Y         int
	Start     float64
	End       float64
}

// ImageOverlayOptions configures a static image overlay.
type ImageOverlayOptions struct {
	ImagePath string
	X         int
	Y         int
	Start     float64
	End       float64
}

// VideoOverlayOptions configures a time-shifted video-on-video overlay.
type VideoOverlayOptions struct {
	OverlayPath string
	X           int
	Y           int
	Start       float64
	End         float64
}

// WatermarkOptions configures an alpha-blended watermark.
type WatermarkOptions struct {
	WatermarkPath string
	X             int
	Y             int
	Opacity       float64
}

// buildTextOverlayFilter builds the drawtext filter expression with a
// visibility window.
func buildTextOverlayFilter(opts TextOverlayOptions) string {
	return fmt.Sprintf(
		"drawtext=text='%s':fontfile='%s':x=%d:y=%d:fontsize=%d:fontcolor=%s:enable='between(t,%g,%g)'",
		opts.Text, opts.FontPath, opts.X, opts.Y, opts.FontSize, opts.FontColor, opts.Start, opts.End,
	)
}

// buildImageOverlayFilter builds the overlay filter for a static image.
func buildImageOverlayFilter(opts ImageOverlayOptions) string {
	return fmt.Sprintf(
		"overlay=%d:%d:enable='between(t,%g,%g)'",
		opts.X, opts.Y, opts.Start, opts.End,
	)
}

// buildVideoOverlayFilter builds the filter for a video overlay whose
// timestamps are shifted so it starts playing at the window start.
func buildVideoOverlayFilter(opts VideoOverlayOptions) string {
	return fmt.Sprintf(
		"[1:v]setpts=PTS-STARTPTS+%g/TB[ov];[0:v][ov]overlay=%d:%d:enable='between(t,%g,%g)'",
		opts.Start, opts.X, opts.Y, opts.Start, opts.End,
	)
}

// buildWatermarkFilter builds the filter for a watermark blended at the
// given opacity.
func buildWatermarkFilter(opts WatermarkOptions) string {
	return fmt.Sprintf(
		"[1]format=rgba,colorchannelmixer=aa=%.2f[wm];[0][wm]overlay=%d:%d",
		opts.Opacity, opts.X, opts.Y,
	)
}

// ApplyTextOverlay draws text onto the input video. The audio stream is
// copied without re-encoding. Output existence is not verified here.
func (f *FFmpeg) ApplyTextOverlay(ctx context.Context, inputPath, outputPath string, opts TextOverlayOptions) error {
	args := []string{
		"-i", inputPath,
		"-vf", buildTextOverlayFilter(opts),
		"-codec:a", "copy",
		"-y",
		outputPath,
	}
	return f.run(ctx, "overlay_text", args)
}

// ApplyImageOverlay composites a static image onto the input video for the
// configured time window.
func (f *FFmpeg) ApplyImageOverlay(ctx context.Context, inputPath, outputPath string, opts ImageOverlayOptions) error {
	args := []string{
		"-i", inputPath,
		"-i", opts.ImagePath,
		"-filter_complex", buildImageOverlayFilter(opts),
		"-codec:a", "copy",
		"-y",
		outputPath,
	}
	return f.run(ctx, "overlay_image", args)
}

// ApplyVideoOverlay composites a second video onto the input, time-shifted
// to the start of its visibility window.
func (f *FFmpeg) ApplyVideoOverlay(ctx context.Context, inputPath, outputPath string, opts VideoOverlayOptions) error {
	args := []string{
		"-i", inputPath,
		"-i", opts.OverlayPath,
		"-filter_complex", buildVideoOverlayFilter(opts),
		"-codec:a", "copy",
		"-y",
		outputPath,
	}
	return f.run(ctx, "overlay_video", args)
}

// ApplyWatermark blends a watermark image over the full duration of the
// input at the configured opacity.
func (f *FFmpeg) ApplyWatermark(ctx context.Context, inputPath, outputPath string, opts WatermarkOptions) error {
	args := []string{
		"-i", inputPath,
		"-i", opts.WatermarkPath,
		"-filter_complex", buildWatermarkFilter(opts),
		"-codec:a", "copy",
		"-y",
		outputPath,
	}
	return f.run(ctx, "watermark", args)
}

// languageFonts maps language tags to font files under the configured font
// directory.
var languageFonts = map[string]string{
	"en": "NotoSans-Regular.ttf",
	"hi": "NotoSansDevanagari-Regular.ttf",
	"ta": "NotoSansTamil-Regular.ttf",
	"te": "NotoSansTelugu-Regular.ttf",
}

// FontPath resolves the font file for a language tag, falling back to the
// Latin font for unknown tags.
func FontPath(fontDir, language string) string {
	name, ok := languageFonts[language]
	if !ok {
		name = languageFonts["en"]
	}
	return filepath.Join(fontDir, name)
}
