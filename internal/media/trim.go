package media

import (
	"context"
	"strconv"
)

// buildTrimArgs builds the ffmpeg arguments for a stream-copy trim.
func buildTrimArgs(inputPath, outputPath string, startSeconds, endSeconds float64) []string {
	return []string{
		"-i", inputPath,
		"-ss", strconv.FormatFloat(startSeconds, 'f', -1, 64),
		"-to", strconv.FormatFloat(endSeconds, 'f', -1, 64),
		"-c", "copy",
		"-y",
		outputPath,
	}
}

// Trim extracts [startSeconds, endSeconds) of the input with stream copy,
// no re-encode.
func (f *FFmpeg) Trim(ctx context.Context, inputPath, outputPath string, startSeconds, endSeconds float64) error {
	return f.run(ctx, "trim", buildTrimArgs(inputPath, outputPath, startSeconds, endSeconds))
}
