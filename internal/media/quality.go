package media

import (
	"context"
	"fmt"
	"os"
)

// QualityPreset holds the fixed encoding parameters for a quality label.
type QualityPreset struct {
	Resolution string
	Bitrate    string
	CRF        string
}

// qualityPresets maps quality labels to their encoding presets.
var qualityPresets = map[string]QualityPreset{
	"1080p": {Resolution: "1920x1080", Bitrate: "5000k", CRF: "23"},
	"720p":  {Resolution: "1280x720", Bitrate: "2500k", CRF: "25"},
	"480p":  {Resolution: "854x480", Bitrate: "1000k", CRF: "28"},
}

// IsSupportedQuality reports whether a preset exists for the label.
func IsSupportedQuality(label string) bool {
	_, ok := qualityPresets[label]
	return ok
}

// PresetFor returns the preset for a quality label.
func PresetFor(label string) (QualityPreset, bool) {
	p, ok := qualityPresets[label]
	return p, ok
}

// QualityResult describes a generated rendition. Filesize is the size of the
// output file on disk, not the encoder-reported size.
type QualityResult struct {
	Resolution string
	Bitrate    string
	Filesize   int64
}

// buildQualityArgs builds the ffmpeg arguments for one preset encode.
func buildQualityArgs(inputPath, outputPath string, preset QualityPreset) []string {
	return []string{
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=%s", preset.Resolution),
		"-b:v", preset.Bitrate,
		"-crf", preset.CRF,
		"-preset", "fast",
		"-c:a", "aac",
		"-b:a", "128k",
		"-y",
		outputPath,
	}
}

// TranscodeQuality produces one quality rendition of the input file.
// Unsupported labels fail before any process is spawned. On success the
// output is re-probed and its on-disk size reported.
func (f *FFmpeg) TranscodeQuality(ctx context.Context, inputPath, outputPath, quality string) (*QualityResult, error) {
	preset, ok := qualityPresets[quality]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedQuality, quality)
	}

	if err := f.run(ctx, "transcode_quality", buildQualityArgs(inputPath, outputPath, preset)); err != nil {
		return nil, err
	}

	if _, err := f.Probe(ctx, outputPath); err != nil {
		return nil, err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("stat output: %w", err)
	}

	return &QualityResult{
		Resolution: preset.Resolution,
		Bitrate:    preset.Bitrate,
		Filesize:   info.Size(),
	}, nil
}
