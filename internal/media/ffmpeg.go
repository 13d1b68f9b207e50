package media

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"time"

	"videoforge/internal/metrics"
)

// FFmpeg invokes the external ffmpeg/ffprobe binaries. Both paths are
// resolved and validated once at startup through configuration.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg creates a new FFmpeg adapter.
func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// ProbeResult holds the metadata extracted from a media file.
type ProbeResult struct {
	Duration float64 `json:"duration"`
	Size     int64   `json:"size"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Bitrate  int64   `json:"bitrate"`
}

// probeOutput mirrors the ffprobe JSON layout.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		Width   int    `json:"width"`
		Height  int    `json:"height"`
		BitRate string `json:"bit_rate"`
	} `json:"streams"`
}

// Probe extracts duration, size, resolution and bitrate from a media file.
func (f *FFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,bit_rate:format=duration,size,bit_rate",
		"-of", "json",
		path,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	metrics.FFmpegDuration.WithLabelValues("probe").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &ProbeError{Path: path, Stderr: stderr.String(), Err: err}
	}

	result, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return nil, &ProbeError{Path: path, Err: err}
	}

	return result, nil
}

// parseProbeOutput decodes the ffprobe JSON document. Numeric fields arrive
// as strings and missing fields are left zero.
func parseProbeOutput(data []byte) (*ProbeResult, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	var result ProbeResult
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		result.Duration = d
	}
	if s, err := strconv.ParseInt(out.Format.Size, 10, 64); err == nil {
		result.Size = s
	}
	if b, err := strconv.ParseInt(out.Format.BitRate, 10, 64); err == nil {
		result.Bitrate = b
	}
	if len(out.Streams) > 0 {
		result.Width = out.Streams[0].Width
		result.Height = out.Streams[0].Height
		if result.Bitrate == 0 {
			if b, err := strconv.ParseInt(out.Streams[0].BitRate, 10, 64); err == nil {
				result.Bitrate = b
			}
		}
	}

	return &result, nil
}

// run executes ffmpeg with the given arguments, capturing stderr for error
// reporting. op names the operation for errors and metrics.
func (f *FFmpeg) run(ctx context.Context, op string, args []string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	metrics.FFmpegDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return &TranscodeError{Op: op, Stderr: stderr.String(), Err: err}
	}

	return nil
}
