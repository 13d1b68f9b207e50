package media

import (
	"errors"
	"fmt"
)

// ErrUnsupportedQuality is returned for quality labels without a preset,
// before any process is spawned.
var ErrUnsupportedQuality = errors.New("unsupported quality")

// ProbeError reports an ffprobe invocation that exited non-zero or produced
// output that could not be parsed.
type ProbeError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("probe %s: %v: %s", e.Path, e.Err, e.Stderr)
	}
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// TranscodeError reports an ffmpeg invocation that exited non-zero.
type TranscodeError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }
