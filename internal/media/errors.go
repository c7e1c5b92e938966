package media

import (
	"fmt"

	"github.com/reelhouse/transcoder/internal/domain"
)

// AnalysisError reports a failed or unparsable media inspection. It is
// fatal to the job before any encoding starts.
type AnalysisError struct {
	Path string
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("media analysis of %s failed: %v", e.Path, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// EncodeError reports an encode subprocess that exited non-zero. It is
// fatal to the whole job, not just the quality that failed.
type EncodeError struct {
	Quality  domain.Quality
	ExitCode int
	Stderr   string
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("%s encode: ffmpeg exited with code %d", e.Quality, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}
