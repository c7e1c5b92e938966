package media

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/reelhouse/transcoder/internal/domain"
)

// stderrTailLines bounds how much diagnostic output is retained for the
// error message when an encode fails.
const stderrTailLines = 5

// ProgressFunc receives debounced progress percentages during an encode.
// Intermediate values stay below 96; a successful encode always ends with
// exactly one call carrying 100.
type ProgressFunc func(percent int)

// Encoder produces one rendition file per invocation by driving an
// external ffmpeg process.
type Encoder struct {
	ffmpegPath string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewEncoder creates a new encoder
func NewEncoder(ffmpegPath string, timeout time.Duration, logger *zap.Logger) *Encoder {
	return &Encoder{
		ffmpegPath: ffmpegPath,
		timeout:    timeout,
		logger:     logger,
	}
}

// BuildEncodeArgs builds the ffmpeg argument list for one quality:
// H.264/AAC into a fast-start MP4, overwriting any existing output.
func BuildEncodeArgs(inputPath, outputPath string, quality domain.Quality) []string {
	params := quality.Params()
	return []string{
		"-y",
		"-i", inputPath,
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-s", quality.Resolution(),
		"-b:v", params.VideoBitrate,
		"-c:a", "aac",
		"-b:a", params.AudioBitrate,
		"-movflags", "+faststart",
		"-f", "mp4",
		outputPath,
	}
}

// splitStatsLines splits the diagnostic stream on either line terminator.
// ffmpeg rewrites its periodic stats line in place using a bare carriage
// return, so a newline-only splitter would never yield a token until the
// process exits.
func splitStatsLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Encode transcodes inputPath into outputPath at the given quality,
// reporting progress against totalSec. Cancelling the context kills the
// whole encode process group. A non-zero exit is returned as *EncodeError.
func (e *Encoder) Encode(ctx context.Context, inputPath, outputPath string, quality domain.Quality, totalSec int, onProgress ProgressFunc) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, BuildEncodeArgs(inputPath, outputPath, quality)...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative pid addresses the process group, so ffmpeg's own
		// children die with it.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = 10 * time.Second

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	e.logger.Debug("encode started",
		zap.String("quality", string(quality)),
		zap.String("output", outputPath),
	)

	tracker := newProgressTracker(totalSec)
	var tail []string

	scanner := bufio.NewScanner(stderr)
	scanner.Split(splitStatsLines)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			tail = append(tail, line)
			if len(tail) > stderrTailLines {
				tail = tail[1:]
			}
		}
		if percent, ok := tracker.observe(line); ok && onProgress != nil {
			onProgress(percent)
		}
	}
	if scanner.Err() != nil {
		// Never stop draining: ffmpeg blocks on a full stderr pipe.
		_, _ = io.Copy(io.Discard, stderr)
	}

	if err := cmd.Wait(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		e.logger.Warn("encode failed",
			zap.String("quality", string(quality)),
			zap.Int("exitCode", exitCode),
		)
		return &EncodeError{
			Quality:  quality,
			ExitCode: exitCode,
			Stderr:   strings.Join(tail, "\n"),
		}
	}

	if onProgress != nil {
		onProgress(100)
	}
	return nil
}
