package media

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"

	"github.com/reelhouse/transcoder/internal/domain"
)

// Prober extracts duration, resolution and bitrate from video files
type Prober struct {
	ffprobePath string
}

// NewProber creates a new prober
func NewProber(ffprobePath string) *Prober {
	return &Prober{ffprobePath: ffprobePath}
}

// Probe inspects a video file. A missing format.duration yields a zero
// duration rather than an error; downstream progress reporting degrades
// to terminal 0/100 transitions in that case.
func (p *Prober) Probe(ctx context.Context, inputPath string) (*domain.MediaInfo, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, &AnalysisError{Path: inputPath, Err: fmt.Errorf("ffprobe failed: %w", err)}
	}

	var data probeOutput
	if err := json.Unmarshal(output, &data); err != nil {
		return nil, &AnalysisError{Path: inputPath, Err: fmt.Errorf("unparsable ffprobe output: %w", err)}
	}

	return parseProbeOutput(&data), nil
}

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

func parseProbeOutput(data *probeOutput) *domain.MediaInfo {
	info := &domain.MediaInfo{Bitrate: data.Format.BitRate}

	if duration, err := strconv.ParseFloat(data.Format.Duration, 64); err == nil {
		info.DurationSec = int(math.Floor(duration))
	}

	// First video stream wins
	for _, stream := range data.Streams {
		if stream.CodecType == "video" {
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}

	return info
}
