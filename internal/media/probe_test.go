package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeProbeStub writes an executable script standing in for ffprobe.
func writeProbeStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe-stub.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("failed to write stub: %v", err)
	}
	return path
}

func TestProbeParsesFirstVideoStream(t *testing.T) {
	stub := writeProbeStub(t, `cat <<'EOF'
{
  "streams": [
    {"codec_type": "audio", "width": 0, "height": 0},
    {"codec_type": "video", "width": 1920, "height": 1080},
    {"codec_type": "video", "width": 640, "height": 360}
  ],
  "format": {"duration": "120.96", "bit_rate": "4500000"}
}
EOF
`)

	prober := NewProber(stub)
	info, err := prober.Probe(context.Background(), "movie.mp4")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	if info.DurationSec != 120 {
		t.Fatalf("expected floored duration 120, got %d", info.DurationSec)
	}
	if info.Width != 1920 || info.Height != 1080 {
		t.Fatalf("expected first video stream dimensions, got %dx%d", info.Width, info.Height)
	}
	if info.Bitrate != "4500000" {
		t.Fatalf("unexpected bitrate %q", info.Bitrate)
	}
}

func TestProbeMissingDurationDefaultsToZero(t *testing.T) {
	stub := writeProbeStub(t, `cat <<'EOF'
{
  "streams": [{"codec_type": "video", "width": 1280, "height": 720}],
  "format": {}
}
EOF
`)

	prober := NewProber(stub)
	info, err := prober.Probe(context.Background(), "live.mp4")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.DurationSec != 0 {
		t.Fatalf("expected unknown duration to be 0, got %d", info.DurationSec)
	}
}

func TestProbeSubprocessFailure(t *testing.T) {
	stub := writeProbeStub(t, `exit 1`)

	prober := NewProber(stub)
	_, err := prober.Probe(context.Background(), "corrupt.mp4")
	if err == nil {
		t.Fatal("expected error")
	}

	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("expected *AnalysisError, got %T", err)
	}
	if analysisErr.Path != "corrupt.mp4" {
		t.Fatalf("unexpected path %q", analysisErr.Path)
	}
}

func TestProbeUnparsableOutput(t *testing.T) {
	stub := writeProbeStub(t, `echo "not json"`)

	prober := NewProber(stub)
	_, err := prober.Probe(context.Background(), "weird.mp4")

	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("expected *AnalysisError, got %v", err)
	}
}
