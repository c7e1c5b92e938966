package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Prometheus collectors register globally, so the whole test binary
// shares one instance.
var testMetrics = New()

func TestJobsTotalCountsEveryStatus(t *testing.T) {
	// Accepted jobs are counted as pending, terminal ones by outcome.
	for _, status := range []string{"pending", "completed", "failed"} {
		testMetrics.IncrementJobsTotal(status)
		got := testutil.ToFloat64(testMetrics.jobsTotal.WithLabelValues(status))
		if got != 1 {
			t.Fatalf("jobs_total{status=%q} = %v, want 1", status, got)
		}
	}
}

func TestGauges(t *testing.T) {
	testMetrics.IncrementJobsActive()
	testMetrics.IncrementJobsActive()
	testMetrics.DecrementJobsActive()
	if got := testutil.ToFloat64(testMetrics.jobsActive); got != 1 {
		t.Fatalf("jobs_active = %v, want 1", got)
	}

	testMetrics.IncrementFFmpegProcesses()
	testMetrics.DecrementFFmpegProcesses()
	if got := testutil.ToFloat64(testMetrics.ffmpegProcesses); got != 0 {
		t.Fatalf("ffmpeg_processes_active = %v, want 0", got)
	}

	testMetrics.AddJobsEvicted(3)
	if got := testutil.ToFloat64(testMetrics.jobsEvicted); got != 3 {
		t.Fatalf("jobs_evicted_total = %v, want 3", got)
	}
}
