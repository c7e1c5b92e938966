package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	jobsTotal       *prometheus.CounterVec
	jobsActive      prometheus.Gauge
	jobsEvicted     prometheus.Counter
	encodeDuration  *prometheus.HistogramVec
	encodeFailures  *prometheus.CounterVec
	probeFailures   prometheus.Counter
	ffmpegProcesses prometheus.Gauge
}

// New creates a new metrics instance
func New() *Metrics {
	return &Metrics{
		jobsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transcoder_jobs_total",
				Help: "Total number of conversion jobs by status",
			},
			[]string{"status"},
		),
		jobsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "transcoder_jobs_active",
				Help: "Number of currently running conversion jobs",
			},
		),
		jobsEvicted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "transcoder_jobs_evicted_total",
				Help: "Total number of jobs evicted by the janitor",
			},
		),
		encodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transcoder_encode_duration_seconds",
				Help:    "Duration of rendition encodes in seconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 15), // 1s to ~9 hours
			},
			[]string{"quality"},
		),
		encodeFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transcoder_encode_failures_total",
				Help: "Total number of failed rendition encodes",
			},
			[]string{"quality"},
		),
		probeFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "transcoder_probe_failures_total",
				Help: "Total number of failed media inspections",
			},
		),
		ffmpegProcesses: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "transcoder_ffmpeg_processes_active",
				Help: "Number of currently running FFmpeg processes",
			},
		),
	}
}

// IncrementJobsTotal increments the jobs total counter for a status.
func (m *Metrics) IncrementJobsTotal(status string) {
	m.jobsTotal.WithLabelValues(status).Inc()
}

// IncrementJobsActive increments the active jobs gauge
func (m *Metrics) IncrementJobsActive() {
	m.jobsActive.Inc()
}

// DecrementJobsActive decrements the active jobs gauge
func (m *Metrics) DecrementJobsActive() {
	m.jobsActive.Dec()
}

// AddJobsEvicted adds to the eviction counter.
func (m *Metrics) AddJobsEvicted(n int) {
	m.jobsEvicted.Add(float64(n))
}

// RecordEncodeDuration records the duration of one rendition encode.
func (m *Metrics) RecordEncodeDuration(quality string, seconds float64) {
	m.encodeDuration.WithLabelValues(quality).Observe(seconds)
}

// IncrementEncodeFailures increments the encode failures counter.
func (m *Metrics) IncrementEncodeFailures(quality string) {
	m.encodeFailures.WithLabelValues(quality).Inc()
}

// IncrementProbeFailures increments the probe failures counter.
func (m *Metrics) IncrementProbeFailures() {
	m.probeFailures.Inc()
}

// IncrementFFmpegProcesses increments the FFmpeg processes gauge
func (m *Metrics) IncrementFFmpegProcesses() {
	m.ffmpegProcesses.Inc()
}

// DecrementFFmpegProcesses decrements the FFmpeg processes gauge
func (m *Metrics) DecrementFFmpegProcesses() {
	m.ffmpegProcesses.Dec()
}
