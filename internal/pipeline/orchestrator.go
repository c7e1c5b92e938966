package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/reelhouse/transcoder/internal/domain"
	"github.com/reelhouse/transcoder/internal/jobs"
	"github.com/reelhouse/transcoder/internal/media"
	"github.com/reelhouse/transcoder/internal/metrics"
)

var (
	// ErrJobNotFound is returned when a job id is unknown or evicted.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobFinished is returned when cancelling a terminal job.
	ErrJobFinished = errors.New("job already finished")
)

// cancelledMessage is the error recorded on a job whose encode was
// cancelled. Cancellation kills the encode process group and fails the
// job; it never leaves a subprocess running to completion.
const cancelledMessage = "conversion cancelled"

// MediaProber inspects a source file before encoding starts.
type MediaProber interface {
	Probe(ctx context.Context, inputPath string) (*domain.MediaInfo, error)
}

// RenditionEncoder produces one encoded rendition file.
type RenditionEncoder interface {
	Encode(ctx context.Context, inputPath, outputPath string, quality domain.Quality, totalSec int, onProgress media.ProgressFunc) error
}

// QualityStore persists rendition metadata, keyed by (movie, quality).
type QualityStore interface {
	Upsert(ctx context.Context, record *domain.VideoQuality) error
}

// Orchestrator drives the per-movie conversion pipeline: inspect the
// source, then encode every quality profile sequentially, persisting
// rendition metadata as each one finishes.
type Orchestrator struct {
	outputRoot string
	publicBase string
	store      *jobs.Store
	prober     MediaProber
	encoder    RenditionEncoder
	qualities  QualityStore
	logger     *zap.Logger
	metrics    *metrics.Metrics

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewOrchestrator creates an orchestrator writing rendition files under
// outputRoot/{movieId}/ and exposing them below publicBase.
func NewOrchestrator(
	outputRoot string,
	publicBase string,
	store *jobs.Store,
	prober MediaProber,
	encoder RenditionEncoder,
	qualities QualityStore,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Orchestrator {
	return &Orchestrator{
		outputRoot: outputRoot,
		publicBase: strings.TrimSuffix(publicBase, "/"),
		store:      store,
		prober:     prober,
		encoder:    encoder,
		qualities:  qualities,
		logger:     logger,
		metrics:    m,
		cancels:    make(map[string]context.CancelFunc),
	}
}

// StartConversion registers a pending job and returns its id immediately;
// encoding proceeds in the background. Each call spawns independent work,
// so conversions for different movies run concurrently.
func (o *Orchestrator) StartConversion(movieID int64, sourcePath, fileID string) (string, error) {
	if sourcePath == "" {
		return "", errors.New("source path is required")
	}
	if fileID == "" {
		return "", errors.New("file id is required")
	}

	job := domain.NewJob(movieID, sourcePath, fileID)
	o.store.Put(job)

	ctx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.cancels[job.ID] = cancel
	o.mu.Unlock()

	go func() {
		defer cancel()
		defer o.removeCancel(job.ID)
		o.run(ctx, job.ID)
	}()

	o.logger.Info("conversion started",
		zap.String("jobId", job.ID),
		zap.Int64("movieId", movieID),
		zap.String("source", sourcePath),
	)
	return job.ID, nil
}

// Cancel kills an in-flight conversion. The job ends failed with a
// cancellation message; terminal jobs cannot be cancelled.
func (o *Orchestrator) Cancel(id string) error {
	job, ok := o.store.Get(id)
	if !ok {
		return ErrJobNotFound
	}
	if job.Status.Terminal() {
		return ErrJobFinished
	}

	o.mu.Lock()
	cancel, ok := o.cancels[id]
	o.mu.Unlock()
	if ok {
		cancel()
	} else {
		// Background task already gone; settle the record directly.
		o.failJob(id, cancelledMessage)
	}

	o.logger.Info("conversion cancel requested", zap.String("jobId", id))
	return nil
}

func (o *Orchestrator) removeCancel(id string) {
	o.mu.Lock()
	delete(o.cancels, id)
	o.mu.Unlock()
}

// run executes the whole pipeline for one job. Every failure inside it,
// panics included, ends as a terminal failed state on the job record;
// nothing escapes to crash the process.
func (o *Orchestrator) run(ctx context.Context, id string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("conversion panicked",
				zap.String("jobId", id),
				zap.Any("panic", r),
			)
			o.failJob(id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	o.metrics.IncrementJobsActive()
	defer o.metrics.DecrementJobsActive()

	var job domain.Job
	found := o.store.Update(id, func(j *domain.Job) {
		j.SetStatus(domain.JobStatusProcessing)
		job = j.Clone()
	})
	if !found {
		return
	}

	outputDir := filepath.Join(o.outputRoot, strconv.FormatInt(job.MovieID, 10))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		o.failJob(id, fmt.Sprintf("failed to create output directory: %v", err))
		return
	}

	info, err := o.prober.Probe(ctx, job.OriginalPath)
	if err != nil {
		if ctx.Err() != nil {
			o.failJob(id, cancelledMessage)
			return
		}
		o.metrics.IncrementProbeFailures()
		o.failJob(id, err.Error())
		return
	}

	for _, quality := range domain.AllQualities() {
		if ctx.Err() != nil {
			o.failJob(id, cancelledMessage)
			return
		}
		if !o.encodeQuality(ctx, id, &job, info, quality, outputDir) {
			return
		}
	}

	o.store.Update(id, func(j *domain.Job) { j.MarkCompleted() })
	o.metrics.IncrementJobsTotal(string(domain.JobStatusCompleted))
	o.logger.Info("conversion completed",
		zap.String("jobId", id),
		zap.Int64("movieId", job.MovieID),
	)
}

// encodeQuality runs a single rendition end to end: encode, measure,
// persist, mark done. It reports whether the pipeline may continue; a
// false return means the job has already been failed and the remaining
// qualities must not be attempted.
func (o *Orchestrator) encodeQuality(ctx context.Context, id string, job *domain.Job, info *domain.MediaInfo, quality domain.Quality, outputDir string) bool {
	o.store.Update(id, func(j *domain.Job) { j.InitQualityProgress(quality) })

	fileName := fmt.Sprintf("%s_%s.mp4", job.FileID, quality)
	outputPath := filepath.Join(outputDir, fileName)

	started := time.Now()
	o.metrics.IncrementFFmpegProcesses()
	err := o.encoder.Encode(ctx, job.OriginalPath, outputPath, quality, info.DurationSec, func(percent int) {
		// Read-modify-write against the stored record so pollers
		// observe live progress, never a stale snapshot.
		o.store.Update(id, func(j *domain.Job) { j.SetQualityProgress(quality, percent) })
	})
	o.metrics.DecrementFFmpegProcesses()

	if err != nil {
		o.metrics.IncrementEncodeFailures(string(quality))
		if ctx.Err() != nil {
			o.failJob(id, cancelledMessage)
		} else {
			o.failJob(id, err.Error())
		}
		return false
	}
	o.metrics.RecordEncodeDuration(string(quality), time.Since(started).Seconds())

	fi, err := os.Stat(outputPath)
	if err != nil {
		// A missing size would corrupt the metadata row; fail loudly
		// instead of recording zero bytes.
		o.failJob(id, fmt.Sprintf("failed to stat %s output: %v", quality, err))
		return false
	}

	record := &domain.VideoQuality{
		MovieID:     job.MovieID,
		Quality:     quality,
		FilePath:    fmt.Sprintf("%s/%d/%s", o.publicBase, job.MovieID, fileName),
		FileSize:    fi.Size(),
		DurationSec: info.DurationSec,
		Bitrate:     quality.Params().VideoBitrate,
		Codec:       domain.VideoCodec,
	}
	if err := o.qualities.Upsert(ctx, record); err != nil {
		o.failJob(id, fmt.Sprintf("failed to persist %s rendition: %v", quality, err))
		return false
	}

	o.store.Update(id, func(j *domain.Job) { j.SetQualityProgress(quality, 100) })
	o.logger.Info("rendition ready",
		zap.String("jobId", id),
		zap.String("quality", string(quality)),
		zap.Int64("sizeBytes", fi.Size()),
	)
	return true
}

func (o *Orchestrator) failJob(id, message string) {
	changed := false
	o.store.Update(id, func(j *domain.Job) {
		if !j.Status.Terminal() {
			j.MarkFailed(message)
			changed = true
		}
	})
	if changed {
		o.metrics.IncrementJobsTotal(string(domain.JobStatusFailed))
		o.logger.Warn("conversion failed",
			zap.String("jobId", id),
			zap.String("error", message),
		)
	}
}
