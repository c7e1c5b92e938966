package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/reelhouse/transcoder/internal/metrics"
)

// Janitor periodically evicts jobs whose last update is older than the
// retention window. Terminal jobs are forgotten too; this bounds memory
// growth from abandoned or never-polled jobs.
type Janitor struct {
	store     *Store
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewJanitor creates a janitor over the given store.
func NewJanitor(store *Store, interval, retention time.Duration, logger *zap.Logger, m *metrics.Metrics) *Janitor {
	return &Janitor{
		store:     store,
		interval:  interval,
		retention: retention,
		logger:    logger,
		metrics:   m,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("janitor stopped")
			return
		case <-ticker.C:
			j.sweep(time.Now().UTC())
		}
	}
}

// sweep evicts every job stale at the given instant, regardless of status.
func (j *Janitor) sweep(now time.Time) {
	evicted := 0
	for _, job := range j.store.List() {
		if now.Sub(job.LastUpdate) > j.retention {
			j.store.Evict(job.ID)
			evicted++
			j.logger.Info("evicted stale job",
				zap.String("jobId", job.ID),
				zap.String("status", string(job.Status)),
				zap.Time("lastUpdate", job.LastUpdate),
			)
		}
	}
	if evicted > 0 && j.metrics != nil {
		j.metrics.AddJobsEvicted(evicted)
	}
}
