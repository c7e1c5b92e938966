package jobs

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/reelhouse/transcoder/internal/domain"
)

func TestJanitorSweepEvictsStaleJobs(t *testing.T) {
	store := NewStore()
	janitor := NewJanitor(store, time.Minute, 2*time.Hour, zap.NewNop(), nil)

	now := time.Now().UTC()

	stale := domain.NewJob(1, "/uploads/old.mp4", "f1")
	stale.MarkCompleted()
	stale.LastUpdate = now.Add(-3 * time.Hour)
	store.Put(stale)

	fresh := domain.NewJob(2, "/uploads/new.mp4", "f2")
	fresh.LastUpdate = now.Add(-10 * time.Minute)
	store.Put(fresh)

	janitor.sweep(now)

	if _, ok := store.Get(stale.ID); ok {
		t.Fatal("stale job survived sweep")
	}
	if _, ok := store.Get(fresh.ID); !ok {
		t.Fatal("fresh job was evicted")
	}
}

func TestJanitorSweepEvictsRegardlessOfStatus(t *testing.T) {
	store := NewStore()
	janitor := NewJanitor(store, time.Minute, time.Hour, zap.NewNop(), nil)

	now := time.Now().UTC()
	statuses := []func(*domain.Job){
		func(j *domain.Job) {}, // stays pending
		func(j *domain.Job) { j.SetStatus(domain.JobStatusProcessing) },
		func(j *domain.Job) { j.MarkCompleted() },
		func(j *domain.Job) { j.MarkFailed("boom") },
	}
	for i, apply := range statuses {
		job := domain.NewJob(int64(i), "/uploads/x.mp4", "f")
		apply(job)
		job.LastUpdate = now.Add(-2 * time.Hour)
		store.Put(job)
	}

	janitor.sweep(now)

	if store.Len() != 0 {
		t.Fatalf("expected all stale jobs evicted, %d remain", store.Len())
	}
}

func TestJanitorSweepKeepsJobsWithinRetention(t *testing.T) {
	store := NewStore()
	janitor := NewJanitor(store, time.Minute, time.Hour, zap.NewNop(), nil)

	now := time.Now().UTC()
	job := domain.NewJob(1, "/uploads/x.mp4", "f")
	job.LastUpdate = now.Add(-time.Hour) // exactly at the boundary
	store.Put(job)

	janitor.sweep(now)

	if _, ok := store.Get(job.ID); !ok {
		t.Fatal("job at the retention boundary was evicted")
	}
}

func TestJanitorRunStopsOnContextCancel(t *testing.T) {
	store := NewStore()
	janitor := NewJanitor(store, 5*time.Millisecond, time.Hour, zap.NewNop(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		janitor.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after context cancellation")
	}
}
