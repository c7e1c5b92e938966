package jobs

import (
	"testing"

	"github.com/reelhouse/transcoder/internal/domain"
)

func TestStorePutAndGetReturnsCopy(t *testing.T) {
	store := NewStore()
	job := domain.NewJob(42, "/uploads/movie.mp4", "abc123")
	store.Put(job)

	got, ok := store.Get(job.ID)
	if !ok {
		t.Fatal("job not found after Put")
	}
	if got.MovieID != 42 || got.Status != domain.JobStatusPending {
		t.Fatalf("unexpected job %+v", got)
	}

	// Mutating the returned copy must not leak into the store.
	got.Progress[domain.Quality720p] = 50
	again, _ := store.Get(job.ID)
	if _, ok := again.Progress[domain.Quality720p]; ok {
		t.Fatal("mutation of returned copy leaked into store")
	}
}

func TestStoreGetUnknown(t *testing.T) {
	store := NewStore()
	if _, ok := store.Get("missing"); ok {
		t.Fatal("expected false for unknown id")
	}
}

func TestStoreUpdate(t *testing.T) {
	store := NewStore()
	job := domain.NewJob(7, "/uploads/a.mp4", "f1")
	store.Put(job)

	ok := store.Update(job.ID, func(j *domain.Job) {
		j.SetStatus(domain.JobStatusProcessing)
		j.SetQualityProgress(domain.Quality1080p, 30)
	})
	if !ok {
		t.Fatal("Update reported missing job")
	}

	got, _ := store.Get(job.ID)
	if got.Status != domain.JobStatusProcessing {
		t.Fatalf("expected processing, got %s", got.Status)
	}
	if got.Progress[domain.Quality1080p] != 30 {
		t.Fatalf("expected progress 30, got %d", got.Progress[domain.Quality1080p])
	}

	if store.Update("missing", func(*domain.Job) {}) {
		t.Fatal("Update reported success for unknown id")
	}
}

func TestStoreProgressNeverMovesBackwards(t *testing.T) {
	store := NewStore()
	job := domain.NewJob(1, "/uploads/b.mp4", "f2")
	store.Put(job)

	store.Update(job.ID, func(j *domain.Job) {
		j.SetStatus(domain.JobStatusProcessing)
		j.SetQualityProgress(domain.Quality480p, 60)
		j.SetQualityProgress(domain.Quality480p, 40)
	})

	got, _ := store.Get(job.ID)
	if got.Progress[domain.Quality480p] != 60 {
		t.Fatalf("progress moved backwards: %d", got.Progress[domain.Quality480p])
	}
}

func TestStoreTerminalJobIsFrozen(t *testing.T) {
	store := NewStore()
	job := domain.NewJob(1, "/uploads/c.mp4", "f3")
	store.Put(job)

	store.Update(job.ID, func(j *domain.Job) {
		j.SetStatus(domain.JobStatusProcessing)
		j.SetQualityProgress(domain.Quality360p, 20)
		j.MarkFailed("encode exploded")
	})
	store.Update(job.ID, func(j *domain.Job) {
		j.SetQualityProgress(domain.Quality360p, 90)
		j.MarkCompleted()
	})

	got, _ := store.Get(job.ID)
	if got.Status != domain.JobStatusFailed {
		t.Fatalf("terminal status changed to %s", got.Status)
	}
	if got.Progress[domain.Quality360p] != 20 {
		t.Fatalf("terminal progress changed to %d", got.Progress[domain.Quality360p])
	}
	if got.Error != "encode exploded" {
		t.Fatalf("terminal error changed to %q", got.Error)
	}
}

func TestStoreEvictAndLen(t *testing.T) {
	store := NewStore()
	a := domain.NewJob(1, "/uploads/a.mp4", "f1")
	b := domain.NewJob(2, "/uploads/b.mp4", "f2")
	store.Put(a)
	store.Put(b)

	if store.Len() != 2 {
		t.Fatalf("expected 2 jobs, got %d", store.Len())
	}

	store.Evict(a.ID)
	if _, ok := store.Get(a.ID); ok {
		t.Fatal("evicted job still present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 job, got %d", store.Len())
	}
}

func TestStoreList(t *testing.T) {
	store := NewStore()
	store.Put(domain.NewJob(1, "/uploads/a.mp4", "f1"))
	store.Put(domain.NewJob(2, "/uploads/b.mp4", "f2"))

	jobs := store.List()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
}
