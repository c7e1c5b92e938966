package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a conversion job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job tracks one conversion request for one source video across all
// quality profiles. It lives only in memory; the rendition metadata it
// produces is what survives a restart.
type Job struct {
	ID           string
	MovieID      int64
	Status       JobStatus
	Progress     map[Quality]int
	OriginalPath string
	FileID       string
	Error        string
	StartTime    time.Time
	LastUpdate   time.Time
}

// NewJob creates a pending job for the given source upload.
func NewJob(movieID int64, sourcePath, fileID string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:           uuid.New().String(),
		MovieID:      movieID,
		Status:       JobStatusPending,
		Progress:     make(map[Quality]int),
		OriginalPath: sourcePath,
		FileID:       fileID,
		StartTime:    now,
		LastUpdate:   now,
	}
}

// Touch records a mutation time.
func (j *Job) Touch() {
	j.LastUpdate = time.Now().UTC()
}

// SetStatus applies a forward-only status transition. Backward transitions
// and any transition out of a terminal status are ignored.
func (j *Job) SetStatus(status JobStatus) {
	if j.Status.Terminal() {
		return
	}
	switch status {
	case JobStatusProcessing:
		if j.Status != JobStatusPending {
			return
		}
	case JobStatusPending:
		return
	}
	j.Status = status
	j.Touch()
}

// SetQualityProgress writes progress for a quality. Values never move
// backwards, and terminal jobs are frozen.
func (j *Job) SetQualityProgress(q Quality, percent int) {
	if j.Status.Terminal() {
		return
	}
	if current, ok := j.Progress[q]; ok && percent < current {
		return
	}
	j.Progress[q] = percent
	j.Touch()
}

// InitQualityProgress creates the progress entry for a quality that is
// about to start encoding.
func (j *Job) InitQualityProgress(q Quality) {
	if j.Status.Terminal() {
		return
	}
	if _, ok := j.Progress[q]; !ok {
		j.Progress[q] = 0
	}
	j.Touch()
}

// MarkFailed moves the job to its terminal failed state. Progress and
// error are frozen afterwards.
func (j *Job) MarkFailed(message string) {
	if j.Status.Terminal() {
		return
	}
	j.Status = JobStatusFailed
	j.Error = message
	j.Touch()
}

// MarkCompleted moves the job to its terminal completed state.
func (j *Job) MarkCompleted() {
	if j.Status.Terminal() {
		return
	}
	j.Status = JobStatusCompleted
	j.Touch()
}

// Clone returns a deep copy safe to hand to readers outside the store.
func (j *Job) Clone() Job {
	out := *j
	out.Progress = make(map[Quality]int, len(j.Progress))
	for q, p := range j.Progress {
		out.Progress[q] = p
	}
	return out
}
