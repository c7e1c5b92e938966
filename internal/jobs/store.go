package jobs

import (
	"sync"

	"github.com/reelhouse/transcoder/internal/domain"
)

// Store is the process-wide registry of conversion jobs. It is the single
// shared mutable resource between the orchestrator (writer), the status
// API (reader) and the janitor (evictor); all access goes through it by
// job id so progress writes always land on the authoritative record.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

// NewStore creates an empty store. One store is constructed at process
// start and injected into every component that needs it.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*domain.Job)}
}

// Put registers a job under its id.
func (s *Store) Put(job *domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns a copy of the job, or false if the id is unknown. Callers
// never receive the live record.
func (s *Store) Get(id string) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return job.Clone(), true
}

// List returns copies of every stored job.
func (s *Store) List() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.Clone())
	}
	return out
}

// Update applies fn to the stored job under the write lock, so concurrent
// pollers observe either the state before or after the whole mutation.
// It reports whether the job still existed.
func (s *Store) Update(id string, fn func(*domain.Job)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	fn(job)
	return true
}

// Evict removes a job from the store.
func (s *Store) Evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// Len returns the number of stored jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
