// Package jobs tracks background download runs so hosts can poll
// their progress. The pipeline itself reports through a callback; this
// store is the one place that state lands in.
package jobs

import (
	"sort"
	"sync"
	"time"

	"learndl/services/downloader"

	"github.com/google/uuid"
)

type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

type Job struct {
	Id        string    `json:"id"`
	Target    string    `json:"target"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`

	Stage       string `json:"stage,omitempty"`
	CurrentItem string `json:"current_item,omitempty"`
	Done        int    `json:"done"`
	Total       int    `json:"total"`

	Files []string `json:"files,omitempty"`
	Error string   `json:"error,omitempty"`
}

type Store struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func NewStore() *Store {
	return &Store{jobs: map[string]*Job{}}
}

// Create registers a queued job for the given target (a uid or url)
// and returns its snapshot.
func (s *Store) Create(target string) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &Job{
		Id:        uuid.NewString(),
		Target:    target,
		State:     StateQueued,
		CreatedAt: time.Now(),
	}
	s.jobs[job.Id] = job
	return *job
}

// Get returns a snapshot of the job, decoupled from further updates.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns snapshots of every job, newest first.
func (s *Store) List() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Store) SetRunning(id string) {
	s.update(id, func(job *Job) {
		job.State = StateRunning
	})
}

func (s *Store) Complete(id string, files []string) {
	s.update(id, func(job *Job) {
		job.State = StateCompleted
		job.Files = files
	})
}

func (s *Store) Fail(id string, err error) {
	s.update(id, func(job *Job) {
		job.State = StateFailed
		job.Error = err.Error()
	})
}

// Progress returns the callback that feeds the job's progress fields,
// suitable for Downloader.OnProgress.
func (s *Store) Progress(id string) func(downloader.ProgressEvent) {
	return func(e downloader.ProgressEvent) {
		s.update(id, func(job *Job) {
			job.Stage = string(e.Stage)
			job.CurrentItem = e.Item
			job.Done = e.Done
			job.Total = e.Total
		})
	}
}

func (s *Store) update(id string, apply func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[id]; ok {
		apply(job)
	}
}
