package server

import (
	"sync"
	"time"

	"spotgrab/internal/models"
	"spotgrab/internal/shared"
	"spotgrab/internal/tasks"
)

// RunStatus is the lifecycle state of a queued download run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// RunState is the poll-able snapshot of one download run.
type RunState struct {
	ID         string                   `json:"id"`
	Status     RunStatus                `json:"status"`
	Playlist   *models.Playlist         `json:"playlist,omitempty"`
	Message    string                   `json:"message,omitempty"`
	Step       int                      `json:"step"`
	Total      int                      `json:"total"`
	Summary    *tasks.Summary           `json:"summary,omitempty"`
	Outcomes   []models.DownloadOutcome `json:"outcomes,omitempty"`
	Error      string                   `json:"error,omitempty"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt *time.Time               `json:"finished_at,omitempty"`
}

// RunStore tracks run states behind a mutex. One goroutine writes per run
// through Update; any number of request handlers read snapshots.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*RunState
}

// NewRunStore creates an empty store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*RunState)}
}

// Create registers a new running state and returns its ID.
func (s *RunStore) Create(playlist *models.Playlist, total int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := shared.GenerateID()
	s.runs[id] = &RunState{
		ID:        id,
		Status:    StatusRunning,
		Playlist:  playlist,
		Total:     total,
		StartedAt: time.Now(),
	}
	return id
}

// Update mutates a run's state under the write lock.
func (s *RunStore) Update(id string, fn func(*RunState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.runs[id]; ok {
		fn(state)
	}
}

// Snapshot returns a copy of a run's state.
func (s *RunStore) Snapshot(id string) (RunState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.runs[id]
	if !ok {
		return RunState{}, false
	}
	return *state, true
}
