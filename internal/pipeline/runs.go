package pipeline

import (
	"sync"
	"time"
)

// RunStatus is the state of a chunked generation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunPartial   RunStatus = "partial"
	RunFailed    RunStatus = "failed"
)

// Run tracks one chunked generation request so it can be inspected while and
// after it executes.
type Run struct {
	mu sync.Mutex

	ID     string
	Status RunStatus
	Phase  string
	Params ChunkedRequest

	Progress RunProgress

	CreatedAt time.Time
	UpdatedAt time.Time

	ledger []ChunkError
}

// RunProgress tracks processing progress.
type RunProgress struct {
	TotalChunks     int          `json:"total_chunks"`
	ChunksProcessed int          `json:"chunks_processed"`
	PairsGenerated  int          `json:"pairs_generated"`
	Truncated       bool         `json:"truncated"`
	Errors          []ChunkError `json:"errors"`
}

func newRun(params ChunkedRequest) *Run {
	now := time.Now()
	return &Run{
		ID:        newRunID(),
		Status:    RunRunning,
		Phase:     "chunking",
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

func (s *RunStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Cleanup removes finished runs not updated within the TTL.
func (s *RunStore) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, run := range s.runs {
		run.mu.Lock()
		expired := run.Status != RunRunning && now.Sub(run.UpdatedAt) > s.ttl
		run.mu.Unlock()
		if expired {
			delete(s.runs, id)
			removed++
		}
	}
	return removed
}

// SetStatus updates run status atomically.
func (r *Run) SetStatus(status RunStatus, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.Phase = phase
	r.UpdatedAt = time.Now()
}

// SetChunking records the outcome of splitting the document.
func (r *Run) SetChunking(total int, truncated bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.TotalChunks = total
	r.Progress.Truncated = truncated
	r.Phase = "generating"
	r.UpdatedAt = time.Now()
}

// ChunkDone records one processed chunk and the pairs it contributed.
func (r *Run) ChunkDone(pairs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.ChunksProcessed++
	r.Progress.PairsGenerated += pairs
	r.UpdatedAt = time.Now()
}

// AddError records a failed chunk.
func (r *Run) AddError(e ChunkError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledger = append(r.ledger, e)
	r.UpdatedAt = time.Now()
}

// Finish derives the terminal status from the ledger.
func (r *Run) Finish() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case len(r.ledger) == 0:
		r.Status = RunCompleted
	case len(r.ledger) >= r.Progress.TotalChunks:
		r.Status = RunFailed
	default:
		r.Status = RunPartial
	}
	r.Phase = "done"
	r.UpdatedAt = time.Now()
	return r.Status
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID        string         `json:"run_id"`
	Status    RunStatus      `json:"status"`
	Phase     string         `json:"phase"`
	Params    ChunkedRequest `json:"params"`
	Progress  RunProgress    `json:"progress"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := make([]ChunkError, len(r.ledger))
	copy(errs, r.ledger)
	p := r.Progress
	p.Errors = errs
	return RunSnapshot{
		ID:        r.ID,
		Status:    r.Status,
		Phase:     r.Phase,
		Params:    r.Params,
		Progress:  p,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
