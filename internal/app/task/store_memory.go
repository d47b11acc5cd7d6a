package task

import (
	"context"
	"sync"
	"time"

	"github.com/mapgrid-network/mapgrid/internal/domain"
)

// MemoryStore is the reference TaskStore: a mutex-guarded map. State is
// volatile and lost on restart, which is the documented reference behavior.
type MemoryStore struct {
	mu    sync.Mutex
	tasks map[string]*domain.Task
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*domain.Task)}
}

// Insert stores a new task record.
func (s *MemoryStore) Insert(ctx context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t.Clone()
	return nil
}

// Get returns a copy of the task, or ErrTaskNotFound.
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return t.Clone(), nil
}

// BeginExecution performs the created → in_progress check-and-set under the
// store lock, so concurrent callers cannot both claim the same task.
func (s *MemoryStore) BeginExecution(ctx context.Context, id string) (*domain.Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, false, domain.ErrTaskNotFound
	}
	if t.Status != domain.TaskCreated {
		return t.Clone(), false, nil
	}

	t.Status = domain.TaskInProgress
	t.UpdatedAt = time.Now().UTC()
	return t.Clone(), true, nil
}

// Complete transitions in_progress → completed and attaches the output.
func (s *MemoryStore) Complete(ctx context.Context, id string, output domain.Payload) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if t.Status != domain.TaskInProgress {
		return nil, domain.ErrInvalidTransition
	}

	t.Status = domain.TaskCompleted
	t.Output = &output
	t.UpdatedAt = time.Now().UTC()
	return t.Clone(), nil
}

// Fail transitions in_progress → failed and records the failure detail.
func (s *MemoryStore) Fail(ctx context.Context, id, msg string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if t.Status != domain.TaskInProgress {
		return nil, domain.ErrInvalidTransition
	}

	t.Status = domain.TaskFailed
	t.Error = msg
	t.UpdatedAt = time.Now().UTC()
	return t.Clone(), nil
}

// Sweep evicts terminal tasks whose last update is older than ttl, and
// returns how many were removed. The daemon drives this on a ticker when a
// TTL is configured; the default is to keep records forever.
func (s *MemoryStore) Sweep(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, t := range s.tasks {
		if t.Status.IsTerminal() && now.Sub(t.UpdatedAt) > ttl {
			delete(s.tasks, id)
			n++
		}
	}
	return n
}

// Len reports the number of stored tasks.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
