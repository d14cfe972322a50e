package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/msto63/koi/foundation/koi/command"
)

// MemoryStore is an in-memory implementation for testing
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

// SaveRun stores a copy of the run
func (s *MemoryStore) SaveRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	s.runs[run.ID] = cloneRun(&run)
	return run.ID, nil
}

// GetRun returns a copy of the stored run
func (s *MemoryStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, notFound("store.GetRun", id)
	}
	return cloneRun(run), nil
}

// ListRuns returns run summaries, newest first
func (s *MemoryStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, summarize(run))
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// DeleteRun removes a run
func (s *MemoryStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return notFound("store.DeleteRun", id)
	}
	delete(s.runs, id)
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

func cloneRun(run *Run) *Run {
	c := *run
	c.Commands = make([]*command.Command, len(run.Commands))
	for i, cmd := range run.Commands {
		c.Commands[i] = command.New(cmd.Name(), cmd.Params()...)
	}
	c.Errors = append([]string(nil), run.Errors...)
	return &c
}
