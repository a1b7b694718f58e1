package indexer

import (
	"context"
	"sync"
)

// Changes is the set of writes produced by one Batch.
type Changes struct {
	Summary   *EventsSummary
	Approvals []Approval
	Transfers []Transfer
}

// Empty reports whether there is nothing to write.
func (c Changes) Empty() bool {
	return c.Summary == nil && len(c.Approvals) == 0 && len(c.Transfers) == 0
}

// Store persists indexer entities.
type Store interface {
	// LoadSummary returns nil, nil when no summary with id exists.
	LoadSummary(ctx context.Context, id string) (*EventsSummary, error)
	// Commit applies changes atomically. Rows whose ID already exists are
	// left untouched; the summary is overwritten.
	Commit(ctx context.Context, changes Changes) error
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu        sync.RWMutex
	summaries map[string]EventsSummary
	approvals map[string]Approval
	transfers map[string]Transfer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		summaries: make(map[string]EventsSummary),
		approvals: make(map[string]Approval),
		transfers: make(map[string]Transfer),
	}
}

func (s *MemoryStore) LoadSummary(_ context.Context, id string) (*EventsSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[id]
	if !ok {
		return nil, nil
	}
	return &summary, nil
}

func (s *MemoryStore) Commit(_ context.Context, changes Changes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if changes.Summary != nil {
		s.summaries[changes.Summary.ID] = *changes.Summary
	}
	for _, a := range changes.Approvals {
		if _, ok := s.approvals[a.ID]; !ok {
			s.approvals[a.ID] = a
		}
	}
	for _, t := range changes.Transfers {
		if _, ok := s.transfers[t.ID]; !ok {
			s.transfers[t.ID] = t
		}
	}
	return nil
}

func (s *MemoryStore) Approval(id string) (Approval, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.approvals[id]
	return a, ok
}

func (s *MemoryStore) Transfer(id string) (Transfer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transfers[id]
	return t, ok
}

// Counts returns the number of stored approval and transfer rows.
func (s *MemoryStore) Counts() (approvals, transfers int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.approvals), len(s.transfers)
}
