package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/furrow/pkg/domain"
)

// Store implements ports.ReportStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Report
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Report),
	}
}

// Save persists the report in memory.
func (s *Store) Save(ctx context.Context, report *domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[report.SessionID] = clone(report)
	return nil
}

// Load retrieves the report from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	// Copy on read so callers can't mutate the stored report through the pointer.
	return clone(report), nil
}

// Delete removes the report.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns stored session IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data)), nil
}

func clone(r *domain.Report) *domain.Report {
	c := *r
	c.Pools = maps.Clone(r.Pools)
	return &c
}
