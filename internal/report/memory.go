// report/memory.go
package report

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store with the same atomicity contract
// as the Postgres implementation. Used in tests and as a development
// fallback.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]Report
	values  map[uuid.UUID][]AccountValue

	// FailValues makes the next CreateWithValues fail after validation,
	// for exercising the no-partial-state guarantee in tests.
	FailValues error
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory report store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[uuid.UUID]Report),
		values:  make(map[uuid.UUID][]AccountValue),
	}
}

// CreateWithValues stores the report and its values, or nothing at all.
func (s *MemoryStore) CreateWithValues(ctx context.Context, r *Report, values []AccountValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailValues != nil {
		err := s.FailValues
		s.FailValues = nil
		return err
	}

	s.reports[r.ID] = *r
	stored := make([]AccountValue, len(values))
	copy(stored, values)
	s.values[r.ID] = stored
	return nil
}

// ListByUser returns a user's reports, newest first.
func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reports []Report
	for _, r := range s.reports {
		if r.UserID == userID {
			reports = append(reports, r)
		}
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// Get returns one report scoped to its owner.
func (s *MemoryStore) Get(ctx context.Context, userID string, id uuid.UUID) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok || r.UserID != userID {
		return nil, ErrReportNotFound
	}
	found := r
	return &found, nil
}

// GetValues returns a report's account values ordered by account name.
func (s *MemoryStore) GetValues(ctx context.Context, reportID uuid.UUID) ([]AccountValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.values[reportID]
	values := make([]AccountValue, len(stored))
	copy(values, stored)
	sort.Slice(values, func(i, j int) bool {
		return values[i].AccountName < values[j].AccountName
	})
	return values, nil
}
