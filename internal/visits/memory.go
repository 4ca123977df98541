package visits

import (
	"context"
	"sort"
	"sync"

	"logitrack-backend/internal/models"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	branches map[string]models.Branch
	visits   map[string]models.Visit
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		branches: make(map[string]models.Branch),
		visits:   make(map[string]models.Visit),
	}
}

// AddBranch seeds a branch into the store.
func (s *MemoryStore) AddBranch(b models.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[b.ID] = b
}

func (s *MemoryStore) GetBranch(_ context.Context, branchID string) (models.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.branches[branchID]
	if !ok {
		return models.Branch{}, &NotFoundError{Reason: "branch not found"}
	}
	return b, nil
}

func (s *MemoryStore) GetActiveVisit(_ context.Context, coordinatorID string) (*models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.visits {
		if v.CoordinatorID == coordinatorID && v.Status == models.VisitStatusActive {
			visit := v
			return &visit, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateVisit(_ context.Context, v models.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.visits {
		if existing.CoordinatorID == v.CoordinatorID && existing.Status == models.VisitStatusActive {
			return &ConflictError{Reason: "active visit already exists"}
		}
	}
	s.visits[v.ID] = v
	return nil
}

func (s *MemoryStore) GetVisit(_ context.Context, visitID string) (models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.visits[visitID]
	if !ok {
		return models.Visit{}, &NotFoundError{Reason: "visit not found"}
	}
	return v, nil
}

func (s *MemoryStore) CompleteVisit(_ context.Context, v models.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.visits[v.ID]
	if !ok {
		return &NotFoundError{Reason: "visit not found"}
	}
	if existing.Status != models.VisitStatusActive {
		return &ConflictError{Reason: "no active visit"}
	}
	s.visits[v.ID] = v
	return nil
}

func (s *MemoryStore) ListVisits(_ context.Context, coordinatorID string, limit int) ([]models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Visit
	for _, v := range s.visits {
		if v.CoordinatorID == coordinatorID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInTime > out[j].CheckInTime })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListActiveVisits(_ context.Context) ([]models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Visit
	for _, v := range s.visits {
		if v.Status == models.VisitStatusActive {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInTime > out[j].CheckInTime })
	return out, nil
}
