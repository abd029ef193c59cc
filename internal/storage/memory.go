package storage

import (
	"context"
	"sync"

	"popsim/internal/model"
)

type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]model.PopulationSnapshot
	series    map[string][]model.FitnessSeries
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = make(map[string]model.PopulationSnapshot)
	s.series = make(map[string][]model.FitnessSeries)
	return nil
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snap model.PopulationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snap.ID] = snap
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, id string) (model.PopulationSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[id]
	return snap, ok, nil
}

func (s *MemoryStore) DeleteSnapshot(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, id)
	return nil
}

func (s *MemoryStore) SaveFitnessSeries(_ context.Context, runID string, series []model.FitnessSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := append([]model.FitnessSeries(nil), series...)
	s.series[runID] = copied
	return nil
}

func (s *MemoryStore) GetFitnessSeries(_ context.Context, runID string) ([]model.FitnessSeries, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.series[runID]
	if !ok {
		return nil, false, nil
	}
	copied := append([]model.FitnessSeries(nil), series...)
	return copied, true, nil
}
