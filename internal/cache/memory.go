package cache

import (
	"context"
	"sync"

	"factory-floor/internal/models"
)

// MemoryStore хранит последний снимок в памяти процесса (Redis не настроен)
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot *models.Snapshot
	batches  int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) StoreSnapshot(_ context.Context, snapshot models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = &snapshot
	s.batches++
	return nil
}

// LatestSnapshot возвращает копию, чтобы вызывающий не мог изменить сохраненный снимок
func (s *MemoryStore) LatestSnapshot(_ context.Context) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, nil
	}
	snapshot := *s.snapshot
	snapshot.Stations = append([]models.StationState(nil), s.snapshot.Stations...)
	return &snapshot, nil
}

func (s *MemoryStore) BatchesStored(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batches, nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"backend":      "memory",
		"has_snapshot": s.snapshot != nil,
		"batches":      s.batches,
	}
}

func (s *MemoryStore) Close() error { return nil }
