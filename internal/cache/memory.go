package cache

import (
	"context"
	"sync"
	"time"

	"campusfin/internal/models"
	"campusfin/internal/uuid"
)

// MemoryStore is a process-local Store. It is used by tests and by
// single-instance deployments that do not need a shared cache.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.CachedPrediction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.CachedPrediction)}
}

func (s *MemoryStore) GetLive(_ context.Context, hash string, now time.Time) (*models.CachedPrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.entries[hash]
	if !ok || !p.IsLive(now) {
		return nil, nil
	}
	p.Adjustments = append([]models.PredictionAdjustment(nil), p.Adjustments...)
	return &p, nil
}

func (s *MemoryStore) Save(_ context.Context, p *models.CachedPrediction) error {
	p.ID = uuid.New()
	for i := range p.Adjustments {
		p.Adjustments[i].ID = uuid.New()
		p.Adjustments[i].PredictionID = p.ID
		p.Adjustments[i].Sequence = i
	}

	entry := *p
	entry.Adjustments = append([]models.PredictionAdjustment(nil), p.Adjustments...)

	s.mu.Lock()
	s.entries[p.PredictionHash] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for hash, p := range s.entries {
		if !p.IsLive(now) {
			delete(s.entries, hash)
			purged++
		}
	}
	return purged, nil
}

// Len returns the number of stored entries, live or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
