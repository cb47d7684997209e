package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	domrepo "github.com/IanaraFer/dataSite-sub000/internal/domain/repository"
)

// MemorySeriesStore keeps series in process memory.
type MemorySeriesStore struct {
	mu     sync.RWMutex
	series map[string][]models.Point
}

func NewMemorySeriesStore() *MemorySeriesStore {
	return &MemorySeriesStore{series: make(map[string][]models.Point)}
}

func (s *MemorySeriesStore) LoadSeries(ctx context.Context, seriesID string, limit int) ([]models.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	points, ok := s.series[seriesID]
	if !ok || len(points) == 0 {
		return nil, domrepo.ErrSeriesNotFound
	}
	src := tail(points, limit)
	out := make([]models.Point, len(src))
	copy(out, src)
	return out, nil
}

func (s *MemorySeriesStore) SaveSeries(ctx context.Context, seriesID string, points []models.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]models.Point, 0, len(s.series[seriesID])+len(points))
	merged = append(merged, s.series[seriesID]...)
	merged = append(merged, points...)
	s.series[seriesID] = normalize(merged)
	return nil
}

func (s *MemorySeriesStore) ListSeries(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.series))
	for id := range s.series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
