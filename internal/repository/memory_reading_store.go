package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"MarketMood/internal/domain/models"
)

// MemoryReadingStore is an in-process ReadingRepository for development and
// tests. Same append-only contract as the ClickHouse store.
type MemoryReadingStore struct {
	mu       sync.RWMutex
	readings map[models.Indicator][]*models.Reading
}

func NewMemoryReadingStore() *MemoryReadingStore {
	return &MemoryReadingStore{readings: make(map[models.Indicator][]*models.Reading)}
}

func (s *MemoryReadingStore) Latest(_ context.Context, ind models.Indicator) (*models.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.readings[ind]
	if len(list) == 0 {
		return nil, nil
	}
	var newest *models.Reading
	for _, r := range list {
		if newest == nil || r.FetchedAt.After(newest.FetchedAt) {
			newest = r
		}
	}
	cp := *newest
	return &cp, nil
}

func (s *MemoryReadingStore) Append(_ context.Context, r *models.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.readings[r.Indicator] = append(s.readings[r.Indicator], &cp)
	return nil
}

func (s *MemoryReadingStore) History(_ context.Context, ind models.Indicator, since time.Time) ([]*models.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Reading, 0, len(s.readings[ind]))
	for _, r := range s.readings[ind] {
		if r.ObservedAt.Before(since) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.Before(out[j].ObservedAt) })
	return out, nil
}

func (s *MemoryReadingStore) Prune(_ context.Context, olderThan time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ind, list := range s.readings {
		kept := list[:0]
		for _, r := range list {
			if !r.ObservedAt.Before(olderThan) {
				kept = append(kept, r)
			}
		}
		s.readings[ind] = kept
	}
	return nil
}

func (s *MemoryReadingStore) Health(context.Context) error { return nil }
