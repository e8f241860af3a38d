package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"MarketMood/internal/domain/models"
)

// MemorySubscriptionStore is an in-process SubscriptionStore for development
// and tests.
type MemorySubscriptionStore struct {
	mu   sync.RWMutex
	subs map[int64]*models.Subscription
}

func NewMemorySubscriptionStore() *MemorySubscriptionStore {
	return &MemorySubscriptionStore{subs: make(map[int64]*models.Subscription)}
}

func (s *MemorySubscriptionStore) Upsert(_ context.Context, sub *models.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cp := *sub
	if existing, ok := s.subs[sub.SubscriberID]; ok {
		// Settings changes never re-arm the current day.
		cp.LastFiredAt = existing.LastFiredAt
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.subs[sub.SubscriberID] = &cp
	return nil
}

func (s *MemorySubscriptionStore) Disable(_ context.Context, subscriberID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[subscriberID]; ok {
		sub.Enabled = false
		sub.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemorySubscriptionStore) Get(_ context.Context, subscriberID int64) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[subscriberID]
	if !ok {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

func (s *MemorySubscriptionStore) ListEnabled(context.Context) ([]*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.Enabled {
			cp := *sub
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubscriberID < out[j].SubscriberID })
	return out, nil
}

func (s *MemorySubscriptionStore) MarkFired(_ context.Context, subscriberID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[subscriberID]
	if !ok {
		return nil
	}
	if sub.LastFiredAt == nil || at.After(*sub.LastFiredAt) {
		t := at
		sub.LastFiredAt = &t
	}
	return nil
}
