package services

import (
	"context"
	"sync"
	"time"
)

// NonceStore remembers token ids for as long as the token could still
// verify, so each signed call runs at most once.
type NonceStore interface {
	// Claim records id and reports false when it was already recorded.
	Claim(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// MemoryNonceStore is an expiring set for single-process deployments.
type MemoryNonceStore struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{seen: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryNonceStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryNonceStore) Claim(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= ttl {
		for k, expires := range s.seen {
			if !now.Before(expires) {
				delete(s.seen, k)
			}
		}
		s.lastSweep = now
	}

	if expires, ok := s.seen[id]; ok && now.Before(expires) {
		return false, nil
	}
	s.seen[id] = now.Add(ttl)
	return true, nil
}

func (s *MemoryNonceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
