// Package presence tracks which users are currently observing an auction.
// Entries are ephemeral and advisory: they feed notifications and the
// reported observer count, never bid legality.
package presence

import (
	"sync"
	"time"
)

// DefaultTTL is how long a presence entry survives without a refresh.
// Joining again refreshes the deadline, so counts self-heal after abrupt
// disconnects without an explicit leave.
const DefaultTTL = 24 * time.Hour

// Store is the ephemeral per-auction participant set.
type Store interface {
	// Join adds the user to the auction's observer set and refreshes the
	// entry's expiry.
	Join(auctionID, userID string) error
	// Leave removes the user from the auction's observer set.
	Leave(auctionID, userID string) error
	// Count returns the number of unexpired observers of the auction.
	Count(auctionID string) (int, error)
	// Purge drops expired entries. Safe to call at any time.
	Purge() error
}

// MemoryStore is a concurrency-safe in-memory Store with per-entry TTL.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]map[string]time.Time // auctionID -> userID -> expiry
	now     func() time.Time
}

// NewMemoryStore creates an in-memory presence store. A non-positive ttl
// falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]map[string]time.Time),
		now:     time.Now,
	}
}

// SetNowFunc overrides the store's clock. Intended for tests.
func (s *MemoryStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Join adds the user to the auction's observer set.
func (s *MemoryStore) Join(auctionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.entries[auctionID]
	if !ok {
		set = make(map[string]time.Time)
		s.entries[auctionID] = set
	}
	set[userID] = s.now().Add(s.ttl)
	return nil
}

// Leave removes the user from the auction's observer set.
func (s *MemoryStore) Leave(auctionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.entries[auctionID]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(s.entries, auctionID)
		}
	}
	return nil
}

// Count returns the number of unexpired observers of the auction.
func (s *MemoryStore) Count(auctionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	count := 0
	for _, expiry := range s.entries[auctionID] {
		if expiry.After(now) {
			count++
		}
	}
	return count, nil
}

// Purge drops expired entries.
func (s *MemoryStore) Purge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for auctionID, set := range s.entries {
		for userID, expiry := range set {
			if !expiry.After(now) {
				delete(set, userID)
			}
		}
		if len(set) == 0 {
			delete(s.entries, auctionID)
		}
	}
	return nil
}
