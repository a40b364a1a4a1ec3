// Package counter implements the per-identity consecutive duress
// attempt counter.
//
// The store is the authority of record for the count: callers never
// mutate it directly, only through IncrementDuress and ResetNormal,
// both of which are atomic read-modify-write operations. Two duress
// attempts racing on the same identity can never observe the same
// pre-increment count.
package counter

import (
	"sync"
	"time"
)

// Store tracks consecutive duress counts and last successful
// authentication per identity. The zero value is not usable; use New.
type Store struct {
	mu       sync.Mutex
	counts   map[string]int
	lastAuth map[string]time.Time
}

// New creates an empty counter store.
func New() *Store {
	return &Store{
		counts:   make(map[string]int),
		lastAuth: make(map[string]time.Time),
	}
}

// IncrementDuress atomically increments the consecutive duress count
// for the identity and returns the post-increment value together with
// the instant the increment was confirmed. The timestamp is taken
// inside the critical section so event ordering matches count ordering.
func (s *Store) IncrementDuress(username string) (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[username]++
	return s.counts[username], time.Now().UTC()
}

// ResetNormal resets the consecutive duress count to zero and records
// the successful authentication time.
func (s *Store) ResetNormal(username string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[username] = 0
	s.lastAuth[username] = now
}

// Count returns the current consecutive duress count.
func (s *Store) Count(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[username]
}

// LastAuthenticatedAt returns the last successful normal authentication
// time, if any.
func (s *Store) LastAuthenticatedAt(username string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.lastAuth[username]
	return ts, ok
}
