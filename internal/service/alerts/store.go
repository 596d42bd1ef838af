// Package alerts holds the acknowledged-alert set that keeps the dashboard
// from re-surfacing notifications the operator already dismissed.
package alerts

import (
	"context"
	"sync"

	"sensor-dash/internal/domain"
)

// Compile-time check: MemoryStore implements the alert store port.
var _ domain.AlertStore = (*MemoryStore)(nil)

// MemoryStore is the process-wide acknowledged-alert set. State is lost on
// restart; swapping in a persistent store only requires another
// domain.AlertStore implementation.
type MemoryStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]struct{})}
}

// Acknowledge records one alert key. Re-acknowledging is a no-op.
func (s *MemoryStore) Acknowledge(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = struct{}{}
	return nil
}

// Reset clears the whole set.
func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = make(map[string]struct{})
	return nil
}

// Len reports the number of acknowledged keys. Not exposed over HTTP; it
// exists for wiring-time logging and tests.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
