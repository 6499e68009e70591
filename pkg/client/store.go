package client

import (
	"context"
	"sync"
)

// Store is a keyed local copy of server records used for optimistic
// updates. It is safe for concurrent use.
type Store[K comparable, T any] struct {
	mu    sync.RWMutex
	key   func(T) K
	order []K
	items map[K]T
}

// NewStore returns an empty store keyed by key.
func NewStore[K comparable, T any](key func(T) K) *Store[K, T] {
	return &Store[K, T]{key: key, items: make(map[K]T)}
}

// Replace swaps the contents for a freshly fetched list, which is
// authoritative over any earlier optimistic state.
func (s *Store[K, T]) Replace(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[K]T, len(items))
	s.order = s.order[:0]
	for _, item := range items {
		k := s.key(item)
		if _, seen := s.items[k]; !seen {
			s.order = append(s.order, k)
		}
		s.items[k] = item
	}
}

// Get returns the item stored under k.
func (s *Store[K, T]) Get(k K) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[k]
	return item, ok
}

// All returns the items in insertion order.
func (s *Store[K, T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}

// Put inserts or replaces an item.
func (s *Store[K, T]) Put(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(item)
}

func (s *Store[K, T]) put(item T) {
	k := s.key(item)
	if _, exists := s.items[k]; !exists {
		s.order = append(s.order, k)
	}
	s.items[k] = item
}

// Remove deletes the item under k.
func (s *Store[K, T]) Remove(k K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[k]; !ok {
		return
	}
	delete(s.items, k)
	for i, existing := range s.order {
		if existing == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Mutate applies patch to the item under k immediately, then runs call.
// On success the server's copy replaces the optimistic one; on failure the
// previous value is restored and the error returned. call receives the
// value as it was before the patch.
func Mutate[K comparable, T any](ctx context.Context, s *Store[K, T], k K, patch func(T) T, call func(ctx context.Context, previous T) (T, error)) (T, error) {
	var zero T
	previous, ok := s.Get(k)
	if !ok {
		return zero, ErrNotFound
	}
	s.Put(patch(previous))

	result, err := call(ctx, previous)
	if err != nil {
		s.Put(previous)
		return zero, err
	}
	s.Put(result)
	return result, nil
}

// MutateRemove drops the item under k immediately and puts it back when
// call fails.
func MutateRemove[K comparable, T any](ctx context.Context, s *Store[K, T], k K, call func(ctx context.Context) error) error {
	previous, ok := s.Get(k)
	if !ok {
		return ErrNotFound
	}
	s.Remove(k)
	if err := call(ctx); err != nil {
		s.Put(previous)
		return err
	}
	return nil
}
