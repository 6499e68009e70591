package client

import (
	"context"
	"sync"
)

// Sequencer orders repeated calls for the same view, such as re-running a
// list whenever a filter changes. Starting a call cancels the one before it,
// and only the most recently started call may deliver a result.
type Sequencer struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Latest runs fn under s. It returns ErrStale when a newer call started
// before fn finished, regardless of what fn returned.
func Latest[T any](ctx context.Context, s *Sequencer, fn func(ctx context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.seq++
	mine := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	result, err := fn(callCtx)

	s.mu.Lock()
	latest := mine == s.seq
	if latest {
		s.cancel = nil
	}
	s.mu.Unlock()
	cancel()

	if !latest {
		var zero T
		return zero, ErrStale
	}
	return result, err
}

// Cancel aborts the in-flight call, which will then return ErrStale.
func (s *Sequencer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
