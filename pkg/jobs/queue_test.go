package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDeliversPayload(t *testing.T) {
	got := make(chan string, 1)
	q := NewQueue[string]("test", func(ctx context.Context, job Job[string]) error {
		got <- job.Payload
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue("hello"))
	select {
	case payload := <-got:
		assert.Equal(t, "hello", payload)
	case <-time.After(time.Second):
		t.Fatal("job not delivered")
	}
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue[int]("retry", func(ctx context.Context, job Job[int]) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 5, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(1))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job never succeeded")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueDropsAfterMaxRetries(t *testing.T) {
	var calls int32
	dropped := make(chan Job[int], 1)
	q := NewQueue[int]("exhaust", func(ctx context.Context, job Job[int]) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("permanent")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.OnDrop(func(job Job[int], err error) { dropped <- job })
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(7))
	select {
	case job := <-dropped:
		assert.Equal(t, 7, job.Payload)
		assert.Equal(t, 3, job.Attempt)
	case <-time.After(time.Second):
		t.Fatal("job never dropped")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueDropsPermanentFailureWithoutRetry(t *testing.T) {
	var calls int32
	dropped := make(chan error, 1)
	notFound := errors.New("no such recipient")
	q := NewQueue[int]("permanent", func(ctx context.Context, job Job[int]) error {
		atomic.AddInt32(&calls, 1)
		return Permanent(notFound)
	}, QueueConfig{MaxRetries: 5, RetryDelay: time.Millisecond})
	q.OnDrop(func(job Job[int], err error) { dropped <- err })
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(1))
	select {
	case err := <-dropped:
		assert.ErrorIs(t, err, notFound)
		assert.True(t, IsPermanent(err))
	case <-time.After(time.Second):
		t.Fatal("job never dropped")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Nil(t, Permanent(nil))
}

func TestQueueStopDrainsBuffer(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var handled []int
	q := NewQueue[int]("drain", func(ctx context.Context, job Job[int]) error {
		<-release
		mu.Lock()
		handled = append(handled, job.Payload)
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})
	q.Start(context.Background())

	for i := 0; i < 4; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	close(release)
	q.Stop(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, handled)
	assert.ErrorIs(t, q.Enqueue(9), ErrNotRunning)
}

func TestQueueStopAbandonsPendingRetry(t *testing.T) {
	attempted := make(chan struct{}, 1)
	dropped := make(chan Job[int], 1)
	q := NewQueue[int]("abandon", func(ctx context.Context, job Job[int]) error {
		attempted <- struct{}{}
		return errors.New("transient")
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Hour})
	q.OnDrop(func(job Job[int], err error) { dropped <- job })
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(1))

	<-attempted
	stopped := make(chan struct{})
	go func() {
		q.Stop(context.Background())
		close(stopped)
	}()

	select {
	case job := <-dropped:
		assert.Equal(t, 1, job.Attempt)
	case <-time.After(time.Second):
		t.Fatal("pending retry not dropped")
	}
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop blocked on an hour-long retry")
	}
}

func TestQueueRejectsBeforeStartAndWhenFull(t *testing.T) {
	q := NewQueue[int]("idle", func(context.Context, Job[int]) error { return nil }, QueueConfig{})
	assert.ErrorIs(t, q.Enqueue(1), ErrNotRunning)

	block := make(chan struct{})
	full := NewQueue[int]("full", func(context.Context, Job[int]) error { <-block; return nil }, QueueConfig{Workers: 1, BufferSize: 1})
	full.Start(context.Background())
	defer full.Stop(context.Background())
	defer close(block)

	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = full.Enqueue(i)
	}
	assert.ErrorIs(t, err, ErrFull)
}
