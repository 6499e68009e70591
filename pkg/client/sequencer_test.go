package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestDiscardsSupersededResults(t *testing.T) {
	var seq Sequencer
	started := make(chan struct{})
	release := make(chan struct{})

	type outcome struct {
		value string
		err   error
	}
	first := make(chan outcome, 1)
	go func() {
		v, err := Latest(context.Background(), &seq, func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "old", nil
		})
		first <- outcome{v, err}
	}()
	<-started

	v, err := Latest(context.Background(), &seq, func(ctx context.Context) (string, error) {
		return "new", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	close(release)
	got := <-first
	assert.ErrorIs(t, got.err, ErrStale)
	assert.Empty(t, got.value)
}

func TestLatestCancelsPreviousCall(t *testing.T) {
	var seq Sequencer
	cancelled := make(chan error, 1)
	started := make(chan struct{})
	go func() {
		_, _ = Latest(context.Background(), &seq, func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			cancelled <- ctx.Err()
			return 0, ctx.Err()
		})
	}()
	<-started

	_, err := Latest(context.Background(), &seq, func(ctx context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)

	select {
	case err := <-cancelled:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("previous call was not cancelled")
	}
}

func TestSequencerCancel(t *testing.T) {
	var seq Sequencer
	_, err := Latest(context.Background(), &seq, func(ctx context.Context) (int, error) {
		seq.Cancel()
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrStale)
}
