package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan string, 2)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 2})

	require.Error(t, q.Enqueue(Job{ID: "early"}), "enqueue before start")

	q.Start(context.Background())
	defer q.Stop()
	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.NoError(t, q.Enqueue(Job{ID: "b"}))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-done:
			seen[id] = true
		case <-time.After(time.Second):
			t.Fatal("job not processed")
		}
	}
	require.Equal(t, map[string]bool{"a": true, "b": true}, seen)
}

func TestQueueRetriesThenDeadLetters(t *testing.T) {
	var calls int32
	dead := make(chan Job, 1)
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	}, QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond, DeadLetter: func(job Job, err error) {
		dead <- job
	}})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1"}))
	select {
	case job := <-dead:
		require.Equal(t, "j1", job.ID)
		require.Equal(t, 3, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not dead-lettered")
	}
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestQueuePermanentErrorSkipsRetries(t *testing.T) {
	var calls int32
	dead := make(chan error, 1)
	q := NewQueue("permanent", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return Permanent(errors.New("invalid payload"))
	}, QueueConfig{MaxRetries: 5, RetryDelay: time.Millisecond, DeadLetter: func(job Job, err error) {
		dead <- err
	}})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1"}))
	select {
	case err := <-dead:
		require.True(t, IsPermanent(err))
		require.EqualError(t, err, "invalid payload")
	case <-time.After(time.Second):
		t.Fatal("job was not dead-lettered")
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
	require.Nil(t, Permanent(nil))
}

func TestQueueTryEnqueueFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(block)

	require.NoError(t, q.Enqueue(Job{ID: "running"}))
	require.Eventually(t, func() bool { return q.TryEnqueue(Job{ID: "buffered"}) == nil }, time.Second, 5*time.Millisecond)
	err := q.TryEnqueue(Job{ID: "overflow"})
	require.ErrorIs(t, err, ErrQueueFull)
}
