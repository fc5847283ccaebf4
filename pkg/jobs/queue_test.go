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

func TestQueueProcessesAndDrains(t *testing.T) {
	var handled int64
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&handled, 1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 8})
	q.Start(context.Background())

	for i := 0; i < 6; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "t"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q.Stop(ctx)

	assert.Equal(t, int64(6), atomic.LoadInt64(&handled))
	assert.Error(t, q.Enqueue(Job{ID: "late"}))
}

func TestQueueEnqueueNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	assert.Error(t, q.Enqueue(Job{ID: "early"}))

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Enqueue(Job{ID: "b"}))

	err := q.Enqueue(Job{ID: "c"})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Stop(ctx)
}

func TestQueueRetriesThenDiscards(t *testing.T) {
	var mu sync.Mutex
	attempts := map[string]int{}
	discarded := make(chan Job, 1)
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[job.ID]++
		if job.ID == "flaky" && attempts[job.ID] == 1 {
			return errors.New("first attempt fails")
		}
		if job.ID == "broken" {
			return errors.New("always fails")
		}
		return nil
	}, QueueConfig{
		Workers:    1,
		MaxRetries: 2,
		RetryDelay: 5 * time.Millisecond,
		OnDiscard:  func(job Job, err error) { discarded <- job },
	})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "flaky"}))
	require.NoError(t, q.Enqueue(Job{ID: "broken"}))

	select {
	case job := <-discarded:
		assert.Equal(t, "broken", job.ID)
		assert.Equal(t, 3, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("broken job was not discarded")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Stop(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts["flaky"])
	assert.Equal(t, 3, attempts["broken"])
}

func TestQueueStopFinishesEveryAcceptedJob(t *testing.T) {
	var handled, cancelled int64
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		time.Sleep(time.Millisecond)
		if ctx.Err() != nil {
			atomic.AddInt64(&cancelled, 1)
		}
		atomic.AddInt64(&handled, 1)
		return nil
	}, QueueConfig{Workers: 4, BufferSize: 64})
	q.Start(context.Background())

	for i := 0; i < 50; i++ {
		require.NoError(t, q.Enqueue(Job{Type: "notify"}))
	}
	// Stop immediately, while workers are still taking jobs off the buffer.
	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q.Stop(stopCtx)

	assert.Equal(t, int64(50), atomic.LoadInt64(&handled))
	assert.Zero(t, atomic.LoadInt64(&cancelled))
	assert.Zero(t, atomic.LoadInt64(&q.inflight))
}

func TestQueueRejectedJobsAreNotCounted(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	assert.Error(t, q.Enqueue(Job{Type: "early"}))
	assert.Zero(t, atomic.LoadInt64(&q.inflight))

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{Type: "a"}))
	require.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(Job{Type: "b"}))
	require.ErrorIs(t, q.Enqueue(Job{Type: "c"}), ErrQueueFull)
	assert.Equal(t, int64(2), atomic.LoadInt64(&q.inflight))

	close(release)
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Stop(stopCtx)
	assert.Zero(t, atomic.LoadInt64(&q.inflight))
}
