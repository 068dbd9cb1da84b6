package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueDeliversJobs(t *testing.T) {
	q := NewMemoryQueue(10, zerolog.Nop())
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Payload, 1)
	err := q.RegisterHandler(ctx, func(_ context.Context, p Payload) error {
		received <- p
		return nil
	}, 1)
	require.NoError(t, err)

	payload := Payload{AnalysisID: "a1", SourceLocator: "loc-1", ContentType: "text/plain"}
	require.NoError(t, q.Enqueue(ctx, payload))

	select {
	case got := <-received:
		assert.Equal(t, payload, got)
	case <-time.After(2 * time.Second):
		t.Fatal("job was never delivered")
	}
}

func TestMemoryQueueBoundedConcurrency(t *testing.T) {
	q := NewMemoryQueue(50, zerolog.Nop())
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const concurrency = 2
	var active, peak int32
	var wg sync.WaitGroup
	wg.Add(10)

	err := q.RegisterHandler(ctx, func(_ context.Context, _ Payload) error {
		defer wg.Done()
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}, concurrency)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(ctx, Payload{AnalysisID: "a"}))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("jobs did not finish")
	}

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(concurrency))
}

func TestMemoryQueueNoJobLossUnderBackpressure(t *testing.T) {
	q := NewMemoryQueue(100, zerolog.Nop())
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One worker, all of it blocked on the gate while jobs pile up far
	// past the pool's internal buffer. Every job must still run once the
	// gate opens; none may be dropped.
	const jobs = 15
	gate := make(chan struct{})
	var handled int32
	var wg sync.WaitGroup
	wg.Add(jobs)

	err := q.RegisterHandler(ctx, func(_ context.Context, _ Payload) error {
		<-gate
		atomic.AddInt32(&handled, 1)
		wg.Done()
		return nil
	}, 1)
	require.NoError(t, err)

	for i := 0; i < jobs; i++ {
		require.NoError(t, q.Enqueue(ctx, Payload{AnalysisID: "a"}))
	}

	// Give the dispatcher time to hit the full task buffer before the
	// gate opens.
	time.Sleep(100 * time.Millisecond)
	close(gate)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("only %d of %d jobs handled", atomic.LoadInt32(&handled), jobs)
	}

	assert.Equal(t, int32(jobs), atomic.LoadInt32(&handled))
}

func TestMemoryQueueHandlerErrorsAreNotRedelivered(t *testing.T) {
	q := NewMemoryQueue(10, zerolog.Nop())
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	err := q.RegisterHandler(ctx, func(_ context.Context, _ Payload) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("handler failed")
	}, 1)
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(ctx, Payload{AnalysisID: "a1"}))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMemoryQueueEnqueueAfterClose(t *testing.T) {
	q := NewMemoryQueue(10, zerolog.Nop())
	require.NoError(t, q.Close())

	err := q.Enqueue(context.Background(), Payload{AnalysisID: "a1"})
	assert.Error(t, err)
}

func TestMemoryQueueMode(t *testing.T) {
	q := NewMemoryQueue(10, zerolog.Nop())
	defer q.Close()

	assert.Equal(t, "memory", q.Mode())
}

func TestPermanentErrorMarking(t *testing.T) {
	base := errors.New("bad payload")

	assert.False(t, IsPermanent(base))
	assert.True(t, IsPermanent(Permanent(base)))
	assert.ErrorIs(t, Permanent(base), base)
	assert.False(t, IsPermanent(nil))
}
