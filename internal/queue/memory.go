package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// MemoryQueue is the in-process fallback used when the durable backend
// is unreachable at startup. It honors the same contract as the durable
// backend with one accepted limitation: queued and in-flight jobs are
// lost when the process dies. There is no crash recovery and no
// redelivery; a failed job is only ever recorded by the handler itself.
type MemoryQueue struct {
	jobs      chan Payload
	pool      *Pool
	logger    zerolog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

func NewMemoryQueue(bufferSize int, logger zerolog.Logger) *MemoryQueue {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &MemoryQueue{
		jobs:   make(chan Payload, bufferSize),
		logger: logger,
		done:   make(chan struct{}),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, p Payload) error {
	select {
	case <-q.done:
		return fmt.Errorf("queue is closed")
	default:
	}

	select {
	case q.jobs <- p:
		return nil
	case <-q.done:
		return fmt.Errorf("queue is closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) RegisterHandler(ctx context.Context, h Handler, concurrency int) error {
	q.pool = NewPool(concurrency, q.logger)
	q.pool.Start()

	go func() {
		for {
			select {
			case <-ctx.Done():
				q.logger.Info().Msg("Stopping in-memory dispatch")
				return
			case p, ok := <-q.jobs:
				if !ok {
					return
				}
				q.pool.Submit(func() {
					if err := h(ctx, p); err != nil {
						q.logger.Error().
							Err(err).
							Str("analysis_id", p.AnalysisID).
							Bool("permanent", IsPermanent(err)).
							Msg("Job failed (no redelivery on in-memory queue)")
					}
				})
			}
		}
	}()

	q.logger.Info().Int("concurrency", concurrency).Msg("In-memory queue consumer started")
	return nil
}

func (q *MemoryQueue) Mode() string {
	return "memory"
}

func (q *MemoryQueue) Close() error {
	// q.jobs stays open: closing it would race with concurrent Enqueue
	// calls, which select on q.done instead.
	q.closeOnce.Do(func() {
		close(q.done)
		if q.pool != nil {
			q.pool.Stop()
		}
	})
	return nil
}
