package queue

import (
	"sync"

	"github.com/rs/zerolog"
)

type Task func()

// Pool bounds how many jobs run at once. Both queue backends dispatch
// through it so concurrency behaves identically regardless of backend.
type Pool struct {
	tasks         chan Task
	wg            sync.WaitGroup
	activeWorkers int
	maxWorkers    int
	logger        zerolog.Logger
	mu            sync.RWMutex
}

func NewPool(maxWorkers int, logger zerolog.Logger) *Pool {
	return &Pool{
		tasks:      make(chan Task, maxWorkers*10),
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

func (p *Pool) Start() {
	p.logger.Info().Int("max_workers", p.maxWorkers).Msg("Starting worker pool")

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool) Stop() {
	close(p.tasks)
	p.wg.Wait()
	p.logger.Info().Msg("Worker pool stopped")
}

// Submit blocks until the task is accepted. Dropping a task here would
// leave its analysis without a terminal status, so backpressure is
// pushed onto the caller (the dispatch goroutine) instead.
func (p *Pool) Submit(task Task) {
	select {
	case p.tasks <- task:
	default:
		p.logger.Warn().Msg("Worker pool task queue is full, waiting for a free worker")
		p.tasks <- task
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug().Int("worker_id", id).Msg("Worker started")

	for task := range p.tasks {
		p.mu.Lock()
		p.activeWorkers++
		p.mu.Unlock()

		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error().
						Int("worker_id", id).
						Interface("panic", r).
						Msg("Worker recovered from panic")
				}

				p.mu.Lock()
				p.activeWorkers--
				p.mu.Unlock()
			}()

			task()
		}()
	}

	p.logger.Debug().Int("worker_id", id).Msg("Worker stopped")
}

func (p *Pool) ActiveWorkers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.activeWorkers
}

func (p *Pool) QueueLength() int {
	return len(p.tasks)
}
