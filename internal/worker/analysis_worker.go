package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/veridoc/doc-audit/forensic-service/internal/queue"
	"github.com/veridoc/doc-audit/forensic-service/internal/service"
)

// AnalysisWorker consumes analysis jobs from the queue and drives each
// one through the service pipeline. One handler, bounded concurrency.
type AnalysisWorker interface {
	Start(ctx context.Context) error
	Stop() error
	GetStats() Stats
}

type Stats struct {
	TotalProcessed int `json:"total_processed"`
	FailedJobs     int `json:"failed_jobs"`
}

type analysisWorker struct {
	jobs        queue.JobQueue
	service     service.AnalysisService
	concurrency int
	logger      zerolog.Logger

	stats      Stats
	statsMutex sync.RWMutex
	startTime  time.Time
}

func NewAnalysisWorker(jobs queue.JobQueue, svc service.AnalysisService, concurrency int, logger zerolog.Logger) AnalysisWorker {
	return &analysisWorker{
		jobs:        jobs,
		service:     svc,
		concurrency: concurrency,
		logger:      logger,
		startTime:   time.Now(),
	}
}

func (w *analysisWorker) Start(ctx context.Context) error {
	w.logger.Info().
		Int("concurrency", w.concurrency).
		Str("queue_backend", w.jobs.Mode()).
		Msg("Starting analysis worker")

	return w.jobs.RegisterHandler(ctx, w.handle, w.concurrency)
}

func (w *analysisWorker) Stop() error {
	w.statsMutex.RLock()
	defer w.statsMutex.RUnlock()

	w.logger.Info().
		Int("total_processed", w.stats.TotalProcessed).
		Int("failed_jobs", w.stats.FailedJobs).
		Dur("uptime", time.Since(w.startTime)).
		Msg("Analysis worker stopped")

	return nil
}

func (w *analysisWorker) handle(ctx context.Context, p queue.Payload) error {
	if strings.TrimSpace(p.AnalysisID) == "" {
		return queue.Permanent(errors.New("empty analysis_id"))
	}
	if strings.TrimSpace(p.SourceLocator) == "" {
		return queue.Permanent(errors.New("empty source_locator"))
	}

	w.logger.Info().
		Str("analysis_id", p.AnalysisID).
		Str("locator", p.SourceLocator).
		Msg("Processing analysis job")

	err := w.service.Process(ctx, p)

	w.statsMutex.Lock()
	if err != nil {
		w.stats.FailedJobs++
	} else {
		w.stats.TotalProcessed++
	}
	w.statsMutex.Unlock()

	return err
}

func (w *analysisWorker) GetStats() Stats {
	w.statsMutex.RLock()
	defer w.statsMutex.RUnlock()
	return w.stats
}
