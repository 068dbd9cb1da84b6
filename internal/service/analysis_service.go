package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/veridoc/doc-audit/forensic-service/internal/models"
	"github.com/veridoc/doc-audit/forensic-service/internal/queue"
	"github.com/veridoc/doc-audit/forensic-service/internal/repository"
	"github.com/veridoc/doc-audit/forensic-service/internal/service/analyzer"
	"github.com/veridoc/doc-audit/forensic-service/internal/service/integration"
)

// AnalysisService owns one job's journey: submission, execution and the
// terminal status write. Scoring errors caused by insufficient input are
// recovered into zero-signal results inside the analyzers; only
// infrastructure failures reach FAILED here.
type AnalysisService interface {
	Submit(ctx context.Context, sourceLocator, contentType string) (*models.Analysis, error)
	Get(ctx context.Context, id string) (*models.Analysis, error)
	Process(ctx context.Context, p queue.Payload) error
}

type analysisService struct {
	repo       repository.AnalysisRepository
	storage    integration.StorageClient
	forensic   analyzer.ForensicAnalyzer
	similarity analyzer.SimilarityEngine
	jobs       queue.JobQueue
	logger     zerolog.Logger
}

func NewAnalysisService(
	repo repository.AnalysisRepository,
	storage integration.StorageClient,
	forensic analyzer.ForensicAnalyzer,
	similarity analyzer.SimilarityEngine,
	jobs queue.JobQueue,
	logger zerolog.Logger,
) AnalysisService {
	return &analysisService{
		repo:       repo,
		storage:    storage,
		forensic:   forensic,
		similarity: similarity,
		jobs:       jobs,
		logger:     logger,
	}
}

func (s *analysisService) Submit(ctx context.Context, sourceLocator, contentType string) (*models.Analysis, error) {
	now := time.Now()
	analysis := &models.Analysis{
		ID:            uuid.New().String(),
		SourceLocator: sourceLocator,
		ContentType:   contentType,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to create analysis record: %w", err)
	}

	err := s.jobs.Enqueue(ctx, queue.Payload{
		AnalysisID:    analysis.ID,
		SourceLocator: sourceLocator,
		ContentType:   contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue analysis job: %w", err)
	}

	s.logger.Info().
		Str("analysis_id", analysis.ID).
		Str("locator", sourceLocator).
		Msg("Analysis job submitted")

	return analysis, nil
}

func (s *analysisService) Get(ctx context.Context, id string) (*models.Analysis, error) {
	return s.repo.GetByID(ctx, id)
}

// Process runs one dequeued job to a terminal status. A nil return (or
// a permanent error) settles the job with the queue; any other error
// means we could not even record the outcome and the job should be
// redelivered.
func (s *analysisService) Process(ctx context.Context, p queue.Payload) error {
	startTime := time.Now()

	if err := s.repo.MarkProcessing(ctx, p.AnalysisID); err != nil {
		if errors.Is(err, models.ErrIllegalTransition) {
			// Claimed by another worker or already terminal.
			s.logger.Warn().
				Str("analysis_id", p.AnalysisID).
				Msg("Analysis not in pending state, skipping")
			return nil
		}
		return fmt.Errorf("failed to mark analysis processing: %w", err)
	}

	text, err := s.storage.FetchText(ctx, p.SourceLocator, p.ContentType)
	if err != nil {
		return s.fail(ctx, p.AnalysisID, err)
	}

	// Forensic scoring and similarity are independent reads of the same
	// text; run them side by side.
	forensicCh := make(chan *models.ForensicResult, 1)
	go func() {
		forensicCh <- s.forensic.Analyze(text)
	}()

	similarity, simErr := s.similarity.Detect(ctx, text, p.AnalysisID)
	forensic := <-forensicCh

	if simErr != nil {
		return s.fail(ctx, p.AnalysisID, simErr)
	}

	if err := s.repo.Complete(ctx, p.AnalysisID, forensic, similarity, text); err != nil {
		if errors.Is(err, models.ErrIllegalTransition) {
			s.logger.Warn().
				Str("analysis_id", p.AnalysisID).
				Msg("Analysis no longer processing, result discarded")
			return nil
		}
		return fmt.Errorf("failed to persist analysis result: %w", err)
	}

	s.logger.Info().
		Str("analysis_id", p.AnalysisID).
		Int("ai_probability_score", forensic.AIProbabilityScore).
		Str("risk_tier", string(forensic.RiskTier)).
		Float64("similarity", similarity.Similarity).
		Int("compared_documents", similarity.ComparedCount).
		Dur("processing_time", time.Since(startTime)).
		Msg("Analysis completed")

	return nil
}

// fail records the terminal FAILED status with a human-readable reason.
// Jobs do not auto-retry: re-submission is the upload side's decision.
func (s *analysisService) fail(ctx context.Context, id string, cause error) error {
	if err := s.repo.MarkFailed(ctx, id, cause.Error()); err != nil {
		if errors.Is(err, models.ErrIllegalTransition) {
			s.logger.Warn().
				Str("analysis_id", id).
				Msg("Analysis no longer processing, failure not recorded")
			return nil
		}
		return fmt.Errorf("failed to record analysis failure: %w", err)
	}

	s.logger.Error().
		Err(cause).
		Str("analysis_id", id).
		Msg("Analysis failed")

	return nil
}
