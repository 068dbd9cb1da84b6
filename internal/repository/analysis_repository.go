package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/veridoc/doc-audit/forensic-service/internal/models"
)

// AnalysisRepository persists analysis records. Status transitions use
// conditional updates so the lifecycle stays legal even under two
// concurrent workers: a write that loses the race affects zero rows and
// surfaces ErrIllegalTransition instead of clobbering a terminal state.
type AnalysisRepository interface {
	Create(ctx context.Context, analysis *models.Analysis) error
	GetByID(ctx context.Context, id string) (*models.Analysis, error)
	MarkProcessing(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, forensic *models.ForensicResult, similarity *models.SimilarityResult, extractedText string) error
	MarkFailed(ctx context.Context, id, reason string) error
	Ping(ctx context.Context) error
}

type analysisRepository struct {
	*PostgresRepository
}

func NewAnalysisRepository(db *sql.DB, logger zerolog.Logger) AnalysisRepository {
	return &analysisRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *analysisRepository) Create(ctx context.Context, analysis *models.Analysis) error {
	query := `
		INSERT INTO analyses (
			id, source_locator, content_type, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		analysis.ID,
		analysis.SourceLocator,
		analysis.ContentType,
		analysis.Status.String(),
		analysis.CreatedAt,
		analysis.UpdatedAt,
	)

	return err
}

func (r *analysisRepository) GetByID(ctx context.Context, id string) (*models.Analysis, error) {
	query := `
		SELECT
			id, source_locator, content_type, status, forensic, similarity,
			error_reason, created_at, started_at, completed_at, updated_at
		FROM analyses
		WHERE id = $1
	`

	analysis := &models.Analysis{}
	var status string
	var forensicRaw, similarityRaw []byte
	var errorReason sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&analysis.ID,
		&analysis.SourceLocator,
		&analysis.ContentType,
		&status,
		&forensicRaw,
		&similarityRaw,
		&errorReason,
		&analysis.CreatedAt,
		&analysis.StartedAt,
		&analysis.CompletedAt,
		&analysis.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	analysis.Status = models.Status(status)
	if errorReason.Valid {
		analysis.ErrorReason = &errorReason.String
	}
	if len(forensicRaw) > 0 {
		var forensic models.ForensicResult
		if err := json.Unmarshal(forensicRaw, &forensic); err != nil {
			return nil, fmt.Errorf("failed to decode forensic result: %w", err)
		}
		analysis.Forensic = &forensic
	}
	if len(similarityRaw) > 0 {
		var similarity models.SimilarityResult
		if err := json.Unmarshal(similarityRaw, &similarity); err != nil {
			return nil, fmt.Errorf("failed to decode similarity result: %w", err)
		}
		analysis.Similarity = &similarity
	}

	return analysis, nil
}

func (r *analysisRepository) MarkProcessing(ctx context.Context, id string) error {
	query := `
		UPDATE analyses
		SET status = $1, started_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	res, err := r.db.ExecContext(ctx, query,
		models.StatusProcessing.String(),
		time.Now(),
		id,
		models.StatusPending.String(),
	)
	if err != nil {
		return err
	}

	return requireTransition(res, models.StatusPending, models.StatusProcessing)
}

// Complete writes the combined result, the terminal status and the
// extracted text in one transaction: either everything lands or the job
// stays retryable, never half-applied.
func (r *analysisRepository) Complete(ctx context.Context, id string, forensic *models.ForensicResult, similarity *models.SimilarityResult, extractedText string) error {
	forensicRaw, err := json.Marshal(forensic)
	if err != nil {
		return fmt.Errorf("failed to encode forensic result: %w", err)
	}
	similarityRaw, err := json.Marshal(similarity)
	if err != nil {
		return fmt.Errorf("failed to encode similarity result: %w", err)
	}

	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		UPDATE analyses
		SET status = $1, forensic = $2, similarity = $3,
		    completed_at = $4, updated_at = $4
		WHERE id = $5 AND status = $6
	`,
		models.StatusCompleted.String(),
		forensicRaw,
		similarityRaw,
		now,
		id,
		models.StatusProcessing.String(),
	)
	if err != nil {
		return err
	}
	if err := requireTransition(res, models.StatusProcessing, models.StatusCompleted); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (analysis_id, text, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (analysis_id) DO NOTHING
	`, id, extractedText, now)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *analysisRepository) MarkFailed(ctx context.Context, id, reason string) error {
	if reason == "" {
		reason = "unknown error"
	}

	query := `
		UPDATE analyses
		SET status = $1, error_reason = $2, completed_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	res, err := r.db.ExecContext(ctx, query,
		models.StatusFailed.String(),
		reason,
		time.Now(),
		id,
		models.StatusProcessing.String(),
	)
	if err != nil {
		return err
	}

	return requireTransition(res, models.StatusProcessing, models.StatusFailed)
}

func (r *analysisRepository) Ping(ctx context.Context) error {
	return r.PostgresRepository.Ping(ctx)
}

func requireTransition(res sql.Result, from, to models.Status) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s -> %s", models.ErrIllegalTransition, from, to)
	}
	return nil
}
