package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/veridoc/doc-audit/forensic-service/internal/models"
)

// CorpusRepository reads the extracted text of previously completed
// analyses. It is strictly read-only from the scoring pipeline's point
// of view; the write path belongs to AnalysisRepository.Complete.
//
// Only the most recent documents up to limit are returned. This bounds
// comparison cost per job; older duplicates fall outside the window.
type CorpusRepository interface {
	Recent(ctx context.Context, excludeAnalysisID string, limit int) ([]models.CorpusDocument, error)
}

type corpusRepository struct {
	*PostgresRepository
}

func NewCorpusRepository(db *sql.DB, logger zerolog.Logger) CorpusRepository {
	return &corpusRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *corpusRepository) Recent(ctx context.Context, excludeAnalysisID string, limit int) ([]models.CorpusDocument, error) {
	query := `
		SELECT analysis_id, text
		FROM documents
		WHERE analysis_id <> $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, excludeAnalysisID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.CorpusDocument
	for rows.Next() {
		var doc models.CorpusDocument
		if err := rows.Scan(&doc.AnalysisID, &doc.Text); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}
