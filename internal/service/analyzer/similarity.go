package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/veridoc/doc-audit/forensic-service/internal/config"
	"github.com/veridoc/doc-audit/forensic-service/internal/models"
)

// CorpusSource supplies previously processed documents, most recent
// first, bounded by limit. The similarity engine only ever reads.
type CorpusSource interface {
	Recent(ctx context.Context, excludeAnalysisID string, limit int) ([]models.CorpusDocument, error)
}

// SimilarityEngine compares a candidate text against the stored corpus
// using k-word shingles and Jaccard similarity, returning the single
// best match. The result depends on the corpus snapshot at query time.
type SimilarityEngine interface {
	Detect(ctx context.Context, text string, excludeAnalysisID string) (*models.SimilarityResult, error)
}

type similarityEngine struct {
	corpus CorpusSource
	cfg    config.SimilarityConfig
	logger zerolog.Logger
}

func NewSimilarityEngine(corpus CorpusSource, cfg config.SimilarityConfig, logger zerolog.Logger) SimilarityEngine {
	return &similarityEngine{
		corpus: corpus,
		cfg:    cfg,
		logger: logger,
	}
}

func (e *similarityEngine) Detect(ctx context.Context, text string, excludeAnalysisID string) (*models.SimilarityResult, error) {
	words := splitWords(strings.ToLower(Normalize(text)))

	// Fragments produce spurious high Jaccard scores; refuse to judge
	// them instead of reporting a false match.
	if len(words) < e.cfg.MinWords {
		return &models.SimilarityResult{
			Similarity: 0,
			Reason:     models.SimilarityReasonTooShort,
		}, nil
	}

	candidate := shingleSet(words, e.cfg.ShingleSize)

	docs, err := e.corpus.Recent(ctx, excludeAnalysisID, e.cfg.CorpusLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch corpus documents: %w", err)
	}

	result := &models.SimilarityResult{}
	for _, doc := range docs {
		docWords := splitWords(strings.ToLower(Normalize(doc.Text)))
		score := jaccard(candidate, shingleSet(docWords, e.cfg.ShingleSize))
		result.ComparedCount++

		if score > result.Similarity {
			result.Similarity = score
			id := doc.AnalysisID
			result.MatchedDocumentID = &id
		}
	}

	e.logger.Debug().
		Int("compared", result.ComparedCount).
		Float64("best_similarity", result.Similarity).
		Msg("Similarity scan completed")

	return result, nil
}

func shingleSet(words []string, k int) map[string]struct{} {
	set := make(map[string]struct{})
	if k <= 0 || len(words) < k {
		return set
	}
	for i := 0; i+k <= len(words); i++ {
		set[strings.Join(words[i:i+k], " ")] = struct{}{}
	}
	return set
}

// jaccard iterates the smaller set into the bigger one; symmetric by
// construction.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}

	intersection := 0
	for s := range small {
		if _, ok := big[s]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
