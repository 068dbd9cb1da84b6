package analyzer

import (
	"strings"

	"github.com/veridoc/doc-audit/forensic-service/internal/models"
	"github.com/veridoc/doc-audit/forensic-service/internal/rules"
)

// PatternMatcher scans normalized text against the pattern dictionary.
// Scoring is length-normalized to points per 1000 words so documents of
// different sizes are comparable.
type PatternMatcher struct {
	patterns []rules.CompiledPattern
	scale    float64
}

func NewPatternMatcher(patterns []rules.CompiledPattern, scale float64) *PatternMatcher {
	return &PatternMatcher{
		patterns: patterns,
		scale:    scale,
	}
}

// Match returns one hit per matched rule and the patterns breakdown
// component. Pure: no state is touched.
func (m *PatternMatcher) Match(text string) ([]models.PatternHit, float64) {
	lower := strings.ToLower(text)
	wordCount := len(splitWords(lower))
	if wordCount == 0 {
		return nil, 0
	}

	var hits []models.PatternHit
	total := 0.0

	for _, p := range m.patterns {
		var occurrences int
		if p.Expr != nil {
			occurrences = len(p.Expr.FindAllStringIndex(lower, -1))
		} else {
			occurrences = countPhrase(lower, p.Literal)
		}
		if occurrences == 0 {
			continue
		}

		points := float64(occurrences) * p.Rule.Weight
		total += points
		hits = append(hits, models.PatternHit{
			RuleID:      p.Rule.ID,
			Phrase:      p.Rule.Phrase,
			Category:    p.Rule.Category,
			Occurrences: occurrences,
			Points:      points,
		})
	}

	perThousand := total / float64(wordCount) * 1000
	return hits, clamp100(perThousand * m.scale)
}
