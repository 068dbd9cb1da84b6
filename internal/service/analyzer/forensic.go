package analyzer

import (
	"math"

	"github.com/veridoc/doc-audit/forensic-service/internal/config"
	"github.com/veridoc/doc-audit/forensic-service/internal/models"
	"github.com/veridoc/doc-audit/forensic-service/internal/rules"
)

// ForensicAnalyzer runs every signal analyzer over one document and
// aggregates the breakdown into the final 0-100 risk score. Analyze is a
// pure function of its text argument: no clock, no randomness, no
// mutable state, so identical text always produces an identical result.
type ForensicAnalyzer interface {
	Analyze(text string) *models.ForensicResult
}

type forensicAnalyzer struct {
	patterns   *PatternMatcher
	stylistic  *StylisticAnalyzer
	structure  *StructureAnalyzer
	omissions  *OmissionDetector
	typography *TypographyAnalyzer
	cfg        config.ScoringConfig
}

func NewForensicAnalyzer(catalog *rules.Catalog, cfg config.ScoringConfig) ForensicAnalyzer {
	return &forensicAnalyzer{
		patterns:   NewPatternMatcher(catalog.Patterns, cfg.PatternScale),
		stylistic:  NewStylisticAnalyzer(),
		structure:  NewStructureAnalyzer(),
		omissions:  NewOmissionDetector(catalog.Omissions, cfg.OmissionStep),
		typography: NewTypographyAnalyzer(),
		cfg:        cfg,
	}
}

func (a *forensicAnalyzer) Analyze(text string) *models.ForensicResult {
	normalized := Normalize(text)

	hits, patternScore := a.patterns.Match(normalized)
	styleScore, _ := a.stylistic.Analyze(normalized)
	structureScore, sections := a.structure.Analyze(normalized)
	flags, omissionScore := a.omissions.Detect(normalized)
	typographyScore := a.typography.Analyze(normalized)

	breakdown := models.ForensicBreakdown{
		Typography: clamp100(typographyScore),
		Patterns:   clamp100(patternScore),
		Omissions:  clamp100(omissionScore),
		Style:      clamp100(styleScore),
		Structure:  clamp100(structureScore),
	}

	score, tier := a.aggregate(breakdown)

	return &models.ForensicResult{
		AIProbabilityScore: score,
		RiskTier:           tier,
		Breakdown:          breakdown,
		PatternHits:        hits,
		Omissions:          flags,
		DetectedSections:   sections,
		WordCount:          len(splitWords(normalized)),
	}
}

// aggregate applies the configured weight vector. The weights are a
// contract with stored results, not an implementation detail.
func (a *forensicAnalyzer) aggregate(b models.ForensicBreakdown) (int, models.RiskTier) {
	weighted := a.cfg.WeightTypography*b.Typography +
		a.cfg.WeightPatterns*b.Patterns +
		a.cfg.WeightOmissions*b.Omissions +
		a.cfg.WeightStyle*b.Style +
		a.cfg.WeightStructure*b.Structure

	score := int(math.Round(clamp100(weighted)))

	switch {
	case score > a.cfg.HighTierThreshold:
		return score, models.RiskTierHigh
	case score > a.cfg.MediumTierThreshold:
		return score, models.RiskTierMedium
	default:
		return score, models.RiskTierLow
	}
}
