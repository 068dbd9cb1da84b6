package models

// PatternRule is one entry of the pattern dictionary: a phrase (optionally
// containing a "*" token gap) with a weight and a category. Rules are
// loaded once at startup and immutable afterwards.
type PatternRule struct {
	ID       string  `yaml:"id" json:"id"`
	Phrase   string  `yaml:"phrase" json:"phrase"`
	Weight   float64 `yaml:"weight" json:"weight"`
	Category string  `yaml:"category" json:"category"`
	Language string  `yaml:"language" json:"language"`
}

// OmissionRule encodes "if any trigger appears, some expectation should
// appear too". Triggers and expectations are lowercase phrases.
type OmissionRule struct {
	ID           string   `yaml:"id" json:"id"`
	Triggers     []string `yaml:"triggers" json:"triggers"`
	Expectations []string `yaml:"expectations" json:"expectations"`
	Label        string   `yaml:"label" json:"label"`
}

// PatternHit is recorded per matched rule, not per occurrence.
type PatternHit struct {
	RuleID      string  `json:"rule_id"`
	Phrase      string  `json:"phrase"`
	Category    string  `json:"category"`
	Occurrences int     `json:"occurrences"`
	Points      float64 `json:"points"`
}

// OmissionFlag is a fired omission rule together with the trigger that
// made it fire.
type OmissionFlag struct {
	RuleID  string `json:"rule_id"`
	Label   string `json:"label"`
	Trigger string `json:"trigger"`
}

// ForensicBreakdown holds the per-signal components, each independently
// clamped to [0,100].
type ForensicBreakdown struct {
	Typography float64 `json:"typography"`
	Patterns   float64 `json:"patterns"`
	Omissions  float64 `json:"omissions"`
	Style      float64 `json:"style"`
	Structure  float64 `json:"structure"`
}

type RiskTier string

const (
	RiskTierLow    RiskTier = "low"
	RiskTierMedium RiskTier = "medium"
	RiskTierHigh   RiskTier = "high"
)

// ForensicResult is a pure function of the input text: same text, same
// result. The score is advisory, not authoritative.
type ForensicResult struct {
	AIProbabilityScore int               `json:"ai_probability_score"`
	RiskTier           RiskTier          `json:"risk_tier"`
	Breakdown          ForensicBreakdown `json:"breakdown"`
	PatternHits        []PatternHit      `json:"pattern_hits,omitempty"`
	Omissions          []OmissionFlag    `json:"omissions,omitempty"`
	DetectedSections   []string          `json:"detected_sections,omitempty"`
	WordCount          int               `json:"word_count"`
}

// Similarity reason codes.
const (
	SimilarityReasonTooShort = "too_short"
)

// SimilarityResult is computed against a snapshot of the corpus at query
// time; it is not stable across corpus changes.
type SimilarityResult struct {
	Similarity        float64 `json:"similarity"`
	MatchedDocumentID *string `json:"matched_document_id,omitempty"`
	ComparedCount     int     `json:"compared_count"`
	Reason            string  `json:"reason,omitempty"`
}
