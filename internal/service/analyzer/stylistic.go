package analyzer

import (
	"math"
	"regexp"
	"strings"
)

// Fixed bilingual word lists. These are style markers, not the pattern
// dictionary: they feed densities, not weighted hits.
var hedgingWords = []string{
	"perhaps", "possibly", "arguably", "somewhat", "relatively",
	"generally", "typically", "presumably", "seemingly",
	"можливо", "ймовірно", "певною мірою", "загалом", "зазвичай",
	"здебільшого",
}

var jargonWords = []string{
	"utilize", "leverage", "furthermore", "moreover", "consequently",
	"holistic", "paradigm", "framework", "comprehensive", "synergy",
	"крім того", "отже", "таким чином", "зокрема", "відповідно",
	"забезпечення", "функціонування",
}

// passiveExprs approximate auxiliary-verb-plus-participle passives in
// both languages. Matching is per sentence, on lowercased text.
var passiveExprs = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|[^\p{L}])(?:is|are|was|were|be|been|being)\s+\p{L}+(?:ed|en)(?:[^\p{L}]|$)`),
	regexp.MustCompile(`(?:^|[^\p{L}])(?:було|буде|є)\s+\p{L}+(?:но|то)(?:[^\p{L}]|$)`),
}

// linkingExpr finds the bare copula "є" construction typical of
// templated Ukrainian academic prose ("метою роботи є...").
var linkingExpr = regexp.MustCompile(`(?:^|[^\p{L}])є(?:[^\p{L}]|$)`)

// Style score ladder. The variance steps and additive thresholds are a
// documented contract; tests pin them.
const (
	varianceStep1 = 4.0
	varianceStep2 = 6.0
	varianceStep3 = 8.0
	varianceStep4 = 10.0

	passiveThresholdPct   = 40.0
	linkingThresholdPct   = 30.0
	hedgingThresholdDens  = 10.0
	jargonThresholdDens   = 50.0
	minSentencesForSpread = 3
)

// StyleMetrics exposes the raw measurements behind the style component
// so results stay inspectable.
type StyleMetrics struct {
	SentenceCount  int     `json:"sentence_count"`
	LengthStdDev   float64 `json:"length_std_dev"`
	PassivePct     float64 `json:"passive_pct"`
	LinkingPct     float64 `json:"linking_pct"`
	HedgingPer1000 float64 `json:"hedging_per_1000"`
	JargonPer1000  float64 `json:"jargon_per_1000"`
}

type StylisticAnalyzer struct{}

func NewStylisticAnalyzer() *StylisticAnalyzer {
	return &StylisticAnalyzer{}
}

// Analyze returns the style breakdown component and its metrics.
// Uniform sentence length is the strongest single signature, so the
// variance ladder sets the base and the density thresholds add on top.
func (a *StylisticAnalyzer) Analyze(text string) (float64, StyleMetrics) {
	lower := strings.ToLower(text)
	words := splitWords(lower)
	sentences := splitSentences(lower)

	metrics := StyleMetrics{SentenceCount: len(sentences)}
	if len(words) == 0 || len(sentences) == 0 {
		return 0, metrics
	}

	metrics.LengthStdDev = sentenceLengthStdDev(sentences)
	metrics.PassivePct = sentenceShare(sentences, isPassive)
	metrics.LinkingPct = sentenceShare(sentences, func(s string) bool {
		return linkingExpr.MatchString(s)
	})
	metrics.HedgingPer1000 = densityPer1000(lower, len(words), hedgingWords)
	metrics.JargonPer1000 = densityPer1000(lower, len(words), jargonWords)

	risk := 0.0
	if len(sentences) >= minSentencesForSpread {
		risk = varianceRisk(metrics.LengthStdDev)
	}
	if metrics.PassivePct > passiveThresholdPct {
		risk += 30
	}
	if metrics.LinkingPct > linkingThresholdPct {
		risk += 30
	}
	if metrics.HedgingPer1000 > hedgingThresholdDens {
		risk += 20
	}
	if metrics.JargonPer1000 > jargonThresholdDens {
		risk += 20
	}

	return clamp100(risk), metrics
}

func varianceRisk(stdDev float64) float64 {
	switch {
	case stdDev < varianceStep1:
		return 100
	case stdDev < varianceStep2:
		return 80
	case stdDev < varianceStep3:
		return 50
	case stdDev < varianceStep4:
		return 20
	default:
		return 0
	}
}

func sentenceLengthStdDev(sentences []string) float64 {
	lengths := make([]float64, len(sentences))
	sum := 0.0
	for i, s := range sentences {
		lengths[i] = float64(len(splitWords(s)))
		sum += lengths[i]
	}
	mean := sum / float64(len(lengths))

	variance := 0.0
	for _, l := range lengths {
		variance += (l - mean) * (l - mean)
	}
	variance /= float64(len(lengths))

	return math.Sqrt(variance)
}

func sentenceShare(sentences []string, match func(string) bool) float64 {
	if len(sentences) == 0 {
		return 0
	}
	n := 0
	for _, s := range sentences {
		if match(s) {
			n++
		}
	}
	return float64(n) / float64(len(sentences)) * 100
}

func isPassive(sentence string) bool {
	for _, expr := range passiveExprs {
		if expr.MatchString(sentence) {
			return true
		}
	}
	return false
}

func densityPer1000(lower string, wordCount int, list []string) float64 {
	if wordCount == 0 {
		return 0
	}
	total := 0
	for _, w := range list {
		total += countPhrase(lower, w)
	}
	return float64(total) / float64(wordCount) * 1000
}
