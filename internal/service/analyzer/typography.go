package analyzer

import (
	"unicode"
)

// invisibleRunes are characters that survive copy-paste from generated
// or laundered documents but never appear in honestly typed text.
var invisibleRunes = map[rune]struct{}{
	'\u200b': {}, // zero-width space
	'\u200c': {}, // zero-width non-joiner
	'\u200d': {}, // zero-width joiner
	'\ufeff': {}, // BOM / zero-width no-break space
	'\u00ad': {}, // soft hyphen
}

// typographicRunes are typesetting characters a plain-text author rarely
// produces on a keyboard.
var typographicRunes = map[rune]struct{}{
	'—': {}, // em dash
	'–': {}, // en dash
	'“': {}, // left double quote
	'”': {}, // right double quote
	'‘': {}, // left single quote
	'’': {}, // right single quote
	'…': {}, // ellipsis
}

const (
	invisiblePointStep  = 10.0
	invisiblePointCap   = 40.0
	homoglyphPointStep  = 15.0
	homoglyphPointCap   = 40.0
	typographicFreeDens = 20.0 // per 1000 words before it counts
	typographicPointCap = 20.0
)

// TypographyAnalyzer produces the typography breakdown component from
// character-level evidence: invisible characters, Latin/Cyrillic
// homoglyph mixing inside one word, and typographic punctuation density.
type TypographyAnalyzer struct{}

func NewTypographyAnalyzer() *TypographyAnalyzer {
	return &TypographyAnalyzer{}
}

func (a *TypographyAnalyzer) Analyze(text string) float64 {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}

	invisible := 0
	typographic := 0
	for _, r := range text {
		if _, ok := invisibleRunes[r]; ok {
			invisible++
		}
		if _, ok := typographicRunes[r]; ok {
			typographic++
		}
	}

	mixedScript := 0
	for _, w := range words {
		if hasMixedScript(w) {
			mixedScript++
		}
	}

	score := minf(float64(invisible)*invisiblePointStep, invisiblePointCap)
	score += minf(float64(mixedScript)*homoglyphPointStep, homoglyphPointCap)

	density := float64(typographic) / float64(len(words)) * 1000
	if density > typographicFreeDens {
		score += minf((density-typographicFreeDens)*2, typographicPointCap)
	}

	return clamp100(score)
}

// hasMixedScript reports a word containing both Latin and Cyrillic
// letters, the classic homoglyph substitution trick.
func hasMixedScript(word string) bool {
	latin := false
	cyrillic := false
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		switch {
		case unicode.Is(unicode.Latin, r):
			latin = true
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic = true
		}
		if latin && cyrillic {
			return true
		}
	}
	return false
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
