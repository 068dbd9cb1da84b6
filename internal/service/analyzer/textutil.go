package analyzer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var sentenceSplit = regexp.MustCompile(`[.!?…]+`)

func splitWords(text string) []string {
	return strings.Fields(text)
}

func splitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// indexPhrase finds the first word-boundary-anchored occurrence of
// phrase in text. Both arguments must already be lowercased. Works for
// Latin and Cyrillic alike, which \b in the regexp package does not.
func indexPhrase(text, phrase string) int {
	if phrase == "" {
		return -1
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return start
		}
		offset = start + 1
	}
}

func containsPhrase(text, phrase string) bool {
	return indexPhrase(text, phrase) >= 0
}

// countPhrase counts non-overlapping word-boundary-anchored occurrences.
func countPhrase(text, phrase string) int {
	if phrase == "" {
		return 0
	}
	count := 0
	offset := 0
	for {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return count
		}
		start := offset + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			count++
			offset = end
		} else {
			offset = start + 1
		}
	}
}

func boundaryBefore(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return !isWordRune(r)
}

func boundaryAfter(text string, pos int) bool {
	if pos >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	return !isWordRune(r)
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
