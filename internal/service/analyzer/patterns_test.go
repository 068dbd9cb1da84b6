package analyzer

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc/doc-audit/forensic-service/internal/models"
	"github.com/veridoc/doc-audit/forensic-service/internal/rules"
)

func literalPattern(id, phrase string, weight float64) rules.CompiledPattern {
	return rules.CompiledPattern{
		Rule:    models.PatternRule{ID: id, Phrase: phrase, Weight: weight, Category: "cliche"},
		Literal: strings.ToLower(phrase),
	}
}

// fillerText pads the given phrases out to exactly total words.
func fillerText(total int, phrases ...string) string {
	parts := append([]string{}, phrases...)
	used := 0
	for _, p := range phrases {
		used += len(strings.Fields(p))
	}
	for i := used; i < total; i++ {
		parts = append(parts, "filler")
	}
	return strings.Join(parts, " ")
}

func TestPatternMatcherScoring(t *testing.T) {
	m := NewPatternMatcher([]rules.CompiledPattern{
		literalPattern("p1", "it is important to note", 1),
	}, 2.0)

	// 1 occurrence, weight 1, 50 words: 1/50*1000 = 20 per thousand,
	// scaled by 2 = 40.
	hits, score := m.Match(fillerText(50, "it is important to note"))
	require.Len(t, hits, 1)
	assert.Equal(t, "p1", hits[0].RuleID)
	assert.Equal(t, 1, hits[0].Occurrences)
	assert.Equal(t, 1.0, hits[0].Points)
	assert.InDelta(t, 40.0, score, 1e-9)
}

func TestPatternMatcherMoreHitsScoreHigher(t *testing.T) {
	m := NewPatternMatcher([]rules.CompiledPattern{
		literalPattern("p1", "delve into", 2),
	}, 2.0)

	_, one := m.Match(fillerText(60, "delve into"))
	_, two := m.Match(fillerText(60, "delve into", "delve into"))
	assert.Greater(t, two, one)
}

func TestPatternMatcherClampsAt100(t *testing.T) {
	m := NewPatternMatcher([]rules.CompiledPattern{
		literalPattern("p1", "delve into", 50),
	}, 2.0)

	_, score := m.Match("delve into delve into")
	assert.Equal(t, 100.0, score)
}

func TestPatternMatcherCaseInsensitive(t *testing.T) {
	m := NewPatternMatcher([]rules.CompiledPattern{
		literalPattern("p1", "it is important to note", 1),
	}, 2.0)

	hits, _ := m.Match("It Is Important To Note that everything changed")
	require.Len(t, hits, 1)
}

func TestPatternMatcherCyrillic(t *testing.T) {
	m := NewPatternMatcher([]rules.CompiledPattern{
		literalPattern("uk1", "слід зазначити, що", 3),
	}, 2.0)

	hits, score := m.Match("Слід зазначити, що результати збігаються.")
	require.Len(t, hits, 1)
	assert.Greater(t, score, 0.0)

	hits, _ = m.Match("переслідування зазначити неможливо")
	assert.Empty(t, hits)
}

func TestPatternMatcherWildcard(t *testing.T) {
	catalog, err := rules.Parse([]byte(`
patterns:
  - id: w1
    phrase: "this essay will * explore"
    weight: 2
    category: cliche
    language: en
`), []byte("omissions: []"), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, catalog.Patterns, 1)

	m := NewPatternMatcher(catalog.Patterns, 2.0)

	hits, _ := m.Match("this essay will thoroughly and carefully explore the topic")
	require.Len(t, hits, 1)
	assert.Equal(t, "w1", hits[0].RuleID)

	// Gap is bounded: a huge run of words between the anchors is not a hit.
	gap := strings.Repeat("word ", 20)
	hits, _ = m.Match("this essay will " + gap + "explore the topic")
	assert.Empty(t, hits)
}

func TestPatternMatcherEmptyText(t *testing.T) {
	m := NewPatternMatcher([]rules.CompiledPattern{
		literalPattern("p1", "delve into", 1),
	}, 2.0)

	hits, score := m.Match("")
	assert.Empty(t, hits)
	assert.Equal(t, 0.0, score)
}
