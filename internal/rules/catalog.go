// Package rules loads the pattern dictionary and omission rule catalogs.
// Catalogs are versioned data assets, not code: scoring logic never
// hardcodes a phrase. Validation and regex compilation happen once at
// load time; malformed entries are logged and skipped, never fatal.
package rules

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/veridoc/doc-audit/forensic-service/internal/models"
)

//go:embed patterns.yaml
var defaultPatternsYAML []byte

//go:embed omissions.yaml
var defaultOmissionsYAML []byte

// wildcardGap bounds how many words a "*" in a phrase may skip. The
// quantifier is bounded and non-greedy to keep scans linear.
const wildcardGap = 8

// CompiledPattern is a dictionary rule ready for matching. Plain phrases
// stay literal; phrases with a "*" gap carry a compiled expression.
type CompiledPattern struct {
	Rule    models.PatternRule
	Literal string
	Expr    *regexp.Regexp
}

type Catalog struct {
	Patterns  []CompiledPattern
	Omissions []models.OmissionRule
}

type patternsFile struct {
	Patterns []models.PatternRule `yaml:"patterns"`
}

type omissionsFile struct {
	Omissions []models.OmissionRule `yaml:"omissions"`
}

// Load parses and compiles the embedded default catalogs.
func Load(log zerolog.Logger) (*Catalog, error) {
	return Parse(defaultPatternsYAML, defaultOmissionsYAML, log)
}

// Parse builds a catalog from raw YAML. A rule that fails validation is
// skipped with a log entry; only unreadable YAML is an error.
func Parse(patternsYAML, omissionsYAML []byte, log zerolog.Logger) (*Catalog, error) {
	var pf patternsFile
	if err := yaml.Unmarshal(patternsYAML, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse pattern catalog: %w", err)
	}

	var of omissionsFile
	if err := yaml.Unmarshal(omissionsYAML, &of); err != nil {
		return nil, fmt.Errorf("failed to parse omission catalog: %w", err)
	}

	catalog := &Catalog{}

	for _, rule := range pf.Patterns {
		compiled, err := compilePattern(rule)
		if err != nil {
			log.Warn().
				Err(err).
				Str("rule_id", rule.ID).
				Str("phrase", rule.Phrase).
				Msg("Skipping malformed pattern rule")
			continue
		}
		catalog.Patterns = append(catalog.Patterns, compiled)
	}

	for _, rule := range of.Omissions {
		normalized, err := normalizeOmission(rule)
		if err != nil {
			log.Warn().
				Err(err).
				Str("rule_id", rule.ID).
				Msg("Skipping malformed omission rule")
			continue
		}
		catalog.Omissions = append(catalog.Omissions, normalized)
	}

	log.Info().
		Int("patterns", len(catalog.Patterns)).
		Int("omissions", len(catalog.Omissions)).
		Msg("Rule catalogs loaded")

	return catalog, nil
}

func compilePattern(rule models.PatternRule) (CompiledPattern, error) {
	phrase := strings.ToLower(strings.TrimSpace(rule.Phrase))
	if phrase == "" {
		return CompiledPattern{}, fmt.Errorf("empty phrase")
	}
	if rule.Weight <= 0 {
		return CompiledPattern{}, fmt.Errorf("weight must be positive, got %v", rule.Weight)
	}

	if !strings.Contains(phrase, "*") {
		return CompiledPattern{Rule: rule, Literal: phrase}, nil
	}

	expr, err := buildWildcardExpr(phrase)
	if err != nil {
		return CompiledPattern{}, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return CompiledPattern{}, fmt.Errorf("failed to compile pattern: %w", err)
	}
	return CompiledPattern{Rule: rule, Expr: re}, nil
}

// buildWildcardExpr turns "a * b" into a word-boundary-anchored
// expression where "*" matches a bounded, non-greedy run of words.
func buildWildcardExpr(phrase string) (string, error) {
	tokens := strings.Fields(phrase)

	// Wildcards at the edges carry no anchor; drop them.
	for len(tokens) > 0 && tokens[0] == "*" {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1] == "*" {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens) == 0 {
		return "", fmt.Errorf("phrase contains only wildcards")
	}

	var runs [][]string
	current := []string{}
	for _, tok := range tokens {
		if tok == "*" {
			if len(current) > 0 {
				runs = append(runs, current)
				current = nil
			}
			continue
		}
		current = append(current, regexp.QuoteMeta(tok))
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}

	parts := make([]string, len(runs))
	for i, run := range runs {
		parts[i] = strings.Join(run, `\s+`)
	}
	gap := fmt.Sprintf(`(?:\s+\S+){0,%d}?\s+`, wildcardGap)
	body := strings.Join(parts, gap)

	return `(?:^|[^\p{L}\p{N}])` + body + `(?:[^\p{L}\p{N}]|$)`, nil
}

func normalizeOmission(rule models.OmissionRule) (models.OmissionRule, error) {
	if len(rule.Triggers) == 0 || len(rule.Expectations) == 0 {
		return rule, fmt.Errorf("triggers and expectations must be non-empty")
	}

	lower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	rule.Triggers = lower(rule.Triggers)
	rule.Expectations = lower(rule.Expectations)

	seen := make(map[string]struct{}, len(rule.Triggers))
	for _, t := range rule.Triggers {
		seen[t] = struct{}{}
	}
	for _, e := range rule.Expectations {
		if _, ok := seen[e]; ok {
			return rule, fmt.Errorf("trigger and expectation sets overlap on %q", e)
		}
	}

	return rule, nil
}
