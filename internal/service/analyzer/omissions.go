package analyzer

import (
	"strings"

	"github.com/veridoc/doc-audit/forensic-service/internal/models"
)

// OmissionDetector flags "trigger present, expected companion concept
// absent" conditions. Certain topics create a procedural expectation;
// silence on the companion concept is a signal independent of phrasing.
type OmissionDetector struct {
	rules []models.OmissionRule
	step  float64
}

func NewOmissionDetector(rules []models.OmissionRule, step float64) *OmissionDetector {
	return &OmissionDetector{
		rules: rules,
		step:  step,
	}
}

// Detect returns the fired rules and the omissions breakdown component.
func (d *OmissionDetector) Detect(text string) ([]models.OmissionFlag, float64) {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return nil, 0
	}

	var flags []models.OmissionFlag
	for _, rule := range d.rules {
		trigger := ""
		for _, t := range rule.Triggers {
			if containsPhrase(lower, t) {
				trigger = t
				break
			}
		}
		if trigger == "" {
			continue
		}

		expected := false
		for _, e := range rule.Expectations {
			if containsPhrase(lower, e) {
				expected = true
				break
			}
		}
		if expected {
			continue
		}

		flags = append(flags, models.OmissionFlag{
			RuleID:  rule.ID,
			Label:   rule.Label,
			Trigger: trigger,
		})
	}

	return flags, clamp100(float64(len(flags)) * d.step)
}
