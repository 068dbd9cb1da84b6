package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc/doc-audit/forensic-service/internal/models"
)

var omissionTestRules = []models.OmissionRule{
	{
		ID:           "human-subjects",
		Triggers:     []string{"participants", "respondents", "учасники дослідження"},
		Expectations: []string{"ethics committee", "informed consent", "етичний комітет"},
		Label:        "research on people without an ethics procedure",
	},
	{
		ID:           "personal-data",
		Triggers:     []string{"personal data", "персональні дані"},
		Expectations: []string{"anonymized", "анонімізовано", "data protection"},
		Label:        "personal data without protection measures",
	},
}

func TestOmissionTriggerWithoutExpectation(t *testing.T) {
	d := NewOmissionDetector(omissionTestRules, 35)

	flags, score := d.Detect("the participants answered a short questionnaire")
	require.Len(t, flags, 1)
	assert.Equal(t, "human-subjects", flags[0].RuleID)
	assert.Equal(t, "participants", flags[0].Trigger)
	assert.Equal(t, 35.0, score)
}

func TestOmissionExpectationSuppressesFlag(t *testing.T) {
	d := NewOmissionDetector(omissionTestRules, 35)

	flags, score := d.Detect("the participants gave informed consent before the interview")
	assert.Empty(t, flags)
	assert.Equal(t, 0.0, score)
}

func TestOmissionNoTrigger(t *testing.T) {
	d := NewOmissionDetector(omissionTestRules, 35)

	flags, score := d.Detect("a purely theoretical survey of the literature")
	assert.Empty(t, flags)
	assert.Equal(t, 0.0, score)
}

func TestOmissionMultipleRulesAccumulate(t *testing.T) {
	d := NewOmissionDetector(omissionTestRules, 35)

	flags, score := d.Detect("respondents shared personal data during the study")
	assert.Len(t, flags, 2)
	assert.Equal(t, 70.0, score)
}

func TestOmissionScoreClamped(t *testing.T) {
	rules := append([]models.OmissionRule{}, omissionTestRules...)
	rules = append(rules, models.OmissionRule{
		ID:           "third",
		Triggers:     []string{"survey"},
		Expectations: []string{"sampling method"},
		Label:        "survey without sampling method",
	})
	d := NewOmissionDetector(rules, 35)

	flags, score := d.Detect("respondents in the survey shared personal data freely")
	assert.Len(t, flags, 3)
	assert.Equal(t, 100.0, score)
}

func TestOmissionUkrainianRule(t *testing.T) {
	d := NewOmissionDetector(omissionTestRules, 35)

	flags, _ := d.Detect("учасники дослідження відповіли на запитання анкети")
	require.Len(t, flags, 1)
	assert.Equal(t, "учасники дослідження", flags[0].Trigger)

	flags, _ = d.Detect("учасники дослідження дали згоду, яку схвалив етичний комітет")
	assert.Empty(t, flags)
}

func TestOmissionEmptyText(t *testing.T) {
	d := NewOmissionDetector(omissionTestRules, 35)

	flags, score := d.Detect("   ")
	assert.Empty(t, flags)
	assert.Equal(t, 0.0, score)
}
