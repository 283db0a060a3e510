package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

func makeUtterances(n int) []entities.Utterance {
	utterances := make([]entities.Utterance, n)
	for i := range utterances {
		utterances[i] = entities.Utterance{
			ID:   string(rune('a' + i)),
			Text: "some reasonably long utterance text for testing",
		}
	}
	return utterances
}

func goodVerdict() entities.DomainVerdict {
	return entities.DomainVerdict{DetectedDomain: "medical", Confidence: 0.9}
}

func TestValidate_ZeroCoverageIsError(t *testing.T) {
	// Twenty utterances, no proposals at all.
	result := NewValidator(nil).Validate(nil, makeUtterances(20), goodVerdict())

	if result.IsValid {
		t.Fatalf("zero coverage must not be valid")
	}
	if len(result.Errors) == 0 {
		t.Fatalf("expected an error for 0%% coverage")
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "0% coverage") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a 0%% coverage error, got %v", result.Errors)
	}
	if result.Checks["check_coverage"] {
		t.Fatalf("coverage check should have failed")
	}
}

func TestValidate_HealthyOutputIsValid(t *testing.T) {
	utterances := makeUtterances(12)
	entries := []entities.MatrixEntry{
		{UtteranceID: "a", Code: "x", Present: true, Confidence: 0.9},
		{UtteranceID: "b", Code: "y", Present: true, Confidence: 0.85},
		{UtteranceID: "c", Code: "x", Present: true, Confidence: 0.7},
		{UtteranceID: "d", Code: "z", Present: true, Confidence: 0.8},
		{UtteranceID: "e", Code: "y", Present: true, Confidence: 0.75},
		{UtteranceID: "f", Code: "z", Present: true, Confidence: 0.95},
	}

	result := NewValidator(nil).Validate(entries, utterances, goodVerdict())

	if !result.IsValid {
		t.Fatalf("expected valid result, errors=%v warnings=%v", result.Errors, result.Warnings)
	}
	if result.ConfidenceScore != 1.0 {
		t.Fatalf("expected full confidence score, got %v", result.ConfidenceScore)
	}
	for name, passed := range result.Checks {
		if !passed {
			t.Fatalf("expected check %s to pass", name)
		}
	}
}

func TestValidate_LowCoverageWarningFailsCheck(t *testing.T) {
	// 2 of 10 utterances coded: a warning finding, so the check fails
	// even though the severity is below error.
	utterances := makeUtterances(10)
	entries := []entities.MatrixEntry{
		{UtteranceID: "a", Code: "x", Confidence: 0.9},
		{UtteranceID: "b", Code: "y", Confidence: 0.7},
	}

	result := NewValidator(nil).Validate(entries, utterances, goodVerdict())

	if result.Checks["check_coverage"] {
		t.Fatalf("low-coverage warning must fail the coverage check")
	}
	if len(result.Errors) != 0 {
		t.Fatalf("low coverage is a warning, not an error: %v", result.Errors)
	}
}

func TestValidate_IdenticalConfidencesAreError(t *testing.T) {
	utterances := makeUtterances(10)
	entries := []entities.MatrixEntry{
		{UtteranceID: "a", Code: "x", Confidence: 0.8},
		{UtteranceID: "b", Code: "y", Confidence: 0.8},
		{UtteranceID: "c", Code: "z", Confidence: 0.8},
		{UtteranceID: "d", Code: "w", Confidence: 0.8},
	}

	result := NewValidator(nil).Validate(entries, utterances, goodVerdict())

	if result.IsValid {
		t.Fatalf("identical confidences must invalidate the output")
	}
	if result.Checks["check_confidence_distribution"] {
		t.Fatalf("confidence distribution check should have failed")
	}
}

func TestValidate_UniversalPerfectConfidenceIsError(t *testing.T) {
	utterances := makeUtterances(10)
	entries := []entities.MatrixEntry{
		{UtteranceID: "a", Code: "x", Confidence: 1.0},
		{UtteranceID: "b", Code: "y", Confidence: 1.0},
	}

	result := NewValidator(nil).Validate(entries, utterances, goodVerdict())

	// Identical and all-perfect both fire.
	if len(result.Errors) < 2 {
		t.Fatalf("expected identical and overfitting errors, got %v", result.Errors)
	}
	if result.IsValid {
		t.Fatalf("universal 1.0 confidence must not be valid")
	}
}

func TestValidate_DuplicateCodesAreError(t *testing.T) {
	utterances := makeUtterances(10)
	entries := []entities.MatrixEntry{
		{UtteranceID: "a", Code: "x", Confidence: 0.9},
		{UtteranceID: "a", Code: "x", Confidence: 0.7},
		{UtteranceID: "b", Code: "y", Confidence: 0.8},
	}

	result := NewValidator(nil).Validate(entries, utterances, goodVerdict())

	if result.Checks["check_output_consistency"] {
		t.Fatalf("duplicate (utterance, code) pair should fail consistency check")
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "Duplicate codes on utterance a") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected duplicate error for utterance a, got %v", result.Errors)
	}
}

func TestValidate_DominantCodeWarning(t *testing.T) {
	utterances := makeUtterances(12)
	entries := []entities.MatrixEntry{
		{UtteranceID: "a", Code: "x", Confidence: 0.9},
		{UtteranceID: "b", Code: "x", Confidence: 0.8},
		{UtteranceID: "c", Code: "x", Confidence: 0.7},
		{UtteranceID: "d", Code: "x", Confidence: 0.85},
		{UtteranceID: "e", Code: "x", Confidence: 0.75},
		{UtteranceID: "f", Code: "y", Confidence: 0.9},
	}

	result := NewValidator(nil).Validate(entries, utterances, goodVerdict())

	if result.Checks["check_code_distribution"] {
		t.Fatalf("dominant code should fail the distribution check")
	}
}

func TestValidate_UnknownDomainWarning(t *testing.T) {
	utterances := makeUtterances(12)
	entries := []entities.MatrixEntry{
		{UtteranceID: "a", Code: "x", Confidence: 0.9},
		{UtteranceID: "b", Code: "y", Confidence: 0.7},
		{UtteranceID: "c", Code: "z", Confidence: 0.8},
		{UtteranceID: "d", Code: "x", Confidence: 0.6},
	}
	verdict := entities.DomainVerdict{DetectedDomain: entities.UnknownDomain, Confidence: 0}

	result := NewValidator(nil).Validate(entries, utterances, verdict)

	if result.Checks["check_domain_alignment"] {
		t.Fatalf("unknown domain with codes should fail alignment check")
	}
}

func TestValidate_LimitedDataWarning(t *testing.T) {
	utterances := makeUtterances(3)
	entries := []entities.MatrixEntry{
		{UtteranceID: "a", Code: "x", Confidence: 0.9},
		{UtteranceID: "b", Code: "y", Confidence: 0.7},
	}

	result := NewValidator(nil).Validate(entries, utterances, goodVerdict())

	if result.Checks["check_statistical_validity"] {
		t.Fatalf("tiny dataset should fail statistical validity check")
	}
}

func TestValidate_ScorePenalties(t *testing.T) {
	// One failed check carrying one warning: 1.0 - 0.15 - 0.05 = 0.8.
	utterances := makeUtterances(12)
	entries := []entities.MatrixEntry{
		{UtteranceID: "a", Code: "x", Confidence: 0.9},
		{UtteranceID: "b", Code: "y", Confidence: 0.7},
	}

	result := NewValidator(nil).Validate(entries, utterances, goodVerdict())

	if result.Checks["check_coverage"] {
		t.Fatalf("expected low-coverage warning to fail coverage check")
	}
	if math.Abs(result.ConfidenceScore-0.8) > 1e-9 {
		t.Fatalf("expected confidence score 0.8, got %v", result.ConfidenceScore)
	}
	if !result.IsValid {
		t.Fatalf("warning-only result above 0.5 should remain valid")
	}
}
