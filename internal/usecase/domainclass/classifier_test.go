package domainclass

import (
	"math"
	"strings"
	"testing"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

func testProfiles() []entities.DomainProfile {
	return []entities.DomainProfile{
		{
			DomainID:    "medical",
			Keywords:    []string{"patient", "treatment"},
			Patterns:    []string{`patient\s+care`},
			Weight:      1.0,
			CodebookRef: "medical",
		},
		{
			DomainID:    "education",
			Keywords:    []string{"student", "classroom"},
			Patterns:    []string{`student\s+learning`},
			Weight:      1.0,
			CodebookRef: "education",
		},
	}
}

func TestClassify_SingleDomain(t *testing.T) {
	c, err := NewClassifier(testProfiles(), 0.7, nil)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	// 10 occurrences of domain keywords, zero for the other domain.
	text := strings.Repeat("the patient needs treatment ", 5)
	verdict := c.Classify(text)

	if verdict.Confidence != 1.0 {
		t.Fatalf("expected confidence 1.0, got %v", verdict.Confidence)
	}
	if verdict.DetectedDomain != "medical" {
		t.Fatalf("expected medical domain, got %s", verdict.DetectedDomain)
	}
	if verdict.FallbackStrategy != entities.StrategyDeductive {
		t.Fatalf("expected deductive strategy, got %s", verdict.FallbackStrategy)
	}
	if verdict.RecommendedCodebook != "medical" {
		t.Fatalf("expected medical codebook, got %s", verdict.RecommendedCodebook)
	}
}

func TestClassify_EmptyTranscript(t *testing.T) {
	c, err := NewClassifier(testProfiles(), 0.7, nil)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	verdict := c.Classify("")

	if verdict.DetectedDomain != entities.UnknownDomain {
		t.Fatalf("expected unknown domain, got %s", verdict.DetectedDomain)
	}
	if verdict.Confidence != 0 {
		t.Fatalf("expected confidence 0, got %v", verdict.Confidence)
	}
	if verdict.FallbackStrategy != entities.StrategyEmergent {
		t.Fatalf("expected emergent strategy, got %s", verdict.FallbackStrategy)
	}
}

func TestClassify_PatternsWeightedDouble(t *testing.T) {
	c, err := NewClassifier(testProfiles(), 0.7, nil)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	verdict := c.Classify("patient care matters")

	// "patient" keyword = 1.0, "patient care" pattern = 2.0
	if got := verdict.DomainScores["medical"]; math.Abs(got-3.0) > 1e-9 {
		t.Fatalf("expected medical score 3.0, got %v", got)
	}
}

func TestClassify_BelowThresholdFallsBackToEmergent(t *testing.T) {
	c, err := NewClassifier(testProfiles(), 0.7, nil)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	// One hit per domain: confidence 0.5 for each, below the 0.7 threshold.
	verdict := c.Classify("the patient met the student")

	if verdict.DetectedDomain != entities.UnknownDomain {
		t.Fatalf("expected unknown domain, got %s", verdict.DetectedDomain)
	}
	if verdict.FallbackStrategy != entities.StrategyEmergent {
		t.Fatalf("expected emergent strategy, got %s", verdict.FallbackStrategy)
	}
	if verdict.RecommendedCodebook != "" {
		t.Fatalf("expected no codebook recommendation, got %s", verdict.RecommendedCodebook)
	}
}

func TestNewClassifier_RejectsInvalidProfiles(t *testing.T) {
	tests := []struct {
		name    string
		profile entities.DomainProfile
	}{
		{
			name:    "zero weight",
			profile: entities.DomainProfile{DomainID: "bad", Weight: 0},
		},
		{
			name:    "negative weight",
			profile: entities.DomainProfile{DomainID: "bad", Weight: -1},
		},
		{
			name:    "invalid pattern",
			profile: entities.DomainProfile{DomainID: "bad", Weight: 1, Patterns: []string{`(`}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClassifier([]entities.DomainProfile{tt.profile}, 0.7, nil); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}

func TestClassify_TopKeywords(t *testing.T) {
	c, err := NewClassifier(testProfiles(), 0.7, nil)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	verdict := c.Classify("patient treatment patient treatment")

	if len(verdict.TopKeywords) != 2 {
		t.Fatalf("expected 2 top keywords, got %v", verdict.TopKeywords)
	}
}
