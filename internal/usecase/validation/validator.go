package validation

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

const (
	severityWarning = "warning"
	severityError   = "error"
)

// finding is one issue raised by a check, with its own severity.
type finding struct {
	severity       string
	message        string
	recommendation string
}

type checkFunc func(entries []entities.MatrixEntry, utterances []entities.Utterance, verdict entities.DomainVerdict) []finding

// Validator runs independent sanity checks over the merged decision
// matrix. A check passes only when it raises no findings at all, so
// warning-level issues still show up as failed checks.
type Validator struct {
	logger *zap.Logger
}

func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate assesses one run's merged output. is_valid requires zero
// errors and a confidence score above 0.5.
func (v *Validator) Validate(entries []entities.MatrixEntry, utterances []entities.Utterance, verdict entities.DomainVerdict) entities.ValidationResult {
	checks := []struct {
		name string
		fn   checkFunc
	}{
		{"check_coverage", checkCoverage},
		{"check_confidence_distribution", checkConfidenceDistribution},
		{"check_code_distribution", checkCodeDistribution},
		{"check_domain_alignment", checkDomainAlignment},
		{"check_statistical_validity", checkStatisticalValidity},
		{"check_output_consistency", checkOutputConsistency},
	}

	result := entities.ValidationResult{
		Warnings:        []string{},
		Errors:          []string{},
		Recommendations: []string{},
		Checks:          make(map[string]bool, len(checks)),
	}

	failedChecks := 0
	recommendations := make(map[string]struct{})

	for _, check := range checks {
		findings := check.fn(entries, utterances, verdict)
		result.Checks[check.name] = len(findings) == 0
		if len(findings) > 0 {
			failedChecks++
		}
		for _, f := range findings {
			if f.severity == severityError {
				result.Errors = append(result.Errors, f.message)
			} else {
				result.Warnings = append(result.Warnings, f.message)
			}
			if f.recommendation != "" {
				recommendations[f.recommendation] = struct{}{}
			}
		}
	}

	for rec := range recommendations {
		result.Recommendations = append(result.Recommendations, rec)
	}
	sort.Strings(result.Recommendations)

	score := 1.0
	score -= float64(failedChecks) * 0.15
	score -= float64(len(result.Warnings)) * 0.05
	score -= float64(len(result.Errors)) * 0.2
	result.ConfidenceScore = clamp01(score)
	result.IsValid = len(result.Errors) == 0 && result.ConfidenceScore > 0.5

	if v.logger != nil {
		v.logger.Info("🔍 output validated",
			zap.Bool("is_valid", result.IsValid),
			zap.Float64("confidence_score", result.ConfidenceScore),
			zap.Int("errors", len(result.Errors)),
			zap.Int("warnings", len(result.Warnings)),
		)
	}
	return result
}

func checkCoverage(entries []entities.MatrixEntry, utterances []entities.Utterance, _ entities.DomainVerdict) []finding {
	if len(utterances) == 0 {
		return []finding{{severityError, "No transcript provided", ""}}
	}

	coded := make(map[string]struct{})
	for _, e := range entries {
		coded[e.UtteranceID] = struct{}{}
	}
	coverage := float64(len(coded)) / float64(len(utterances))

	switch {
	case coverage == 0:
		return []finding{{
			severityError,
			"No utterances were coded (0% coverage)",
			"Check if domain mismatch or codebook is appropriate",
		}}
	case coverage < 0.1:
		return []finding{{
			severityError,
			fmt.Sprintf("Extremely low coverage: %.1f%%", coverage*100),
			"Consider using emergent coding approach",
		}}
	case coverage < 0.3:
		return []finding{{
			severityWarning,
			fmt.Sprintf("Low coverage: %.1f%%", coverage*100),
			"Review uncoded segments for missed opportunities",
		}}
	case coverage == 1.0:
		return []finding{{
			severityWarning,
			"100% coverage is suspicious - verify coding quality",
			"Review if all utterances truly contain codeable content",
		}}
	}
	return nil
}

func checkConfidenceDistribution(entries []entities.MatrixEntry, _ []entities.Utterance, _ entities.DomainVerdict) []finding {
	if len(entries) == 0 {
		return nil
	}

	var findings []finding
	allSame := true
	allPerfect := true
	var sum float64
	for _, e := range entries {
		if e.Confidence != entries[0].Confidence {
			allSame = false
		}
		if e.Confidence != 1.0 {
			allPerfect = false
		}
		sum += e.Confidence
	}

	if allSame {
		findings = append(findings, finding{
			severityError,
			fmt.Sprintf("All codes have identical confidence (%.2f)", entries[0].Confidence),
			"Review confidence calculation logic",
		})
	}
	if allPerfect {
		findings = append(findings, finding{
			severityError,
			"All codes have 100% confidence - likely overfitting",
			"Add uncertainty to coding process",
		})
	}

	if mean := sum / float64(len(entries)); mean < 0.5 {
		findings = append(findings, finding{
			severityWarning,
			fmt.Sprintf("Low average confidence: %.2f", mean),
			"Consider if domain/codebook is appropriate",
		})
	}
	return findings
}

func checkCodeDistribution(entries []entities.MatrixEntry, utterances []entities.Utterance, _ entities.DomainVerdict) []finding {
	if len(entries) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Code]++
	}

	var findings []finding

	topCode, topCount := "", 0
	for code, count := range counts {
		if count > topCount || (count == topCount && code < topCode) {
			topCode, topCount = code, count
		}
	}
	if share := float64(topCount) / float64(len(entries)); share > 0.8 {
		findings = append(findings, finding{
			severityWarning,
			fmt.Sprintf("Code %q represents %.0f%% of all codes", topCode, share*100),
			"Review if coding is too broad or generic",
		})
	}

	if len(counts) > len(utterances)*2 {
		findings = append(findings, finding{
			severityWarning,
			fmt.Sprintf("Too many unique codes (%d) for %d utterances", len(counts), len(utterances)),
			"Consider consolidating similar codes",
		})
	}
	return findings
}

func checkDomainAlignment(entries []entities.MatrixEntry, utterances []entities.Utterance, verdict entities.DomainVerdict) []finding {
	var findings []finding

	if verdict.DetectedDomain == entities.UnknownDomain && len(entries) > 0 {
		findings = append(findings, finding{
			severityWarning,
			"Codes applied despite unknown domain",
			"Verify codes are appropriate for content",
		})
	}
	if verdict.Confidence < 0.7 && len(entries) > len(utterances)/2 {
		findings = append(findings, finding{
			severityWarning,
			fmt.Sprintf("Many codes applied despite low domain confidence (%.2f)", verdict.Confidence),
			"Consider using emergent coding for uncertain domains",
		})
	}
	return findings
}

func checkStatisticalValidity(entries []entities.MatrixEntry, utterances []entities.Utterance, _ entities.DomainVerdict) []finding {
	if len(entries) < 10 && len(utterances) < 10 {
		return []finding{{
			severityWarning,
			"Limited data for meaningful statistical analysis",
			"Interpret reliability metrics with caution",
		}}
	}
	return nil
}

func checkOutputConsistency(entries []entities.MatrixEntry, _ []entities.Utterance, _ entities.DomainVerdict) []finding {
	seen := make(map[string]struct{}, len(entries))
	duplicated := make(map[string]struct{})
	var findings []finding

	for _, e := range entries {
		key := e.UtteranceID + "|" + e.Code
		if _, dup := seen[key]; dup {
			if _, reported := duplicated[e.UtteranceID]; !reported {
				duplicated[e.UtteranceID] = struct{}{}
				findings = append(findings, finding{
					severityError,
					fmt.Sprintf("Duplicate codes on utterance %s", e.UtteranceID),
					"Remove duplicate codes from results",
				})
			}
			continue
		}
		seen[key] = struct{}{}
	}
	return findings
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
