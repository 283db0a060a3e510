package coverage

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

// Confidence histogram buckets.
const (
	BucketHigh   = "high"
	BucketMedium = "medium"
	BucketLow    = "low"
)

var greetingWords = []string{"hello", "thank you", "goodbye", "thanks"}

// Analyzer measures how much of a transcript the coding actually covered,
// at utterance and token granularity, and guesses why gaps were skipped.
type Analyzer struct {
	logger *zap.Logger
}

func NewAnalyzer(logger *zap.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze computes coverage of the merged decision matrix against the
// transcript. domainConfidence folds into the domain match score.
func (a *Analyzer) Analyze(utterances []entities.Utterance, entries []entities.MatrixEntry, domainConfidence float64) entities.CoverageMetrics {
	codedIDs := make(map[string]struct{})
	for _, e := range entries {
		codedIDs[e.UtteranceID] = struct{}{}
	}

	totalTokens, codedTokens := 0, 0
	var uncoded []entities.UncodedUtterance
	for _, u := range utterances {
		tokens := u.TokenCount()
		totalTokens += tokens
		if _, ok := codedIDs[u.ID]; ok {
			codedTokens += tokens
			continue
		}
		uncoded = append(uncoded, entities.UncodedUtterance{
			UtteranceID: u.ID,
			Speaker:     u.Speaker,
			Text:        u.Text,
			Tokens:      tokens,
			Reason:      guessUncodedReason(u.Text),
		})
	}

	metrics := entities.CoverageMetrics{
		TotalUtterances:        len(utterances),
		CodedUtterances:        len(codedIDs),
		TotalTokens:            totalTokens,
		CodedTokens:            codedTokens,
		ConfidenceDistribution: confidenceDistribution(entries),
		UncodedSegments:        uncoded,
	}

	if len(utterances) > 0 {
		metrics.CoveragePercent = float64(len(codedIDs)) / float64(len(utterances)) * 100
	}
	if totalTokens > 0 {
		metrics.TokenCoveragePercent = float64(codedTokens) / float64(totalTokens) * 100
	}
	if len(codedIDs) > 0 {
		metrics.CodesPerUtterance = float64(len(entries)) / float64(len(codedIDs))
	}
	metrics.DomainMatchScore = (metrics.CoveragePercent / 100) * domainConfidence
	metrics.Warnings = coverageWarnings(metrics)

	if a.logger != nil {
		a.logger.Info("📈 coverage analyzed",
			zap.Float64("utterance_coverage", metrics.CoveragePercent),
			zap.Float64("token_coverage", metrics.TokenCoveragePercent),
			zap.Int("uncoded", len(uncoded)),
		)
	}
	return metrics
}

func confidenceDistribution(entries []entities.MatrixEntry) map[string]int {
	dist := map[string]int{BucketHigh: 0, BucketMedium: 0, BucketLow: 0}
	for _, e := range entries {
		switch {
		case e.Confidence >= 0.8:
			dist[BucketHigh]++
		case e.Confidence >= 0.6:
			dist[BucketMedium]++
		default:
			dist[BucketLow]++
		}
	}
	return dist
}

// guessUncodedReason applies cheap heuristics to explain a coding gap.
func guessUncodedReason(text string) string {
	lower := strings.ToLower(text)
	tokens := len(strings.Fields(lower))

	switch {
	case tokens < 5:
		return entities.UncodedTooShort
	case containsAny(lower, greetingWords):
		return entities.UncodedGreetingClosing
	case strings.HasSuffix(strings.TrimSpace(lower), "?") && tokens < 10:
		return entities.UncodedShortQuestion
	default:
		return entities.UncodedNoMatchingCodes
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func coverageWarnings(m entities.CoverageMetrics) []string {
	var warnings []string

	if m.CoveragePercent < 50 {
		warnings = append(warnings, fmt.Sprintf("Low coverage: only %.1f%% of utterances coded", m.CoveragePercent))
	}
	if m.TokenCoveragePercent < 40 {
		warnings = append(warnings, fmt.Sprintf("Low token coverage: only %.1f%% of content coded", m.TokenCoveragePercent))
	}
	if m.DomainMatchScore < 0.5 {
		warnings = append(warnings, fmt.Sprintf("Poor domain match: score of %.2f suggests domain mismatch", m.DomainMatchScore))
	}

	totalCodes := 0
	for _, count := range m.ConfidenceDistribution {
		totalCodes += count
	}
	if totalCodes > 0 && float64(m.ConfidenceDistribution[BucketHigh])/float64(totalCodes) < 0.5 {
		warnings = append(warnings, "Low confidence: less than 50% of codes have high confidence")
	}

	if m.CodesPerUtterance > 5 {
		warnings = append(warnings, fmt.Sprintf("Over-coding: average of %.1f codes per utterance", m.CodesPerUtterance))
	}

	return warnings
}
