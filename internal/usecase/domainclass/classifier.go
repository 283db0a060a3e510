package domainclass

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

const maxTopKeywords = 10

// Classifier scores transcript text against domain profiles and picks the
// best-matching domain with a normalized confidence.
type Classifier struct {
	profiles      []entities.DomainProfile
	patterns      map[string][]*regexp.Regexp
	minConfidence float64
	logger        *zap.Logger
}

// NewClassifier compiles profile patterns and validates profile weights.
// minConfidence is the threshold above which a domain (and its codebook)
// is recommended; below it the verdict falls back to emergent coding.
func NewClassifier(profiles []entities.DomainProfile, minConfidence float64, logger *zap.Logger) (*Classifier, error) {
	patterns := make(map[string][]*regexp.Regexp, len(profiles))
	for _, profile := range profiles {
		if profile.Weight <= 0 {
			return nil, fmt.Errorf("%w: domain %q has weight %v", entities.ErrInvalidProfile, profile.DomainID, profile.Weight)
		}
		compiled := make([]*regexp.Regexp, 0, len(profile.Patterns))
		for _, pattern := range profile.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("%w: domain %q pattern %q: %v", entities.ErrInvalidProfile, profile.DomainID, pattern, err)
			}
			compiled = append(compiled, re)
		}
		patterns[profile.DomainID] = compiled
	}

	return &Classifier{
		profiles:      profiles,
		patterns:      patterns,
		minConfidence: minConfidence,
		logger:        logger,
	}, nil
}

// Classify scores the transcript text against every profile and returns a
// verdict. It never fails: an empty or unmatchable transcript yields domain
// "unknown" with confidence 0 and the emergent fallback strategy.
func (c *Classifier) Classify(text string) entities.DomainVerdict {
	textLower := strings.ToLower(text)

	scores := make(map[string]float64, len(c.profiles))
	var totalScore float64
	bestDomain := ""
	bestScore := 0.0

	for _, profile := range c.profiles {
		score := c.scoreProfile(textLower, profile)
		scores[profile.DomainID] = score
		totalScore += score
		if score > bestScore {
			bestScore = score
			bestDomain = profile.DomainID
		}
	}

	confidence := 0.0
	if totalScore > 0 {
		confidence = bestScore / totalScore
	}

	verdict := entities.DomainVerdict{
		DetectedDomain:   entities.UnknownDomain,
		Confidence:       confidence,
		DomainScores:     scores,
		FallbackStrategy: entities.StrategyEmergent,
	}

	if confidence >= c.minConfidence && bestDomain != "" {
		verdict.DetectedDomain = bestDomain
		verdict.FallbackStrategy = entities.StrategyDeductive
		verdict.RecommendedCodebook = c.codebookRef(bestDomain)
		verdict.TopKeywords = c.topKeywords(textLower, bestDomain)
	}

	if c.logger != nil {
		c.logger.Info("domain classified",
			zap.String("domain", verdict.DetectedDomain),
			zap.Float64("confidence", verdict.Confidence),
			zap.String("strategy", verdict.FallbackStrategy),
		)
	}

	return verdict
}

// scoreProfile computes keyword and pattern scores for one profile.
// Pattern matches are weighted double.
func (c *Classifier) scoreProfile(textLower string, profile entities.DomainProfile) float64 {
	var score float64

	for _, keyword := range profile.Keywords {
		count := strings.Count(textLower, strings.ToLower(keyword))
		score += float64(count) * profile.Weight
	}

	for _, re := range c.patterns[profile.DomainID] {
		matches := re.FindAllStringIndex(textLower, -1)
		score += float64(len(matches)) * profile.Weight * 2
	}

	return score
}

func (c *Classifier) codebookRef(domainID string) string {
	for _, profile := range c.profiles {
		if profile.DomainID == domainID {
			return profile.CodebookRef
		}
	}
	return ""
}

// topKeywords lists the winning profile's keywords actually found in the text.
func (c *Classifier) topKeywords(textLower, domainID string) []string {
	var found []string
	for _, profile := range c.profiles {
		if profile.DomainID != domainID {
			continue
		}
		for _, keyword := range profile.Keywords {
			if strings.Contains(textLower, strings.ToLower(keyword)) {
				found = append(found, keyword)
				if len(found) >= maxTopKeywords {
					return found
				}
			}
		}
	}
	return found
}
