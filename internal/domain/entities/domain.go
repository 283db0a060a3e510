package entities

// Fallback strategies recommended by the domain classifier.
const (
	StrategyDeductive = "deductive"
	StrategyEmergent  = "emergent"
)

// UnknownDomain is reported when no domain profile scores confidently enough.
const UnknownDomain = "unknown"

// DomainProfile describes one candidate subject domain: the keywords and
// patterns that signal it, and the codebook to apply when it matches.
type DomainProfile struct {
	DomainID    string   `json:"domain_id" validate:"required"`
	Keywords    []string `json:"keywords"`
	Patterns    []string `json:"patterns"`
	Weight      float64  `json:"weight" validate:"gt=0"`
	CodebookRef string   `json:"codebook_ref"`
}

// DomainVerdict is the classifier output for one transcript.
// Confidence is the winning score normalized by the total across all domains.
type DomainVerdict struct {
	DetectedDomain      string             `json:"detected_domain"`
	Confidence          float64            `json:"confidence"`
	DomainScores        map[string]float64 `json:"domain_scores"`
	RecommendedCodebook string             `json:"recommended_codebook,omitempty"`
	FallbackStrategy    string             `json:"fallback_strategy"`
	TopKeywords         []string           `json:"top_keywords,omitempty"`
}
