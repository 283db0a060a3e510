package entities

// Reasons assigned to utterances that received no code.
const (
	UncodedTooShort        = "too_short"
	UncodedGreetingClosing = "greeting_closing"
	UncodedShortQuestion   = "short_question"
	UncodedNoMatchingCodes = "no_matching_codes"
)

// UncodedUtterance describes an utterance that received no code and a
// heuristic guess at why.
type UncodedUtterance struct {
	UtteranceID string `json:"utterance_id"`
	Speaker     string `json:"speaker"`
	Text        string `json:"text"`
	Tokens      int    `json:"tokens"`
	Reason      string `json:"reason"`
}

// CoverageMetrics reports how much of a transcript the coding touched.
type CoverageMetrics struct {
	TotalUtterances        int                `json:"total_utterances"`
	CodedUtterances        int                `json:"coded_utterances"`
	TotalTokens            int                `json:"total_tokens"`
	CodedTokens            int                `json:"coded_tokens"`
	CoveragePercent        float64            `json:"coverage_percent"`
	TokenCoveragePercent   float64            `json:"token_coverage_percent"`
	ConfidenceDistribution map[string]int     `json:"confidence_distribution"`
	UncodedSegments        []UncodedUtterance `json:"uncoded_segments,omitempty"`
	CodesPerUtterance      float64            `json:"codes_per_utterance"`
	DomainMatchScore       float64            `json:"domain_match_score"`
	Warnings               []string           `json:"warnings,omitempty"`
}
