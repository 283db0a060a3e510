package entities

// Sources a label proposal can originate from.
const (
	SourceDeductive = "deductive"
	SourceInductive = "inductive"
)

// LabelProposal is one rater's claim that a code applies to an utterance.
// Quote, when set, must be a verbatim substring of the utterance text;
// proposals violating that are dropped at the ingestion boundary.
type LabelProposal struct {
	UtteranceID  string  `json:"utterance_id" validate:"required"`
	RaterID      string  `json:"rater_id"`
	Code         string  `json:"code" validate:"required"`
	Present      bool    `json:"present"`
	Confidence   float64 `json:"confidence" validate:"gte=0,lte=1"`
	Quote        string  `json:"quote,omitempty"`
	Source       string  `json:"source,omitempty"`
	OriginalCode string  `json:"original_code,omitempty"`
}

// RaterResult groups one rater's full proposal set for a transcript.
// CoverageImprovement is the utterance coverage gained over what a
// deductive-only pass would have coded.
type RaterResult struct {
	RaterID             string          `json:"rater_id"`
	Strategy            string          `json:"strategy"`
	Proposals           []LabelProposal `json:"proposals"`
	CoverageImprovement float64         `json:"coverage_improvement"`
}

// Codes returns the distinct codes this rater proposed.
func (r RaterResult) Codes() map[string]struct{} {
	codes := make(map[string]struct{})
	for _, p := range r.Proposals {
		codes[p.Code] = struct{}{}
	}
	return codes
}

// RaterFailure records a collaborator failure without aborting the pipeline.
type RaterFailure struct {
	RaterID string `json:"rater_id"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}
