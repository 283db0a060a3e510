package entities

// Quote is a verbatim evidence excerpt backing a consensus decision.
type Quote struct {
	UtteranceID       string  `json:"utterance_id"`
	Text              string  `json:"text"`
	RaterID           string  `json:"rater_id"`
	RaterConfidence   float64 `json:"rater_confidence"`
	ConsensusSelected bool    `json:"consensus_selected"`
}

// ConsensusDecision is the merged present/absent verdict for one code
// after combining all raters' votes.
type ConsensusDecision struct {
	Code           string  `json:"code"`
	Present        bool    `json:"present"`
	Confidence     float64 `json:"confidence"`
	AgreementRatio float64 `json:"agreement_ratio"`
	RaterCount     int     `json:"rater_count"`
	PresentCount   int     `json:"present_count"`
	Evidence       []Quote `json:"evidence,omitempty"`
}

// ConsensusQuality summarizes how clean the consensus was across codes.
type ConsensusQuality struct {
	OverallQuality     float64 `json:"overall_quality"`
	HighConsensusCodes int     `json:"high_consensus_codes"`
	LowConsensusCodes  int     `json:"low_consensus_codes"`
	AvgConfidence      float64 `json:"avg_confidence"`
	AvgAgreement       float64 `json:"avg_agreement"`
}

// Disagreement records a code on which raters split.
type Disagreement struct {
	Code  string          `json:"code"`
	Votes map[string]bool `json:"votes"`
}

// DisagreementSummary lists all codes with mixed votes.
type DisagreementSummary struct {
	Codes []Disagreement `json:"codes"`
	Rate  float64        `json:"rate"`
}

// ConsensusReport is the full consensus output for one transcript.
type ConsensusReport struct {
	Decisions     []ConsensusDecision `json:"decisions"`
	Threshold     float64             `json:"threshold"`
	RaterCount    int                 `json:"rater_count"`
	Quality       ConsensusQuality    `json:"quality"`
	Disagreements DisagreementSummary `json:"disagreements"`
}

// Decision returns the decision for a code, if any.
func (r *ConsensusReport) Decision(code string) (ConsensusDecision, bool) {
	for _, d := range r.Decisions {
		if d.Code == code {
			return d, true
		}
	}
	return ConsensusDecision{}, false
}

// MatrixEntry is one cell of the merged decision matrix:
// utterance-id x code with the consensus confidence.
type MatrixEntry struct {
	UtteranceID string  `json:"utterance_id"`
	Code        string  `json:"code"`
	Present     bool    `json:"present"`
	Confidence  float64 `json:"confidence"`
}
