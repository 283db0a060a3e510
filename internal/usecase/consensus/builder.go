package consensus

import (
	"sort"

	"go.uber.org/zap"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

const (
	// Raters that never mention a code vote absent with this confidence.
	defaultAbsentConfidence = 0.1

	// Contested decisions lose a fifth of their confidence.
	noConsensusDiscount = 0.8

	maxEvidenceQuotes = 3
)

// Builder merges all raters' label proposals into per-code consensus
// decisions using threshold voting with a confidence-weighted fallback.
type Builder struct {
	threshold float64
	logger    *zap.Logger
}

func NewBuilder(threshold float64, logger *zap.Logger) *Builder {
	return &Builder{threshold: threshold, logger: logger}
}

// raterVote is one rater's aggregated stance on a single code.
type raterVote struct {
	raterID    string
	present    bool
	confidence float64
	quotes     []entities.Quote
}

// Build produces the consensus report for one transcript from the
// screened proposal sets of every rater that returned results.
func (b *Builder) Build(results []entities.RaterResult) entities.ConsensusReport {
	report := entities.ConsensusReport{
		Threshold:  b.threshold,
		RaterCount: len(results),
	}
	if len(results) == 0 {
		return report
	}

	votesByCode := collectVotes(results)

	codes := make([]string, 0, len(votesByCode))
	for code := range votesByCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		report.Decisions = append(report.Decisions, b.decide(code, votesByCode[code]))
	}

	report.Quality = b.quality(report.Decisions)
	report.Disagreements = disagreements(votesByCode, len(results))

	if b.logger != nil {
		b.logger.Info("🤝 consensus built",
			zap.Int("codes", len(report.Decisions)),
			zap.Int("raters", report.RaterCount),
			zap.Float64("quality", report.Quality.OverallQuality),
		)
	}
	return report
}

// collectVotes aggregates each rater's proposals per code: a code is
// present for a rater if any of its proposals say so, at the rater's
// highest confidence. Raters who never mention a code vote absent.
func collectVotes(results []entities.RaterResult) map[string][]raterVote {
	votesByCode := make(map[string][]raterVote)

	for _, result := range results {
		perCode := make(map[string]*raterVote)
		for _, p := range result.Proposals {
			vote, ok := perCode[p.Code]
			if !ok {
				vote = &raterVote{raterID: result.RaterID}
				perCode[p.Code] = vote
			}
			if p.Present {
				vote.present = true
			}
			if p.Confidence > vote.confidence {
				vote.confidence = p.Confidence
			}
			if p.Quote != "" {
				vote.quotes = append(vote.quotes, entities.Quote{
					UtteranceID: p.UtteranceID,
					Text:        p.Quote,
					RaterID:     result.RaterID,
				})
			}
		}
		for code, vote := range perCode {
			votesByCode[code] = append(votesByCode[code], *vote)
		}
	}

	// Fill in default-absent votes for raters that skipped a code.
	for code, votes := range votesByCode {
		seen := make(map[string]struct{}, len(votes))
		for _, v := range votes {
			seen[v.raterID] = struct{}{}
		}
		for _, result := range results {
			if _, ok := seen[result.RaterID]; !ok {
				votesByCode[code] = append(votesByCode[code], raterVote{
					raterID:    result.RaterID,
					present:    false,
					confidence: defaultAbsentConfidence,
				})
			}
		}
	}

	return votesByCode
}

func (b *Builder) decide(code string, votes []raterVote) entities.ConsensusDecision {
	presentCount := 0
	for _, v := range votes {
		if v.present {
			presentCount++
		}
	}

	total := len(votes)
	agreementRatio := float64(presentCount) / float64(total)

	var present bool
	var confidence float64
	switch {
	case agreementRatio >= b.threshold:
		present = true
		confidence = sideMeanConfidence(votes, true)
	case agreementRatio <= 1-b.threshold:
		present = false
		confidence = sideMeanConfidence(votes, false)
	default:
		present = weightedVote(votes) > 0.5
		confidence = sideMeanConfidence(votes, present) * noConsensusDiscount
	}

	decision := entities.ConsensusDecision{
		Code:           code,
		Present:        present,
		Confidence:     confidence,
		AgreementRatio: agreementRatio,
		RaterCount:     total,
		PresentCount:   presentCount,
	}
	if present {
		decision.Evidence = selectEvidence(votes)
	}
	return decision
}

// weightedVote is the confidence-weighted mean of the boolean votes.
func weightedVote(votes []raterVote) float64 {
	var weightSum, presentWeight float64
	for _, v := range votes {
		weightSum += v.confidence
		if v.present {
			presentWeight += v.confidence
		}
	}
	if weightSum == 0 {
		return 0
	}
	return presentWeight / weightSum
}

// sideMeanConfidence averages the confidences of the raters whose vote
// matches the winning side.
func sideMeanConfidence(votes []raterVote, present bool) float64 {
	var sum float64
	var n int
	for _, v := range votes {
		if v.present == present {
			sum += v.confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// selectEvidence keeps the strongest quotes across raters, at most three,
// ranked by the proposing rater's confidence in the code.
func selectEvidence(votes []raterVote) []entities.Quote {
	var quotes []entities.Quote
	for _, v := range votes {
		for _, q := range v.quotes {
			q.RaterConfidence = v.confidence
			quotes = append(quotes, q)
		}
	}
	if len(quotes) == 0 {
		return nil
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].RaterConfidence > quotes[j].RaterConfidence
	})
	if len(quotes) > maxEvidenceQuotes {
		quotes = quotes[:maxEvidenceQuotes]
	}
	for i := range quotes {
		quotes[i].ConsensusSelected = true
	}
	return quotes
}

// quality summarizes consensus cleanliness: confidence weighted at 0.6,
// agreement at 0.4.
func (b *Builder) quality(decisions []entities.ConsensusDecision) entities.ConsensusQuality {
	if len(decisions) == 0 {
		return entities.ConsensusQuality{}
	}

	var confSum, agreeSum float64
	var high, low int
	for _, d := range decisions {
		confSum += d.Confidence
		agreeSum += d.AgreementRatio
		if d.AgreementRatio >= b.threshold {
			high++
		} else {
			low++
		}
	}

	avgConf := confSum / float64(len(decisions))
	avgAgree := agreeSum / float64(len(decisions))

	return entities.ConsensusQuality{
		OverallQuality:     avgConf*0.6 + avgAgree*0.4,
		HighConsensusCodes: high,
		LowConsensusCodes:  low,
		AvgConfidence:      avgConf,
		AvgAgreement:       avgAgree,
	}
}

// disagreements lists codes on which raters split. With fewer than two
// raters there is nothing to disagree about.
func disagreements(votesByCode map[string][]raterVote, raterCount int) entities.DisagreementSummary {
	if raterCount < 2 || len(votesByCode) == 0 {
		return entities.DisagreementSummary{}
	}

	codes := make([]string, 0, len(votesByCode))
	for code := range votesByCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var split []entities.Disagreement
	for _, code := range codes {
		votes := votesByCode[code]
		var anyPresent, anyAbsent bool
		decisions := make(map[string]bool, len(votes))
		for _, v := range votes {
			decisions[v.raterID] = v.present
			if v.present {
				anyPresent = true
			} else {
				anyAbsent = true
			}
		}
		if anyPresent && anyAbsent {
			split = append(split, entities.Disagreement{Code: code, Votes: decisions})
		}
	}

	return entities.DisagreementSummary{
		Codes: split,
		Rate:  float64(len(split)) / float64(len(votesByCode)),
	}
}
