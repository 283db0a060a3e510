package coding

import (
	"sort"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

const (
	// Secondary-pass findings carry less weight than the preferred pass.
	secondaryDiscount = 0.9

	// Dedup keys truncate quotes so near-identical excerpts collide.
	quoteKeyLen = 50
)

type mergeOutcome struct {
	Proposals           []entities.LabelProposal
	CoverageImprovement float64
}

// mergeProposals combines a preferred pass with a supplementary one.
// Supplementary proposals that duplicate a preferred (utterance, quote)
// pair are dropped; the rest join with discounted confidence. The
// improvement is always measured against the deductive set alone,
// whichever pass was preferred.
func mergeProposals(preferred, supplement, deductive []entities.LabelProposal, totalUtterances int) mergeOutcome {
	seen := make(map[string]struct{}, len(preferred))
	merged := make([]entities.LabelProposal, 0, len(preferred)+len(supplement))

	for _, p := range preferred {
		seen[proposalKey(p)] = struct{}{}
		merged = append(merged, p)
	}

	for _, p := range supplement {
		key := proposalKey(p)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		p.Confidence *= secondaryDiscount
		merged = append(merged, p)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].UtteranceID != merged[j].UtteranceID {
			return merged[i].UtteranceID < merged[j].UtteranceID
		}
		return merged[i].Code < merged[j].Code
	})

	improvement := 0.0
	if totalUtterances > 0 {
		baseline := float64(codedUtteranceCount(deductive)) / float64(totalUtterances)
		after := float64(codedUtteranceCount(merged)) / float64(totalUtterances)
		if after > baseline {
			improvement = after - baseline
		}
	}

	return mergeOutcome{Proposals: merged, CoverageImprovement: improvement}
}

func proposalKey(p entities.LabelProposal) string {
	quote := p.Quote
	if len(quote) > quoteKeyLen {
		quote = quote[:quoteKeyLen]
	}
	return p.UtteranceID + "|" + quote
}

func codedUtteranceCount(proposals []entities.LabelProposal) int {
	ids := make(map[string]struct{})
	for _, p := range proposals {
		ids[p.UtteranceID] = struct{}{}
	}
	return len(ids)
}

// codeList returns the distinct codes in proposal order.
func codeList(proposals []entities.LabelProposal) []string {
	seen := make(map[string]struct{})
	var codes []string
	for _, p := range proposals {
		if _, ok := seen[p.Code]; ok {
			continue
		}
		seen[p.Code] = struct{}{}
		codes = append(codes, p.Code)
	}
	return codes
}

// uncodedUtterances returns utterances no proposal references.
func uncodedUtterances(utterances []entities.Utterance, proposals []entities.LabelProposal) []entities.Utterance {
	coded := make(map[string]struct{}, len(proposals))
	for _, p := range proposals {
		coded[p.UtteranceID] = struct{}{}
	}
	var uncoded []entities.Utterance
	for _, u := range utterances {
		if _, ok := coded[u.ID]; !ok {
			uncoded = append(uncoded, u)
		}
	}
	return uncoded
}
