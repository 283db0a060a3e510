package coding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

// Coding regimes, chosen from the domain verdict confidence.
const (
	RegimeDeductivePrimary = "deductive_primary"
	RegimeBalanced         = "balanced"
	RegimeInductivePrimary = "inductive_primary"

	deductivePrimaryThreshold = 0.8
	balancedThreshold         = 0.5
)

// HybridCoder runs one rater through the regime matching how confidently
// the transcript's domain was identified. High confidence leans on the
// codebook, low confidence leans on emergent themes, and the middle runs
// both passes and merges.
type HybridCoder struct {
	rater       Rater
	mapper      CodeMapper
	screener    *Screener
	temperature float64
	logger      *zap.Logger
}

func NewHybridCoder(rater Rater, mapper CodeMapper, screener *Screener, temperature float64, logger *zap.Logger) *HybridCoder {
	return &HybridCoder{
		rater:       rater,
		mapper:      mapper,
		screener:    screener,
		temperature: temperature,
		logger:      logger,
	}
}

// Name returns the wrapped rater's identifier.
func (h *HybridCoder) Name() string {
	return h.rater.Name()
}

// Run produces this rater's screened proposal set for the transcript.
// Failure of the regime's primary pass fails the rater; supplementary
// passes degrade with a warning instead.
func (h *HybridCoder) Run(ctx context.Context, utterances []entities.Utterance, verdict entities.DomainVerdict, codebook *entities.Codebook) (entities.RaterResult, error) {
	regime := selectRegime(verdict)

	if h.logger != nil {
		h.logger.Info("🧭 coding regime selected",
			zap.String("rater", h.rater.Name()),
			zap.String("regime", regime),
			zap.Float64("domain_confidence", verdict.Confidence),
		)
	}

	var (
		outcome mergeOutcome
		err     error
	)
	switch regime {
	case RegimeDeductivePrimary:
		outcome, err = h.runDeductivePrimary(ctx, utterances, codebook)
	case RegimeBalanced:
		outcome, err = h.runBalanced(ctx, utterances, codebook)
	default:
		outcome, err = h.runInductivePrimary(ctx, utterances, codebook)
	}
	if err != nil {
		return entities.RaterResult{}, err
	}

	if h.logger != nil {
		h.logger.Info("✅ rater coding complete",
			zap.String("rater", h.rater.Name()),
			zap.Int("proposals", len(outcome.Proposals)),
			zap.Float64("coverage_improvement", outcome.CoverageImprovement),
		)
	}

	return entities.RaterResult{
		RaterID:             h.rater.Name(),
		Strategy:            regime,
		Proposals:           outcome.Proposals,
		CoverageImprovement: outcome.CoverageImprovement,
	}, nil
}

// selectRegime picks the regime from the domain confidence alone. A
// missing codebook does not change the regime; it just makes the
// deductive pass come back empty.
func selectRegime(verdict entities.DomainVerdict) string {
	switch {
	case verdict.Confidence >= deductivePrimaryThreshold:
		return RegimeDeductivePrimary
	case verdict.Confidence >= balancedThreshold:
		return RegimeBalanced
	default:
		return RegimeInductivePrimary
	}
}

// runDeductivePrimary codes against the codebook first, then runs an
// inductive sweep over whatever the deductive pass left uncoded. With
// no codebook the deductive pass yields nothing and the sweep covers
// the whole transcript.
func (h *HybridCoder) runDeductivePrimary(ctx context.Context, utterances []entities.Utterance, codebook *entities.Codebook) (mergeOutcome, error) {
	var deductive []entities.LabelProposal
	if codebook != nil {
		var err error
		deductive, err = h.pass(ctx, utterances, codebook, nil, entities.SourceDeductive)
		if err != nil {
			return mergeOutcome{}, fmt.Errorf("deductive pass failed: %w", err)
		}
	}

	var inductive []entities.LabelProposal
	if uncoded := uncodedUtterances(utterances, deductive); len(uncoded) > 0 {
		var err error
		inductive, err = h.pass(ctx, uncoded, nil, codeList(deductive), entities.SourceInductive)
		if err != nil {
			h.warnPass("inductive supplement failed", err)
			inductive = nil
		}
	}

	return mergeProposals(deductive, inductive, deductive, len(utterances)), nil
}

// runBalanced runs both passes over the full transcript; emergent themes
// take precedence over codebook matches on duplicates.
func (h *HybridCoder) runBalanced(ctx context.Context, utterances []entities.Utterance, codebook *entities.Codebook) (mergeOutcome, error) {
	inductive, err := h.pass(ctx, utterances, nil, nil, entities.SourceInductive)
	if err != nil {
		return mergeOutcome{}, fmt.Errorf("inductive pass failed: %w", err)
	}

	var deductive []entities.LabelProposal
	if codebook != nil {
		deductive, err = h.pass(ctx, utterances, codebook, nil, entities.SourceDeductive)
		if err != nil {
			h.warnPass("deductive pass failed", err)
			deductive = nil
		}
	}

	return mergeProposals(inductive, deductive, deductive, len(utterances)), nil
}

// runInductivePrimary codes emergent themes only, mapping them onto the
// codebook when one exists. No deductive pass runs in this regime.
func (h *HybridCoder) runInductivePrimary(ctx context.Context, utterances []entities.Utterance, codebook *entities.Codebook) (mergeOutcome, error) {
	inductive, err := h.pass(ctx, utterances, nil, nil, entities.SourceInductive)
	if err != nil {
		return mergeOutcome{}, fmt.Errorf("inductive pass failed: %w", err)
	}

	if codebook != nil && h.mapper != nil {
		inductive = h.mapToCodebook(ctx, inductive, codebook)
	}

	return mergeProposals(inductive, nil, nil, len(utterances)), nil
}

// mapToCodebook rewrites emergent theme names to their codebook
// equivalents. Unmappable themes keep their emergent names.
func (h *HybridCoder) mapToCodebook(ctx context.Context, proposals []entities.LabelProposal, codebook *entities.Codebook) []entities.LabelProposal {
	mapping, err := h.mapper.MapCodes(ctx, codeList(proposals), codebook)
	if err != nil {
		h.warnPass("code mapping failed", err)
		return proposals
	}

	mapped := make([]entities.LabelProposal, 0, len(proposals))
	for _, p := range proposals {
		if target, ok := mapping[p.Code]; ok && target != NoMatch && target != "" {
			p.OriginalCode = p.Code
			p.Code = target
		}
		mapped = append(mapped, p)
	}
	return mapped
}

func (h *HybridCoder) pass(ctx context.Context, utterances []entities.Utterance, codebook *entities.Codebook, seeds []string, source string) ([]entities.LabelProposal, error) {
	proposals, err := h.rater.Code(ctx, CodeRequest{
		Utterances:  utterances,
		Codebook:    codebook,
		SeedCodes:   seeds,
		Temperature: h.temperature,
	})
	if err != nil {
		return nil, err
	}

	screened := h.screener.Screen(proposals, utterances)
	for i := range screened {
		screened[i].RaterID = h.rater.Name()
		if screened[i].Source == "" {
			screened[i].Source = source
		}
	}
	return screened, nil
}

func (h *HybridCoder) warnPass(msg string, err error) {
	if h.logger != nil {
		h.logger.Warn("⚠️ "+msg, zap.String("rater", h.rater.Name()), zap.Error(err))
	}
}
