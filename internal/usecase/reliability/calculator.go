package reliability

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

// Calculator computes inter-rater reliability from the raw proposal sets:
// pairwise agreement, per-code agreement ratios, and an approximate
// Krippendorff's alpha for binary data.
type Calculator struct {
	logger *zap.Logger
}

func NewCalculator(logger *zap.Logger) *Calculator {
	return &Calculator{logger: logger}
}

// Calculate builds the reliability report. With fewer than two raters the
// statistics are undefined and reported as such rather than as zeros that
// look like valid measurements.
func (c *Calculator) Calculate(results []entities.RaterResult) entities.ReliabilityReport {
	if len(results) < 2 {
		return entities.ReliabilityReport{
			PerCodeAlpha:      map[string]float64{},
			AgreementRatios:   map[string]float64{},
			PairwiseAgreement: map[string]float64{},
			Interpretation:    "undefined",
			NRaters:           len(results),
			Undefined:         true,
		}
	}

	votes := voteMatrix(results)
	codes := sortedCodes(votes)
	n := len(results)

	report := entities.ReliabilityReport{
		PerCodeAlpha:      make(map[string]float64, len(codes)),
		AgreementRatios:   make(map[string]float64, len(codes)),
		PairwiseAgreement: pairwiseAgreement(results),
		NUnits:            len(codes),
		NRaters:           n,
	}

	var totalDo, totalDe, ratioSum float64
	for _, code := range codes {
		presentCount := 0
		for _, present := range votes[code] {
			if present {
				presentCount++
			}
		}

		observed := observedAgreement(presentCount, n)
		p := float64(presentCount) / float64(n)
		de := 2 * p * (1 - p)
		do := 1 - observed

		alpha := 1.0
		if de > 0 {
			alpha = 1 - do/de
		}
		report.PerCodeAlpha[code] = alpha

		ratio := float64(presentCount) / float64(n)
		if ratio < 0.5 {
			ratio = 1 - ratio
		}
		report.AgreementRatios[code] = ratio
		ratioSum += ratio

		totalDo += do
		totalDe += de
	}

	if len(codes) > 0 {
		report.MeanAgreement = ratioSum / float64(len(codes))
	}

	if totalDe == 0 {
		report.OverallAlpha = 1.0
	} else {
		report.OverallAlpha = clamp01(1 - totalDo/totalDe)
	}
	report.Interpretation = InterpretAlpha(report.OverallAlpha)

	if c.logger != nil {
		c.logger.Info("📊 reliability computed",
			zap.Float64("overall_alpha", report.OverallAlpha),
			zap.String("interpretation", report.Interpretation),
			zap.Int("codes", report.NUnits),
		)
	}
	return report
}

// voteMatrix maps code -> rater -> present, with default-absent votes for
// raters that never mention a code.
func voteMatrix(results []entities.RaterResult) map[string]map[string]bool {
	votes := make(map[string]map[string]bool)
	for _, result := range results {
		for _, p := range result.Proposals {
			if votes[p.Code] == nil {
				votes[p.Code] = make(map[string]bool)
			}
			if p.Present {
				votes[p.Code][result.RaterID] = true
			} else if _, ok := votes[p.Code][result.RaterID]; !ok {
				votes[p.Code][result.RaterID] = false
			}
		}
	}
	for _, raterVotes := range votes {
		for _, result := range results {
			if _, ok := raterVotes[result.RaterID]; !ok {
				raterVotes[result.RaterID] = false
			}
		}
	}
	return votes
}

func sortedCodes(votes map[string]map[string]bool) []string {
	codes := make([]string, 0, len(votes))
	for code := range votes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// observedAgreement is the fraction of rater pairs with identical votes:
// (C(k,2) + C(n-k,2)) / C(n,2) for k present votes out of n.
func observedAgreement(presentCount, n int) float64 {
	if n < 2 {
		return 1.0
	}
	k := presentCount
	agreeing := pairs(k) + pairs(n-k)
	return float64(agreeing) / float64(pairs(n))
}

func pairs(n int) int {
	return n * (n - 1) / 2
}

// pairwiseAgreement computes, for each rater pair, the fraction of
// matching decisions over the codes both raters explicitly addressed.
func pairwiseAgreement(results []entities.RaterResult) map[string]float64 {
	agreement := make(map[string]float64)

	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			a, b := results[i], results[j]
			aVotes := codeVotes(a)
			bVotes := codeVotes(b)

			shared, matching := 0, 0
			for code, aPresent := range aVotes {
				bPresent, ok := bVotes[code]
				if !ok {
					continue
				}
				shared++
				if aPresent == bPresent {
					matching++
				}
			}

			key := fmt.Sprintf("%s_vs_%s", a.RaterID, b.RaterID)
			if shared == 0 {
				agreement[key] = 0.0
				continue
			}
			agreement[key] = float64(matching) / float64(shared)
		}
	}
	return agreement
}

func codeVotes(result entities.RaterResult) map[string]bool {
	votes := make(map[string]bool)
	for _, p := range result.Proposals {
		if p.Present {
			votes[p.Code] = true
		} else if _, ok := votes[p.Code]; !ok {
			votes[p.Code] = false
		}
	}
	return votes
}

// InterpretAlpha maps an alpha or kappa value onto the conventional
// Landis-Koch style bands.
func InterpretAlpha(alpha float64) string {
	switch {
	case alpha < 0:
		return "poor (worse than chance)"
	case alpha < 0.01:
		return "poor"
	case alpha < 0.20:
		return "slight"
	case alpha < 0.40:
		return "fair"
	case alpha < 0.60:
		return "moderate"
	case alpha < 0.80:
		return "substantial"
	case alpha < 0.90:
		return "almost perfect"
	default:
		return "perfect"
	}
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
