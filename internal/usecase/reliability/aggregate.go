package reliability

import (
	"math"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

// Aggregate summarizes reliability across several runs of the same study.
// Runs with undefined reliability are skipped so a single-rater run never
// drags the study average to zero.
func Aggregate(reports []entities.ReliabilityReport) entities.ReliabilitySummary {
	var alphas, agreements []float64
	for _, r := range reports {
		if r.Undefined {
			continue
		}
		alphas = append(alphas, r.OverallAlpha)
		agreements = append(agreements, r.MeanAgreement)
	}

	if len(alphas) == 0 {
		return entities.ReliabilitySummary{
			Interpretation: "undefined",
			Undefined:      true,
		}
	}

	alphaStats := summarize(alphas)
	return entities.ReliabilitySummary{
		Alpha:          alphaStats,
		Agreement:      summarize(agreements),
		Interpretation: InterpretAlpha(alphaStats.Mean),
		NRuns:          len(alphas),
	}
}

func summarize(values []float64) entities.StatSummary {
	s := entities.StatSummary{Min: values[0], Max: values[0]}

	var sum float64
	for _, v := range values {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - s.Mean
		sq += d * d
	}
	s.Std = math.Sqrt(sq / float64(len(values)))
	return s
}
