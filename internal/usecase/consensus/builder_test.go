package consensus

import (
	"math"
	"testing"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

func result(raterID string, proposals ...entities.LabelProposal) entities.RaterResult {
	for i := range proposals {
		proposals[i].RaterID = raterID
	}
	return entities.RaterResult{RaterID: raterID, Proposals: proposals}
}

func TestBuild_ContestedCodeFallsToWeightedVote(t *testing.T) {
	// Three raters on code X: confidences 0.9, 0.85, 0.2 and votes
	// present, present, absent. Agreement 2/3 misses the 0.7 threshold,
	// so the confidence-weighted vote decides.
	results := []entities.RaterResult{
		result("r1", entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: true, Confidence: 0.9}),
		result("r2", entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: true, Confidence: 0.85}),
		result("r3", entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: false, Confidence: 0.2}),
	}

	report := NewBuilder(0.7, nil).Build(results)

	d, ok := report.Decision("X")
	if !ok {
		t.Fatalf("expected decision for code X")
	}
	if !d.Present {
		t.Fatalf("weighted vote should resolve to present")
	}
	if math.Abs(d.AgreementRatio-2.0/3.0) > 1e-9 {
		t.Fatalf("expected agreement ratio 2/3, got %v", d.AgreementRatio)
	}
	// mean(0.9, 0.85) * 0.8 = 0.7
	if math.Abs(d.Confidence-0.7) > 1e-9 {
		t.Fatalf("expected confidence 0.7, got %v", d.Confidence)
	}
	if d.PresentCount != 2 || d.RaterCount != 3 {
		t.Fatalf("expected 2/3 present votes, got %d/%d", d.PresentCount, d.RaterCount)
	}
}

func TestBuild_CleanMajorityKeepsFullConfidence(t *testing.T) {
	results := []entities.RaterResult{
		result("r1", entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: true, Confidence: 0.9}),
		result("r2", entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: true, Confidence: 0.7}),
	}

	report := NewBuilder(0.7, nil).Build(results)

	d, _ := report.Decision("X")
	if !d.Present {
		t.Fatalf("unanimous code should be present")
	}
	if math.Abs(d.AgreementRatio-1.0) > 1e-9 {
		t.Fatalf("expected agreement ratio 1.0, got %v", d.AgreementRatio)
	}
	if math.Abs(d.Confidence-0.8) > 1e-9 {
		t.Fatalf("expected mean confidence 0.8, got %v", d.Confidence)
	}
}

func TestBuild_UnmentionedCodeDefaultsToAbsentVote(t *testing.T) {
	// r2 never mentions Y, so it votes absent at confidence 0.1.
	results := []entities.RaterResult{
		result("r1", entities.LabelProposal{UtteranceID: "u1", Code: "Y", Present: true, Confidence: 0.9}),
		result("r2", entities.LabelProposal{UtteranceID: "u1", Code: "Z", Present: true, Confidence: 0.9}),
	}

	report := NewBuilder(0.7, nil).Build(results)

	d, ok := report.Decision("Y")
	if !ok {
		t.Fatalf("expected decision for code Y")
	}
	if d.RaterCount != 2 {
		t.Fatalf("default-absent vote missing: rater count %d", d.RaterCount)
	}
	if math.Abs(d.AgreementRatio-0.5) > 1e-9 {
		t.Fatalf("expected agreement ratio 0.5, got %v", d.AgreementRatio)
	}
}

func TestBuild_WeightedTieResolvesAbsent(t *testing.T) {
	results := []entities.RaterResult{
		result("r1", entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: true, Confidence: 0.5}),
		result("r2", entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: false, Confidence: 0.5}),
	}

	report := NewBuilder(0.7, nil).Build(results)

	d, _ := report.Decision("X")
	if d.Present {
		t.Fatalf("weighted mean of exactly 0.5 must resolve to absent")
	}
}

func TestBuild_EvidenceTopThreeByConfidence(t *testing.T) {
	results := []entities.RaterResult{
		result("r1", entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: true, Confidence: 0.6, Quote: "q-low"}),
		result("r2", entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: true, Confidence: 0.95, Quote: "q-high"}),
		result("r3", entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: true, Confidence: 0.8, Quote: "q-mid"}),
		result("r4", entities.LabelProposal{UtteranceID: "u2", Code: "X", Present: true, Confidence: 0.7, Quote: "q-other"}),
	}

	report := NewBuilder(0.7, nil).Build(results)

	d, _ := report.Decision("X")
	if len(d.Evidence) != 3 {
		t.Fatalf("expected 3 evidence quotes, got %d", len(d.Evidence))
	}
	if d.Evidence[0].Text != "q-high" {
		t.Fatalf("expected highest-confidence quote first, got %s", d.Evidence[0].Text)
	}
	for _, q := range d.Evidence {
		if !q.ConsensusSelected {
			t.Fatalf("evidence quote not tagged as consensus-selected")
		}
		if q.Text == "q-low" {
			t.Fatalf("lowest-confidence quote should have been cut")
		}
	}
}

func TestBuild_AbsentConsensusCarriesNoEvidence(t *testing.T) {
	results := []entities.RaterResult{
		result("r1", entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: false, Confidence: 0.9, Quote: "q"}),
		result("r2", entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: false, Confidence: 0.8, Quote: "q"}),
	}

	report := NewBuilder(0.7, nil).Build(results)

	d, _ := report.Decision("X")
	if d.Present {
		t.Fatalf("expected absent consensus")
	}
	if len(d.Evidence) != 0 {
		t.Fatalf("absent decision must not carry evidence")
	}
}

func TestBuild_DisagreementsAndQuality(t *testing.T) {
	results := []entities.RaterResult{
		result("r1",
			entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: true, Confidence: 0.9},
			entities.LabelProposal{UtteranceID: "u1", Code: "Y", Present: true, Confidence: 0.9},
		),
		result("r2",
			entities.LabelProposal{UtteranceID: "u1", Code: "X", Present: true, Confidence: 0.8},
		),
	}

	report := NewBuilder(0.7, nil).Build(results)

	// X is unanimous, Y splits against r2's default-absent vote.
	if len(report.Disagreements.Codes) != 1 || report.Disagreements.Codes[0].Code != "Y" {
		t.Fatalf("expected one disagreement on Y, got %v", report.Disagreements.Codes)
	}
	if math.Abs(report.Disagreements.Rate-0.5) > 1e-9 {
		t.Fatalf("expected disagreement rate 0.5, got %v", report.Disagreements.Rate)
	}
	if report.Quality.HighConsensusCodes != 1 || report.Quality.LowConsensusCodes != 1 {
		t.Fatalf("expected 1 high and 1 low consensus code, got %+v", report.Quality)
	}
}

func TestBuild_NoRaters(t *testing.T) {
	report := NewBuilder(0.7, nil).Build(nil)

	if len(report.Decisions) != 0 || report.RaterCount != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}
