package reliability

import (
	"math"
	"testing"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

func TestAggregate(t *testing.T) {
	reports := []entities.ReliabilityReport{
		{OverallAlpha: 0.8, MeanAgreement: 0.9},
		{OverallAlpha: 0.6, MeanAgreement: 0.7},
		{Undefined: true, OverallAlpha: 0, MeanAgreement: 0},
	}

	summary := Aggregate(reports)

	if summary.Undefined {
		t.Fatal("expected defined summary")
	}
	if summary.NRuns != 2 {
		t.Fatalf("expected 2 contributing runs, got %d", summary.NRuns)
	}
	if math.Abs(summary.Alpha.Mean-0.7) > 1e-9 {
		t.Fatalf("expected mean alpha 0.7, got %v", summary.Alpha.Mean)
	}
	if math.Abs(summary.Alpha.Std-0.1) > 1e-9 {
		t.Fatalf("expected alpha std 0.1, got %v", summary.Alpha.Std)
	}
	if summary.Alpha.Min != 0.6 || summary.Alpha.Max != 0.8 {
		t.Fatalf("expected alpha range [0.6, 0.8], got [%v, %v]", summary.Alpha.Min, summary.Alpha.Max)
	}
	if math.Abs(summary.Agreement.Mean-0.8) > 1e-9 {
		t.Fatalf("expected mean agreement 0.8, got %v", summary.Agreement.Mean)
	}
	if summary.Interpretation != "substantial" {
		t.Fatalf("expected substantial interpretation, got %q", summary.Interpretation)
	}
}

func TestAggregate_AllUndefined(t *testing.T) {
	summary := Aggregate([]entities.ReliabilityReport{{Undefined: true}})

	if !summary.Undefined {
		t.Fatal("expected undefined summary")
	}
	if summary.Interpretation != "undefined" {
		t.Fatalf("expected undefined interpretation, got %q", summary.Interpretation)
	}
	if summary.NRuns != 0 {
		t.Fatalf("expected 0 runs, got %d", summary.NRuns)
	}
}
