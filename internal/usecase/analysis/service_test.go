package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
	"github.com/johnquangdev/qualcoder/internal/usecase/coding"
	"github.com/johnquangdev/qualcoder/internal/usecase/domainclass"
	"github.com/johnquangdev/qualcoder/pkg/config"
)

type fakeRater struct {
	name      string
	proposals []entities.LabelProposal
	err       error
}

func (f *fakeRater) Name() string { return f.name }

func (f *fakeRater) Code(_ context.Context, _ coding.CodeRequest) ([]entities.LabelProposal, error) {
	return f.proposals, f.err
}

type memoryVerdictCache struct {
	verdicts map[string]*entities.DomainVerdict
	hits     int
}

func (c *memoryVerdictCache) GetVerdict(_ context.Context, key string) (*entities.DomainVerdict, error) {
	if v, ok := c.verdicts[key]; ok {
		c.hits++
		return v, nil
	}
	return nil, nil
}

func (c *memoryVerdictCache) SetVerdict(_ context.Context, key string, verdict *entities.DomainVerdict) error {
	if c.verdicts == nil {
		c.verdicts = make(map[string]*entities.DomainVerdict)
	}
	c.verdicts[key] = verdict
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{
			ConsensusThreshold:  0.7,
			MinDomainConfidence: 0.7,
			Temperature:         0.2,
			WorkerCount:         1,
			WorkerPollInterval:  time.Second,
			StaleRunTimeout:     10 * time.Minute,
		},
	}
}

func testClassifier(t *testing.T) *domainclass.Classifier {
	t.Helper()
	profiles := []entities.DomainProfile{
		{
			DomainID:    "product_feedback",
			Keywords:    []string{"interface", "feature"},
			Weight:      1.0,
			CodebookRef: "product_feedback",
		},
	}
	c, err := domainclass.NewClassifier(profiles, 0.7, nil)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	return c
}

func serviceUtterances() []entities.Utterance {
	return []entities.Utterance{
		{ID: "u1", Speaker: "P1", Text: "the interface hides the export feature completely", Sequence: 0},
		{ID: "u2", Speaker: "P2", Text: "I could not find the search box either", Sequence: 1},
	}
}

func newTestService(t *testing.T, raters []coding.Rater, cache VerdictCache) Service {
	t.Helper()
	return NewAnalysisService(
		nil, nil,
		testClassifier(t),
		coding.NewCodebookStore("", nil),
		raters,
		nil,
		cache,
		nil,
		testConfig(),
		nil,
	)
}

func TestAnalyze_FullPipeline(t *testing.T) {
	raters := []coding.Rater{
		&fakeRater{name: "rater-a", proposals: []entities.LabelProposal{
			{UtteranceID: "u1", Code: "usability_issue", Confidence: 0.9, Quote: "hides the export feature"},
			{UtteranceID: "u2", Code: "usability_issue", Confidence: 0.85},
		}},
		&fakeRater{name: "rater-b", proposals: []entities.LabelProposal{
			{UtteranceID: "u1", Code: "usability_issue", Confidence: 0.8},
		}},
	}

	svc := newTestService(t, raters, nil)
	bundle, err := svc.Analyze(context.Background(), serviceUtterances())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if bundle.Verdict.DetectedDomain != "product_feedback" {
		t.Fatalf("expected product_feedback domain, got %s", bundle.Verdict.DetectedDomain)
	}
	if len(bundle.RaterResults) != 2 {
		t.Fatalf("expected 2 rater results, got %d", len(bundle.RaterResults))
	}
	if len(bundle.RaterFailures) != 0 {
		t.Fatalf("expected no failures, got %v", bundle.RaterFailures)
	}

	decision, ok := bundle.Consensus.Decision("usability_issue")
	if !ok || !decision.Present {
		t.Fatalf("expected present consensus for usability_issue")
	}

	// Both raters proposed the code on u1, one on u2.
	if len(bundle.Matrix) != 2 {
		t.Fatalf("expected 2 matrix entries, got %v", bundle.Matrix)
	}
	for _, entry := range bundle.Matrix {
		if entry.Code != "usability_issue" || !entry.Present {
			t.Fatalf("unexpected matrix entry %+v", entry)
		}
	}

	if bundle.Reliability.Undefined {
		t.Fatalf("two raters should yield defined reliability")
	}
	if bundle.Coverage.CoveragePercent != 100 {
		t.Fatalf("expected full utterance coverage, got %v", bundle.Coverage.CoveragePercent)
	}
}

func TestAnalyze_CollectsRaterFailures(t *testing.T) {
	raters := []coding.Rater{
		&fakeRater{name: "rater-a", proposals: []entities.LabelProposal{
			{UtteranceID: "u1", Code: "usability_issue", Confidence: 0.9},
		}},
		&fakeRater{name: "rater-b", err: errors.New("model timeout")},
	}

	svc := newTestService(t, raters, nil)
	bundle, err := svc.Analyze(context.Background(), serviceUtterances())
	if err != nil {
		t.Fatalf("one healthy rater should be enough: %v", err)
	}

	if len(bundle.RaterResults) != 1 || bundle.RaterResults[0].RaterID != "rater-a" {
		t.Fatalf("expected rater-a result only, got %v", bundle.RaterResults)
	}
	if len(bundle.RaterFailures) != 1 || bundle.RaterFailures[0].RaterID != "rater-b" {
		t.Fatalf("expected rater-b failure, got %v", bundle.RaterFailures)
	}
	if !bundle.Reliability.Undefined {
		t.Fatalf("single surviving rater should make reliability undefined")
	}
}

func TestAnalyze_AllRatersFailing(t *testing.T) {
	raters := []coding.Rater{
		&fakeRater{name: "rater-a", err: errors.New("down")},
		&fakeRater{name: "rater-b", err: errors.New("down")},
	}

	svc := newTestService(t, raters, nil)
	if _, err := svc.Analyze(context.Background(), serviceUtterances()); !errors.Is(err, entities.ErrNoRaters) {
		t.Fatalf("expected ErrNoRaters, got %v", err)
	}
}

func TestAnalyze_EmptyTranscript(t *testing.T) {
	svc := newTestService(t, []coding.Rater{&fakeRater{name: "rater-a"}}, nil)

	if _, err := svc.Analyze(context.Background(), nil); !errors.Is(err, entities.ErrEmptyTranscript) {
		t.Fatalf("expected ErrEmptyTranscript, got %v", err)
	}
}

func TestAnalyze_NoRatersConfigured(t *testing.T) {
	svc := newTestService(t, nil, nil)

	if _, err := svc.Analyze(context.Background(), serviceUtterances()); !errors.Is(err, entities.ErrNoRaters) {
		t.Fatalf("expected ErrNoRaters, got %v", err)
	}
}

func TestAnalyze_VerdictCacheReuse(t *testing.T) {
	raters := []coding.Rater{
		&fakeRater{name: "rater-a", proposals: []entities.LabelProposal{
			{UtteranceID: "u1", Code: "usability_issue", Confidence: 0.9},
		}},
	}
	cache := &memoryVerdictCache{}

	svc := newTestService(t, raters, cache)
	if _, err := svc.Analyze(context.Background(), serviceUtterances()); err != nil {
		t.Fatalf("first Analyze failed: %v", err)
	}
	if _, err := svc.Analyze(context.Background(), serviceUtterances()); err != nil {
		t.Fatalf("second Analyze failed: %v", err)
	}

	if cache.hits != 1 {
		t.Fatalf("expected one cache hit on the second run, got %d", cache.hits)
	}
	if len(cache.verdicts) != 1 {
		t.Fatalf("expected one cached verdict, got %d", len(cache.verdicts))
	}
}
