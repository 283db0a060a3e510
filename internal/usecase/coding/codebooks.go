package coding

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

// CodebookStore resolves codebook references to codebooks. References are
// looked up as <dir>/<ref>.json first, then in the built-in set.
type CodebookStore struct {
	dir    string
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]*entities.Codebook
}

func NewCodebookStore(dir string, logger *zap.Logger) *CodebookStore {
	return &CodebookStore{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]*entities.Codebook),
	}
}

// Get returns the codebook for a reference, or ErrCodebookNotFound.
func (s *CodebookStore) Get(ref string) (*entities.Codebook, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", entities.ErrCodebookNotFound)
	}

	s.mu.RLock()
	if cb, ok := s.cache[ref]; ok {
		s.mu.RUnlock()
		return cb, nil
	}
	s.mu.RUnlock()

	cb, err := s.load(ref)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[ref] = cb
	s.mu.Unlock()
	return cb, nil
}

func (s *CodebookStore) load(ref string) (*entities.Codebook, error) {
	if s.dir != "" {
		path := filepath.Join(s.dir, ref+".json")
		data, err := os.ReadFile(path)
		if err == nil {
			var cb entities.Codebook
			if err := json.Unmarshal(data, &cb); err != nil {
				return nil, fmt.Errorf("failed to parse codebook %s: %w", ref, err)
			}
			cb.Ref = ref
			return &cb, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read codebook %s: %w", ref, err)
		}
	}

	if cb, ok := defaultCodebooks()[ref]; ok {
		return cb, nil
	}
	return nil, fmt.Errorf("%w: %s", entities.ErrCodebookNotFound, ref)
}

// defaultCodebooks holds the built-in codebooks matching the built-in
// domain profiles, used when no codebook directory is configured.
func defaultCodebooks() map[string]*entities.Codebook {
	return map[string]*entities.Codebook{
		"ai_research": {
			Ref: "ai_research",
			Codes: []entities.CodebookCode{
				{Name: "adoption_barriers", Definition: "Obstacles to adopting AI tools or methods"},
				{Name: "efficiency_gains", Definition: "Time or effort saved through automation"},
				{Name: "trust_concerns", Definition: "Doubts about reliability or correctness of AI output"},
				{Name: "skill_requirements", Definition: "New skills or training needed to work with AI"},
				{Name: "ethical_considerations", Definition: "Bias, transparency, or accountability concerns"},
				{Name: "human_oversight", Definition: "Need for human review of automated results"},
			},
		},
		"product_feedback": {
			Ref: "product_feedback",
			Codes: []entities.CodebookCode{
				{Name: "usability_issue", Definition: "Difficulty completing a task with the product"},
				{Name: "feature_request", Definition: "Desire for new or changed functionality"},
				{Name: "performance_complaint", Definition: "Slowness, crashes, or resource problems"},
				{Name: "positive_experience", Definition: "Aspects the user finds valuable or pleasant"},
				{Name: "integration_need", Definition: "Desire to connect with other tools or workflows"},
			},
		},
		"medical": {
			Ref: "medical",
			Codes: []entities.CodebookCode{
				{Name: "symptom_description", Definition: "Patient describing what they experience"},
				{Name: "treatment_discussion", Definition: "Options, plans, or changes to treatment"},
				{Name: "medication_concern", Definition: "Side effects, adherence, or dosage questions"},
				{Name: "care_coordination", Definition: "Handoffs or communication between providers"},
				{Name: "patient_anxiety", Definition: "Worry or fear about condition or prognosis"},
			},
		},
		"education": {
			Ref: "education",
			Codes: []entities.CodebookCode{
				{Name: "learning_difficulty", Definition: "Struggles with material or pace"},
				{Name: "teaching_strategy", Definition: "Methods used or proposed for instruction"},
				{Name: "assessment_feedback", Definition: "Reactions to grading or evaluation"},
				{Name: "engagement", Definition: "Student interest, participation, or motivation"},
				{Name: "resource_gap", Definition: "Missing materials, tools, or support"},
			},
		},
		"customer_service": {
			Ref: "customer_service",
			Codes: []entities.CodebookCode{
				{Name: "complaint", Definition: "Dissatisfaction with product or service"},
				{Name: "resolution_request", Definition: "Asking for a fix, refund, or replacement"},
				{Name: "escalation", Definition: "Request to involve a supervisor or specialist"},
				{Name: "positive_feedback", Definition: "Praise for service or staff"},
				{Name: "process_confusion", Definition: "Uncertainty about policies or next steps"},
			},
		},
	}
}
