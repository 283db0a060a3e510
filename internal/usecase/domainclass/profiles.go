package domainclass

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

// LoadProfiles reads domain profiles from a JSON file. A missing path is not
// an error: the built-in default profiles are returned so the classifier can
// always run.
func LoadProfiles(path string) ([]entities.DomainProfile, error) {
	if path == "" {
		return DefaultProfiles(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultProfiles(), nil
		}
		return nil, fmt.Errorf("failed to read domain profiles: %w", err)
	}

	var profiles []entities.DomainProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse domain profiles: %w", err)
	}
	return profiles, nil
}

// DefaultProfiles returns the built-in domain profiles used when no
// configuration file is provided.
func DefaultProfiles() []entities.DomainProfile {
	return []entities.DomainProfile{
		{
			DomainID: "ai_research",
			Keywords: []string{
				"AI", "artificial intelligence", "machine learning", "automation",
				"algorithm", "neural network", "deep learning", "NLP", "computer vision",
				"research method", "qualitative analysis",
			},
			Patterns:    []string{`AI\s+adoption`, `machine\s+learning`, `automat\w+`, `research\s+method`},
			Weight:      1.0,
			CodebookRef: "ai_research",
		},
		{
			DomainID: "product_feedback",
			Keywords: []string{
				"interface", "feature", "user experience", "UX", "UI", "bug",
				"navigation", "usability", "design", "workflow", "integration",
				"notification", "mobile", "desktop", "performance",
			},
			Patterns:    []string{`user\s+experience`, `UI/UX`, `bug\s+report`, `feature\s+request`},
			Weight:      1.0,
			CodebookRef: "product_feedback",
		},
		{
			DomainID: "medical",
			Keywords: []string{
				"patient", "treatment", "diagnosis", "symptom", "medication",
				"clinical", "therapy", "healthcare", "doctor", "nurse", "hospital",
			},
			Patterns:    []string{`patient\s+care`, `clinical\s+trial`, `medical\s+record`},
			Weight:      1.0,
			CodebookRef: "medical",
		},
		{
			DomainID: "education",
			Keywords: []string{
				"student", "teacher", "learning", "curriculum", "assessment",
				"classroom", "education", "pedagogy", "course", "lesson",
			},
			Patterns:    []string{`student\s+learning`, `educational\s+outcome`, `teaching\s+method`},
			Weight:      1.0,
			CodebookRef: "education",
		},
		{
			DomainID: "customer_service",
			Keywords: []string{
				"customer", "service", "support", "complaint", "satisfaction",
				"resolution", "ticket", "agent", "response time", "issue",
			},
			Patterns:    []string{`customer\s+service`, `support\s+ticket`, `customer\s+satisfaction`},
			Weight:      1.0,
			CodebookRef: "customer_service",
		},
	}
}
