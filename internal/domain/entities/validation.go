package entities

// ValidationResult is the output validator's assessment of a result bundle.
// IsValid requires zero errors and a confidence score above 0.5.
type ValidationResult struct {
	IsValid         bool            `json:"is_valid"`
	Warnings        []string        `json:"warnings"`
	Errors          []string        `json:"errors"`
	Recommendations []string        `json:"recommendations"`
	ConfidenceScore float64         `json:"confidence_score"`
	Checks          map[string]bool `json:"checks"`
}
